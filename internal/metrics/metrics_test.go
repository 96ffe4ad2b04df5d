// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nosseb/macstat/pkg/mac50"
	"github.com/nosseb/macstat/pkg/mactalk"
	"github.com/nosseb/macstat/pkg/registers"
)

func TestObserveFrame(t *testing.T) {
	reg := NewRegistry()
	m := NewMotorMetrics(reg, 1)

	m.ObserveFrame(mactalk.OpRead, 10, 3*time.Millisecond, nil)
	m.ObserveFrame(mactalk.OpRead, 10, 3*time.Millisecond, mactalk.Errorf(mactalk.KindInvalidComplement, "bad"))
	m.ObserveFrame(mactalk.OpWrite, 3, time.Millisecond, errors.New("port closed"))

	if got := testutil.ToFloat64(m.Frames.WithLabelValues("read", "ok")); got != 1 {
		t.Errorf("read/ok = %v", got)
	}
	if got := testutil.ToFloat64(m.Frames.WithLabelValues("read", mactalk.KindInvalidComplement.String())); got != 1 {
		t.Errorf("read/complement = %v", got)
	}
	if got := testutil.ToFloat64(m.Frames.WithLabelValues("write", "transport")); got != 1 {
		t.Errorf("write/transport = %v", got)
	}
}

func TestObserveStatus(t *testing.T) {
	m := NewMotorMetrics(NewRegistry(), 1)
	m.ObserveStatus(mac50.Status{Mode: mac50.ModePosition, ActualPosition: -250, UpdatedAt: time.Unix(1700000000, 0)})

	if got := testutil.ToFloat64(m.Mode); got != float64(mac50.ModePosition) {
		t.Errorf("mode gauge = %v", got)
	}
	if got := testutil.ToFloat64(m.ActualPosition); got != -250 {
		t.Errorf("position gauge = %v", got)
	}
	if got := testutil.ToFloat64(m.LastRefresh); got != 1700000000 {
		t.Errorf("last refresh = %v", got)
	}
}

func TestHandler_WithDevice(t *testing.T) {
	reg := NewRegistry()
	m := NewMotorMetrics(reg, 1)

	table := registers.Default()
	sim := mac50.NewSimulator(1, table)
	d := mac50.New(sim, 1, table, mac50.WithObserver(m))
	if _, err := d.GetPosition(); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `macstat_frames_total{motor="1",op="read",result="ok"} 1`) {
		t.Errorf("frames counter missing from exposition:\n%s", body)
	}
}
