// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nosseb/macstat/internal/metrics"
	"github.com/nosseb/macstat/internal/telemetry"
	"github.com/nosseb/macstat/pkg/mac50"
	"github.com/nosseb/macstat/pkg/mactalk"
)

var watchCount int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the motor and export its status",
	Long: `Poll the motor's status at a fixed interval without a terminal UI.

Each snapshot is:
  - published as CBOR to <mqtt-topic>/<address>/status when --mqtt-broker is set
  - exported as Prometheus gauges on --metrics-listen when set
  - logged at debug level

Frame statistics are printed to stderr on exit (Ctrl+C).`,
	Example: `  macstat watch --port /dev/ttyUSB0 --address 1 --mqtt-broker tcp://localhost:1883
  macstat watch --simulate --metrics-listen :9105 --interval 250ms`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	flags := watchCmd.Flags()
	flags.Duration("interval", time.Second, "Poll interval")
	flags.String("mqtt-broker", "", "MQTT broker URL (tcp://host:1883)")
	flags.String("mqtt-topic", "macstat", "MQTT base topic")
	flags.String("metrics-listen", "", "Serve Prometheus metrics on this address (e.g. :9105)")
	flags.IntVarP(&watchCount, "count", "n", 0, "Stop after this many polls (0 = run until interrupted)")
	bindFlags(v, watchCmd, map[string]string{
		"watch.interval": "interval",
		"mqtt.broker":    "mqtt-broker",
		"mqtt.topic":     "mqtt-topic",
		"metrics.listen": "metrics-listen",
	})
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	address := uint8(cfg.Device.Address)
	stats := mactalk.NewStatistics()
	reg := metrics.NewRegistry()
	motorMetrics := metrics.NewMotorMetrics(reg, address)

	if cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler(reg))
		srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("serving metrics", zap.String("listen", cfg.Metrics.Listen), zap.String("path", cfg.Metrics.Path))
	}

	var pub *telemetry.Publisher
	if cfg.MQTT.Broker != "" {
		p, err := telemetry.Connect(cfg.MQTT, address, logger)
		if err != nil {
			return err
		}
		defer p.Close(address)
		pub = p
	}

	defer func() {
		fmt.Fprint(os.Stderr, stats.String())
	}()

	return withDevice(func(d *mac50.Device) error {
		w := &watcher{device: d, stats: stats, metrics: motorMetrics, publisher: pub}
		return w.run(ctx, cfg.Watch.Interval, watchCount)
	}, mac50.WithObserver(stats), mac50.WithObserver(motorMetrics))
}

// watcher polls one device and fans each snapshot out to the exporters
type watcher struct {
	device    *mac50.Device
	stats     *mactalk.Statistics
	metrics   *metrics.MotorMetrics
	publisher *telemetry.Publisher

	configLoaded bool
	failures     int
}

func (w *watcher) run(ctx context.Context, interval time.Duration, count int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for polls := 0; count == 0 || polls < count; polls++ {
		w.poll()
		if count != 0 && polls+1 >= count {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

func (w *watcher) poll() {
	var conf *mac50.Config
	if !w.configLoaded {
		if err := w.device.RefreshConfig(); err != nil {
			logger.Warn("config refresh failed", zap.Error(err))
		} else {
			w.configLoaded = true
			c := w.device.Config()
			conf = &c
		}
	}

	if err := w.device.RefreshStatus(); err != nil {
		w.failures++
		logger.Warn("status refresh failed", zap.Error(err), zap.Int("consecutive", w.failures))
		return
	}
	w.failures = 0

	status := w.device.Status()
	w.metrics.ObserveStatus(status)
	logger.Debug("status",
		zap.Stringer("mode", status.Mode),
		zap.Int64("position", status.ActualPosition),
		zap.Int64("velocity", status.ActualVelocity),
	)

	if w.publisher == nil {
		return
	}
	counters := w.stats.Snapshot()
	snap := telemetry.Snapshot{
		Address:   w.device.Address(),
		Timestamp: time.Now(),
		Status:    status,
		Config:    conf,
		Frames:    counters.TotalFrames,
		Errors:    counters.Errors(),
	}
	if err := w.publisher.Publish(snap); err != nil {
		logger.Warn("publish failed", zap.Error(err))
	}
}
