// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mac50

import (
	"errors"
	"io"
)

// Port is the byte channel to the motor. Read must return (0, nil) or a short
// count once its configured timeout expires rather than block indefinitely.
type Port interface {
	io.Reader
	io.Writer
}

// BufferResetter is implemented by ports that can discard pending bytes,
// such as go.bug.st/serial ports.
type BufferResetter interface {
	ResetInputBuffer() error
	ResetOutputBuffer() error
}

// readFull reads up to n bytes, stopping early when a read times out (returns
// no data) or the stream ends. A short result is not an error here; the frame
// decoder rejects it.
func readFull(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	for got < n {
		m, err := r.Read(buf[got:])
		got += m
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return buf[:got], err
		}
		if m == 0 {
			break
		}
	}
	return buf[:got], nil
}

// resetBuffers discards stale bytes before a new command when the port supports it
func resetBuffers(p Port) error {
	r, ok := p.(BufferResetter)
	if !ok {
		return nil
	}
	if err := r.ResetInputBuffer(); err != nil {
		return err
	}
	return r.ResetOutputBuffer()
}
