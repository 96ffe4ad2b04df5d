// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/nosseb/macstat/internal/config"
	"github.com/nosseb/macstat/pkg/mac50"
	"github.com/nosseb/macstat/pkg/registers"
)

// Connection is a motor port whose lifetime the command owns
type Connection interface {
	mac50.Port
	io.Closer
}

// SerialConnection wraps a serial port
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// ResetInputBuffer discards unread bytes
func (s *SerialConnection) ResetInputBuffer() error {
	return s.port.ResetInputBuffer()
}

// ResetOutputBuffer discards unsent bytes
func (s *SerialConnection) ResetOutputBuffer() error {
	return s.port.ResetOutputBuffer()
}

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = errors.New("websocket connection closed")

// WebSocketConnection carries MacTalk frames as binary WebSocket messages.
// A reader goroutine buffers incoming bytes so Read can honour a timeout.
type WebSocketConnection struct {
	conn    *websocket.Conn
	timeout time.Duration

	mu     sync.Mutex
	buf    []byte
	err    error
	notify chan struct{}
	done   chan struct{}
}

func newWebSocketConnection(conn *websocket.Conn, timeout time.Duration) *WebSocketConnection {
	w := &WebSocketConnection{
		conn:    conn,
		timeout: timeout,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.readLoop()
	return w
}

func (w *WebSocketConnection) readLoop() {
	defer close(w.done)
	for {
		messageType, data, err := w.conn.ReadMessage()
		w.mu.Lock()
		if err != nil {
			w.err = err
			w.mu.Unlock()
			w.signal()
			return
		}
		// Only binary messages carry frames
		if messageType == websocket.BinaryMessage {
			w.buf = append(w.buf, data...)
		}
		w.mu.Unlock()
		w.signal()
	}
}

func (w *WebSocketConnection) signal() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Read returns buffered bytes, waiting up to the read timeout for some to
// arrive. It returns (0, nil) on timeout, like a serial port.
func (w *WebSocketConnection) Read(p []byte) (int, error) {
	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()

	for {
		w.mu.Lock()
		if len(w.buf) > 0 {
			n := copy(p, w.buf)
			w.buf = w.buf[n:]
			w.mu.Unlock()
			return n, nil
		}
		if w.err != nil {
			w.mu.Unlock()
			return 0, fmt.Errorf("%w: %v", ErrConnectionClosed, w.err)
		}
		w.mu.Unlock()

		select {
		case <-w.notify:
		case <-deadline.C:
			return 0, nil
		}
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ResetInputBuffer drops bytes received but not yet read
func (w *WebSocketConnection) ResetInputBuffer() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = nil
	return nil
}

// ResetOutputBuffer is a no-op; each Write is sent as one message
func (w *WebSocketConnection) ResetOutputBuffer() error {
	return nil
}

func (w *WebSocketConnection) Close() error {
	err := w.conn.Close()
	<-w.done
	return err
}

// simulatedConnection adapts the in-memory simulator to Connection
type simulatedConnection struct {
	*mac50.Simulator
}

func (simulatedConnection) Close() error { return nil }

// OpenSerialConnection opens a serial port in MacTalk's 8N1 framing
func OpenSerialConnection(portName string, baudRate int, timeout time.Duration) (Connection, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}

	return &SerialConnection{port: port}, nil
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool, timeout time.Duration) (Connection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return newWebSocketConnection(conn, timeout), nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("MACSTAT_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenConnection opens a simulated, WebSocket or serial connection based on config
func OpenConnection(c *config.Config, table *registers.Table) (Connection, string, error) {
	if c.Device.Simulate {
		sim, err := newSimulatedMotor(uint8(c.Device.Address), table)
		if err != nil {
			return nil, "", err
		}
		return simulatedConnection{sim}, "Simulated motor", nil
	}

	if c.WebSocket.URL != "" {
		password := ""
		if c.WebSocket.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := OpenWebSocketConnection(c.WebSocket.URL, c.WebSocket.Username, password,
			c.WebSocket.NoSSLVerify, c.Serial.Timeout)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("WebSocket: %s", c.WebSocket.URL), nil
	}

	if c.Serial.Port != "" {
		conn, err := OpenSerialConnection(c.Serial.Port, c.Serial.Baud, c.Serial.Timeout)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", c.Serial.Port, c.Serial.Baud), nil
	}

	return nil, "", fmt.Errorf("one of --port, --url or --simulate must be specified")
}

// newSimulatedMotor returns a simulator preloaded with plausible readings
func newSimulatedMotor(address uint8, table *registers.Table) (*mac50.Simulator, error) {
	sim := mac50.NewSimulator(address, table)
	initial := []struct {
		name  string
		value int64
	}{
		{"MODE_REG", int64(mac50.ModePassive)},
		{"STARTMODE", int64(mac50.ModePassive)},
		{"V_SOLL", 1000},
		{"A_SOLL", 50},
		{"T_SOLL", 1023},
		{"GEARF1", 1},
		{"GEARF2", 1},
		{"MIN_P_IST", -100000},
		{"MAX_P_IST", 100000},
		{"P_IST", 1200},
		{"P_SOLL", 1200},
		{"U_SUPPLY", 480},
		{"MIN_U_SUP", 100},
		{"MOTORTYPE", 1},
		{"SERIALNUMBER", 50123},
		{"HWVERSION", 3},
		{"MYADDR", int64(address)},
	}
	for _, r := range initial {
		// custom tables may omit registers
		if _, err := table.Lookup(registers.Name(r.name)); err != nil {
			continue
		}
		if err := sim.Set(registers.Name(r.name), r.value); err != nil {
			return nil, err
		}
	}
	return sim, nil
}

// loadTable returns the configured register table, or the built-in one
func loadTable(c *config.Config) (*registers.Table, error) {
	if c.Device.Registers == "" {
		return registers.Default(), nil
	}
	return registers.LoadFile(c.Device.Registers)
}

// withDevice opens the connection, runs fn against a device handle and
// always closes the connection afterwards
func withDevice(fn func(d *mac50.Device) error, opts ...mac50.Option) error {
	address, err := mac50.ParseAddress(cfg.Device.Address)
	if err != nil {
		return err
	}
	table, err := loadTable(cfg)
	if err != nil {
		return err
	}
	conn, connInfo, err := OpenConnection(cfg, table)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Debug("connected", zap.String("connection", connInfo), zap.Int("address", cfg.Device.Address))
	opts = append([]mac50.Option{mac50.WithLogger(logger)}, opts...)
	d := mac50.New(conn, address, table, opts...)
	return fn(d)
}
