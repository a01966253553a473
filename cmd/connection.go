// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Wheelworks Robotics

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/edaniels/golog"
	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"

	"github.com/wheelworks/createlink/pkg/create"
)

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = fmt.Errorf("websocket connection closed")

// WebSocketTransport carries the robot's serial bytes over a WebSocket
// bridge. Binary messages map to byte chunks; the buffer-control methods
// operate on the local reassembly buffer since the bridge exposes no
// hardware buffers.
type WebSocketTransport struct {
	conn        *websocket.Conn
	buf         []byte
	bufOffset   int
	readTimeout time.Duration
	closed      bool
}

func (w *WebSocketTransport) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrConnectionClosed
	}

	// Serve buffered bytes first
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	if w.readTimeout > 0 {
		if err := w.conn.SetReadDeadline(time.Now().Add(w.readTimeout)); err != nil {
			return 0, err
		}
	} else {
		if err := w.conn.SetReadDeadline(time.Time{}); err != nil {
			return 0, err
		}
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			// a deadline expiry behaves like a serial read timeout
			if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
				return 0, nil
			}
			w.closed = true
			return 0, err
		}

		// Only binary messages carry robot bytes
		if messageType != websocket.BinaryMessage {
			continue
		}

		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *WebSocketTransport) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketTransport) Close() error {
	return w.conn.Close()
}

func (w *WebSocketTransport) SetReadTimeout(d time.Duration) error {
	w.readTimeout = d
	return nil
}

func (w *WebSocketTransport) ResetInputBuffer() error {
	w.buf = nil
	w.bufOffset = 0
	return nil
}

func (w *WebSocketTransport) Drain() error { return nil }

// OpenSerialTransport opens a serial port with the robot's framing
// (8 data bits, no parity, one stop bit).
func OpenSerialTransport(portName string, baudRate int) (create.Transport, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", portName, err)
	}

	return port, nil
}

// OpenWebSocketTransport opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketTransport(wsURL, username, password string, skipSSLVerify bool) (create.Transport, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
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
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	return &WebSocketTransport{conn: conn}, nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("CREATELINK_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenTransport opens either a serial or WebSocket transport based on flags
func OpenTransport() (create.Transport, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		tr, err := OpenWebSocketTransport(wsURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}

		return tr, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if portName != "" {
		tr, err := OpenSerialTransport(portName, baudRate)
		if err != nil {
			return nil, "", err
		}
		return tr, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil
	}

	return nil, "", fmt.Errorf("no connection specified: use --port or --url")
}

func newLogger() golog.Logger {
	if verbose {
		return golog.NewDebugLogger("createlink")
	}
	return golog.NewLogger("createlink")
}

// openRobot opens the transport and brings the command interface up.
func openRobot() (*create.Robot, string, error) {
	tr, info, err := OpenTransport()
	if err != nil {
		return nil, "", err
	}
	robot := create.NewRobot(tr, create.WithLogger(newLogger()))
	if err := robot.Start(); err != nil {
		tr.Close()
		return nil, "", err
	}
	return robot, info, nil
}
