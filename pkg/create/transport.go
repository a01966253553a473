// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

// Package create drives an iRobot Create over its serial command protocol:
// command encoding, synchronous sensor queries, the background telemetry
// stream and song and script playback.
package create

import (
	"io"
	"time"
)

// Transport is the byte channel to the robot. go.bug.st/serial ports
// satisfy it directly; other carriers (a serial-over-WebSocket bridge, a
// loopback for tests) implement the buffer-control methods as no-ops where
// the underlying channel has no such notion.
type Transport interface {
	io.Reader
	io.Writer
	io.Closer

	// SetReadTimeout bounds how long a Read blocks. A timed-out Read
	// returns (0, nil).
	SetReadTimeout(d time.Duration) error

	// ResetInputBuffer discards bytes received but not yet read.
	ResetInputBuffer() error

	// Drain blocks until queued output has been transmitted.
	Drain() error
}
