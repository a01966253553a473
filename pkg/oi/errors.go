// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

package oi

import "fmt"

// RangeError reports a parameter outside the device-accepted bounds. It is
// always raised before any bytes are transmitted.
type RangeError struct {
	What  string
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("oi: %s %d out of range [%d, %d]", e.What, e.Value, e.Min, e.Max)
}

// DecodeError reports a reply whose byte count does not match the fixed size
// declared for the requested packet id.
type DecodeError struct {
	ID   PacketID
	Want int
	Got  int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("oi: packet %d: got %d bytes, want %d", e.ID, e.Got, e.Want)
}

// CapacityError reports data that does not fit a fixed-size device buffer.
type CapacityError struct {
	What string
	Size int
	Max  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("oi: %s is %d bytes, device accepts at most %d", e.What, e.Size, e.Max)
}

// ProtocolError reports an operation attempted with an unmet precondition,
// or bytes that cannot be interpreted as the protocol element expected.
type ProtocolError struct {
	Op     string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("oi: %s: %s", e.Op, e.Reason)
}

// TimeoutError reports a synchronous exchange that produced fewer reply
// bytes than expected before the transport's read timeout elapsed. The
// partial data is still returned to the caller alongside the error.
type TimeoutError struct {
	Op   string
	Want int
	Got  int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("oi: %s timed out after %d of %d bytes", e.Op, e.Got, e.Want)
}
