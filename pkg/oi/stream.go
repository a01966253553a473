// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

package oi

import "time"

// StreamPacket is one (packet id, payload) pair carried by a stream frame.
type StreamPacket struct {
	ID   PacketID
	Data []byte
}

// StreamFrame is one complete telemetry batch emitted by the robot while
// streaming: [19][total_len][(id, payload)+][checksum].
//
// The trailing checksum byte is consumed and recorded but never verified.
// Callers that want stricter delivery can check it themselves.
type StreamFrame struct {
	Packets   []StreamPacket
	Checksum  byte
	Timestamp time.Time
}

// StreamDecoder implements the byte-level framing state machine for the
// telemetry stream. Feed it one byte at a time; garbage between frames is
// discarded and the decoder re-synchronizes on the next header byte.
type StreamDecoder struct {
	state     int
	frame     *StreamFrame
	remaining int // id+payload bytes left in the frame
	pktID     PacketID
	pktData   []byte
	pktLeft   int
}

// NewStreamDecoder creates a stream frame decoder.
func NewStreamDecoder() *StreamDecoder {
	return &StreamDecoder{state: stateIdle}
}

// Reset returns the decoder to idle, dropping any frame in progress.
func (d *StreamDecoder) Reset() {
	d.state = stateIdle
	d.frame = nil
	d.remaining = 0
	d.pktID = 0
	d.pktData = nil
	d.pktLeft = 0
}

// DecodeByte processes a single byte through the state machine. It returns a
// completed frame, or nil while the frame is incomplete. A malformed frame
// returns an error and resets the decoder; the next header byte starts a
// fresh frame.
func (d *StreamDecoder) DecodeByte(b byte) (*StreamFrame, error) {
	switch d.state {
	case stateIdle:
		if b == StreamHeader {
			d.frame = &StreamFrame{}
			d.state = stateGotHeader
		}
		return nil, nil

	case stateGotHeader:
		d.remaining = int(b)
		if d.remaining == 0 {
			d.Reset()
			return nil, &ProtocolError{Op: "stream decode", Reason: "empty frame"}
		}
		d.state = stateGotLength
		return nil, nil

	case stateGotLength:
		id := PacketID(b)
		if !id.Valid() {
			d.Reset()
			return nil, &ProtocolError{Op: "stream decode", Reason: "unknown packet id"}
		}
		d.pktID = id
		d.pktLeft = id.Size()
		d.pktData = make([]byte, 0, d.pktLeft)
		d.remaining--
		if d.remaining < d.pktLeft {
			d.Reset()
			return nil, &ProtocolError{Op: "stream decode", Reason: "frame length shorter than packet"}
		}
		d.state = stateInPacket
		return nil, nil

	case stateInPacket:
		d.pktData = append(d.pktData, b)
		d.remaining--
		d.pktLeft--
		if d.pktLeft == 0 {
			d.frame.Packets = append(d.frame.Packets, StreamPacket{ID: d.pktID, Data: d.pktData})
			if d.remaining == 0 {
				d.state = stateInChecksum
			} else {
				d.state = stateGotLength
			}
		}
		return nil, nil

	case stateInChecksum:
		frame := d.frame
		frame.Checksum = b
		frame.Timestamp = time.Now()
		d.Reset()
		return frame, nil

	default:
		d.Reset()
		return nil, &ProtocolError{Op: "stream decode", Reason: "invalid state"}
	}
}
