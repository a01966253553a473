// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

package create

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/wheelworks/createlink/pkg/oi"
)

// loggedPacket is the wire form of one sensor packet in a frame log.
type loggedPacket struct {
	ID   byte   `cbor:"1,keyasint"`
	Data []byte `cbor:"2,keyasint"`
}

// loggedFrame is the wire form of one telemetry frame in a frame log. The
// timestamp is Unix nanoseconds so logs are comparable across hosts.
type loggedFrame struct {
	Timestamp int64          `cbor:"1,keyasint"`
	Checksum  byte           `cbor:"2,keyasint"`
	Packets   []loggedPacket `cbor:"3,keyasint"`
}

// FrameLogWriter records telemetry frames as a CBOR sequence for later
// replay or analysis.
type FrameLogWriter struct {
	enc *cbor.Encoder
}

// NewFrameLogWriter wraps w in a frame recorder.
func NewFrameLogWriter(w io.Writer) *FrameLogWriter {
	return &FrameLogWriter{enc: cbor.NewEncoder(w)}
}

// Write appends one frame to the log.
func (fw *FrameLogWriter) Write(frame *oi.StreamFrame) error {
	rec := loggedFrame{
		Timestamp: frame.Timestamp.UnixNano(),
		Checksum:  frame.Checksum,
		Packets:   make([]loggedPacket, 0, len(frame.Packets)),
	}
	for _, p := range frame.Packets {
		rec.Packets = append(rec.Packets, loggedPacket{ID: byte(p.ID), Data: p.Data})
	}
	if err := fw.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return nil
}

// FrameLogReader replays a frame log written by FrameLogWriter.
type FrameLogReader struct {
	dec *cbor.Decoder
}

// NewFrameLogReader wraps r in a frame log reader.
func NewFrameLogReader(r io.Reader) *FrameLogReader {
	return &FrameLogReader{dec: cbor.NewDecoder(r)}
}

// Read returns the next recorded frame, or io.EOF at the end of the log.
func (fr *FrameLogReader) Read() (*oi.StreamFrame, error) {
	var rec loggedFrame
	if err := fr.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	frame := &oi.StreamFrame{
		Timestamp: time.Unix(0, rec.Timestamp),
		Checksum:  rec.Checksum,
	}
	for _, p := range rec.Packets {
		frame.Packets = append(frame.Packets, oi.StreamPacket{ID: oi.PacketID(p.ID), Data: p.Data})
	}
	return frame, nil
}
