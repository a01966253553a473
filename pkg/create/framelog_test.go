// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

package create

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/wheelworks/createlink/pkg/oi"
)

func TestFrameLogRoundTrip(t *testing.T) {
	frames := []*oi.StreamFrame{
		{
			Timestamp: time.Unix(1700000000, 123),
			Checksum:  0xB6,
			Packets: []oi.StreamPacket{
				{ID: oi.PacketBumpsAndWheelDrops, Data: []byte{0x03}},
				{ID: oi.PacketDistance, Data: []byte{0xFE, 0xD4}},
			},
		},
		{
			Timestamp: time.Unix(1700000001, 0),
			Checksum:  0x00,
			Packets:   []oi.StreamPacket{{ID: oi.PacketWall, Data: []byte{1}}},
		},
	}

	var buf bytes.Buffer
	w := NewFrameLogWriter(&buf)
	for _, frame := range frames {
		if err := w.Write(frame); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	r := NewFrameLogReader(&buf)
	for i, want := range frames {
		got, err := r.Read()
		if err != nil {
			t.Fatalf("Read %d: %v", i, err)
		}
		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("frame %d timestamp = %v, want %v", i, got.Timestamp, want.Timestamp)
		}
		if got.Checksum != want.Checksum {
			t.Errorf("frame %d checksum = 0x%02X", i, got.Checksum)
		}
		if len(got.Packets) != len(want.Packets) {
			t.Fatalf("frame %d has %d packets, want %d", i, len(got.Packets), len(want.Packets))
		}
		for j, p := range want.Packets {
			if got.Packets[j].ID != p.ID || !bytes.Equal(got.Packets[j].Data, p.Data) {
				t.Errorf("frame %d packet %d = %+v, want %+v", i, j, got.Packets[j], p)
			}
		}
	}

	if _, err := r.Read(); !errors.Is(err, io.EOF) {
		t.Errorf("Read past end = %v, want io.EOF", err)
	}
}

func TestFrameLogReaderGarbage(t *testing.T) {
	r := NewFrameLogReader(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF}))
	if _, err := r.Read(); err == nil || errors.Is(err, io.EOF) {
		t.Errorf("Read on garbage = %v, want a decode error", err)
	}
}
