// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

package oi

import (
	"errors"
	"testing"
)

// feed runs a byte slice through the decoder and collects completed frames
// and errors.
func feed(d *StreamDecoder, data []byte) ([]*StreamFrame, []error) {
	var frames []*StreamFrame
	var errs []error
	for _, b := range data {
		frame, err := d.DecodeByte(b)
		if err != nil {
			errs = append(errs, err)
		}
		if frame != nil {
			frames = append(frames, frame)
		}
	}
	return frames, errs
}

func TestStreamDecoderSingleFrame(t *testing.T) {
	// [19][5][29][2-byte cliff signal][13][virtual wall][checksum]
	data := []byte{StreamHeader, 5, 29, 0x02, 0x19, 13, 0, 0xB6}

	frames, errs := feed(NewStreamDecoder(), data)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}

	frame := frames[0]
	if len(frame.Packets) != 2 {
		t.Fatalf("got %d packets, want 2", len(frame.Packets))
	}
	if frame.Packets[0].ID != PacketCliffFrontLeftSignal {
		t.Errorf("packet 0 id = %d, want 29", frame.Packets[0].ID)
	}
	if v, err := DecodeScalar(frame.Packets[0].ID, frame.Packets[0].Data); err != nil || v != 537 {
		t.Errorf("cliff signal = %d (err %v), want 537", v, err)
	}
	if frame.Packets[1].ID != PacketVirtualWall {
		t.Errorf("packet 1 id = %d, want 13", frame.Packets[1].ID)
	}
	if frame.Checksum != 0xB6 {
		t.Errorf("checksum = 0x%02X, want 0xB6", frame.Checksum)
	}
	if frame.Timestamp.IsZero() {
		t.Error("frame timestamp not set")
	}
}

func TestStreamDecoderBadChecksumStillDelivers(t *testing.T) {
	// checksum byte is recorded, never verified
	data := []byte{StreamHeader, 2, 7, 0x03, 0x00}

	frames, errs := feed(NewStreamDecoder(), data)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0].Packets[0].Data[0] != 0x03 {
		t.Errorf("payload = 0x%02X", frames[0].Packets[0].Data[0])
	}
}

func TestStreamDecoderSkipsGarbage(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, StreamHeader, 2, 7, 0x01, 0x00}

	frames, errs := feed(NewStreamDecoder(), data)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
}

func TestStreamDecoderBackToBackFrames(t *testing.T) {
	frame := []byte{StreamHeader, 2, 7, 0x00, 0x00}
	data := append(append([]byte{}, frame...), frame...)

	frames, errs := feed(NewStreamDecoder(), data)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
}

func TestStreamDecoderUnknownPacketID(t *testing.T) {
	d := NewStreamDecoder()
	data := []byte{StreamHeader, 2, 200, 0x00, 0x00}

	_, errs := feed(d, data)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	var protoErr *ProtocolError
	if !errors.As(errs[0], &protoErr) {
		t.Fatalf("error = %v, want ProtocolError", errs[0])
	}

	// decoder resynchronizes on the next header
	frames, errs := feed(d, []byte{StreamHeader, 2, 7, 0x00, 0x00})
	if len(errs) != 0 || len(frames) != 1 {
		t.Fatalf("after resync: %d frames, errs %v", len(frames), errs)
	}
}

func TestStreamDecoderTruncatedFrameLength(t *testing.T) {
	// declared length 2 but packet 19 needs 1 id + 2 data bytes
	data := []byte{StreamHeader, 2, 19, 0x00, 0x00}

	d := NewStreamDecoder()
	_, errs := feed(d, data)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	var protoErr *ProtocolError
	if !errors.As(errs[0], &protoErr) {
		t.Fatalf("error = %v, want ProtocolError", errs[0])
	}
}

func TestStreamDecoderZeroLength(t *testing.T) {
	d := NewStreamDecoder()
	if _, err := d.DecodeByte(StreamHeader); err != nil {
		t.Fatalf("header byte: %v", err)
	}
	if _, err := d.DecodeByte(0); err == nil {
		t.Fatal("zero-length frame should fail")
	}
}

func TestStreamDecoderReset(t *testing.T) {
	d := NewStreamDecoder()
	feed(d, []byte{StreamHeader, 5, 29, 0x02}) // mid-frame
	d.Reset()

	frames, errs := feed(d, []byte{StreamHeader, 2, 7, 0x00, 0x00})
	if len(errs) != 0 || len(frames) != 1 {
		t.Fatalf("after reset: %d frames, errs %v", len(frames), errs)
	}
}

func TestStatisticsUpdate(t *testing.T) {
	stats := NewStatistics()
	stats.AddBytes(8)

	frame := &StreamFrame{
		Packets: []StreamPacket{{ID: PacketWall, Data: []byte{1}}},
	}
	stats.Update(frame, nil)
	stats.Update(nil, &ProtocolError{Op: "stream decode", Reason: "unknown packet id"})

	if stats.TotalBytes != 8 {
		t.Errorf("TotalBytes = %d, want 8", stats.TotalBytes)
	}
	if stats.TotalFrames != 1 || stats.TotalPackets != 1 {
		t.Errorf("frames/packets = %d/%d, want 1/1", stats.TotalFrames, stats.TotalPackets)
	}
	if stats.DecodeErrors != 1 {
		t.Errorf("DecodeErrors = %d, want 1", stats.DecodeErrors)
	}
}
