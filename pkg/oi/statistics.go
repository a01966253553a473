// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

package oi

import (
	"fmt"
	"time"
)

// Statistics tracks stream decoding counters and rates.
type Statistics struct {
	StartTime      time.Time
	LastFrameTime  time.Time

	// Counters
	TotalBytes   uint64
	TotalFrames  uint64
	TotalPackets uint64
	DecodeErrors uint64
	ShortReads   uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ByteRate  float64 // bytes/sec
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{StartTime: now, LastFrameTime: now}
}

// Update records one completed frame or decode error.
func (s *Statistics) Update(frame *StreamFrame, decodeErr error) {
	if decodeErr != nil {
		s.DecodeErrors++
		return
	}
	if frame == nil {
		return
	}
	s.TotalFrames++
	s.TotalPackets += uint64(len(frame.Packets))
	s.LastFrameTime = frame.Timestamp
}

// AddBytes records raw bytes consumed from the link.
func (s *Statistics) AddBytes(n int) {
	s.TotalBytes += uint64(n)
}

// CalculateRates refreshes the frame and byte rates.
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ByteRate = float64(s.TotalBytes) / elapsed
	}
}

// String returns a formatted statistics summary.
func (s *Statistics) String() string {
	s.CalculateRates()

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Stream statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Frames:        %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Packets:       %8d\n", s.TotalPackets)
	result += fmt.Sprintf("Bytes:         %8d\n", s.TotalBytes)
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors: %8d\n", s.DecodeErrors)
	}
	if s.ShortReads > 0 {
		result += fmt.Sprintf("Short Reads:   %8d\n", s.ShortReads)
	}
	result += fmt.Sprintf("Frame Rate:    %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Byte Rate:     %8.1f bytes/sec\n", s.ByteRate)
	result += "=======================================\n"

	return result
}

// Reset clears every counter and restarts the clock.
func (s *Statistics) Reset() {
	now := time.Now()
	s.StartTime = now
	s.LastFrameTime = now
	s.TotalBytes = 0
	s.TotalFrames = 0
	s.TotalPackets = 0
	s.DecodeErrors = 0
	s.ShortReads = 0
	s.FrameRate = 0
	s.ByteRate = 0
}
