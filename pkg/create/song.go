// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

package create

import (
	"context"

	"github.com/wheelworks/createlink/pkg/oi"
)

// SongRecord stores a song in one of the robot's sixteen slots. The song
// must fit a single slot; use SongSequenceRecord for longer scores.
func (r *Robot) SongRecord(slot int, song *oi.Song) error {
	cmd, err := oi.SongRecord(slot, song.Score())
	if err != nil {
		return err
	}
	return r.send(cmd)
}

// SongSequenceRecord splits a long score across consecutive slots starting
// at startSlot and returns the slots used, in playback order.
func (r *Robot) SongSequenceRecord(startSlot int, song *oi.Song) ([]int, error) {
	chunks := song.Split()
	if startSlot < 0 || startSlot+len(chunks) > oi.SongMaxSlots {
		return nil, &oi.CapacityError{What: "song slots", Size: startSlot + len(chunks), Max: oi.SongMaxSlots}
	}
	var slots []int
	for i, chunk := range chunks {
		cmd, err := oi.SongRecord(startSlot+i, chunk)
		if err != nil {
			return nil, err
		}
		if err := r.send(cmd); err != nil {
			return nil, err
		}
		slots = append(slots, startSlot+i)
	}
	return slots, nil
}

// SongPlay starts playback of a stored song and returns immediately.
func (r *Robot) SongPlay(slot int) error {
	cmd, err := oi.SongPlay(slot)
	if err != nil {
		return err
	}
	return r.send(cmd)
}

// SongPlaySync plays a stored song and blocks until the robot reports
// playback finished or the context is done. A running telemetry stream is
// paused for the duration so the song-playing polls read clean replies.
func (r *Robot) SongPlaySync(ctx context.Context, slot int) error {
	wasStreaming := r.Streaming()
	if wasStreaming {
		if err := r.StreamPause(); err != nil {
			return err
		}
	}

	err := r.songPlaySync(ctx, slot)

	if wasStreaming {
		if resumeErr := r.StreamResume(); err == nil {
			err = resumeErr
		}
	}
	return err
}

func (r *Robot) songPlaySync(ctx context.Context, slot int) error {
	if err := r.SongPlay(slot); err != nil {
		return err
	}
	// let the playing flag go high before polling for it to drop
	r.clk.Sleep(songPollInterval)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		playing, err := r.GetScalar(oi.PacketSongPlaying)
		if err != nil {
			return err
		}
		if playing == 0 {
			return nil
		}
		r.clk.Sleep(songPollInterval)
	}
}

// SongSequencePlay plays the given slots back to back, blocking until the
// last one finishes or the context is done.
func (r *Robot) SongSequencePlay(ctx context.Context, slots []int) error {
	for _, slot := range slots {
		if err := r.SongPlaySync(ctx, slot); err != nil {
			return err
		}
	}
	return nil
}
