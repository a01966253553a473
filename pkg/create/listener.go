// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

package create

import (
	"time"

	"github.com/wheelworks/createlink/pkg/oi"
)

const listenerReadTimeout = 20 * time.Millisecond

// StreamPackets asks the robot to stream the given packets every 15ms and
// starts the background listener. Completed frames are delivered on
// Frames. While the listener is already up, calling it again only changes
// which packets the robot sends; the receiver keeps running.
func (r *Robot) StreamPackets(ids ...oi.PacketID) error {
	for _, id := range ids {
		if !id.Valid() {
			return &oi.RangeError{What: "packet id", Value: int(id), Min: 0, Max: int(oi.PacketMax)}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listening {
		if err := r.sendLocked(oi.StreamSensors(ids...)); err != nil {
			return err
		}
		r.streaming = true
		return nil
	}
	if err := r.tr.SetReadTimeout(listenerReadTimeout); err != nil {
		return err
	}
	if err := r.sendLocked(oi.StreamSensors(ids...)); err != nil {
		return err
	}

	r.frames = make(chan *oi.StreamFrame, 1)
	r.stopStream = make(chan struct{})
	r.streamDone = make(chan struct{})
	r.stats.Reset()
	r.streaming = true
	r.listening = true
	r.workers.Add(1)
	go r.listen(r.frames, r.stopStream, r.streamDone)
	return nil
}

// StreamPause keeps the stream configured on the robot but silences it.
// The listener stays up, so StreamResume picks frames back up without a
// reconfigure.
func (r *Robot) StreamPause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.streaming {
		return nil
	}
	if err := r.sendLocked(oi.StreamPauseResume(false)); err != nil {
		return err
	}
	r.streaming = false
	return nil
}

// StreamResume restarts a paused stream.
func (r *Robot) StreamResume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.streaming {
		return nil
	}
	if err := r.sendLocked(oi.StreamPauseResume(true)); err != nil {
		return err
	}
	r.streaming = true
	return nil
}

// StreamShutdown pauses the stream and stops the listener, closing Frames.
// It joins the listener goroutine before returning, so a StreamPackets
// call right after cannot race an old reader still draining the
// transport. It is safe to call repeatedly.
func (r *Robot) StreamShutdown() {
	r.mu.Lock()
	if !r.listening {
		r.mu.Unlock()
		return
	}
	if err := r.sendLocked(oi.StreamPauseResume(false)); err != nil {
		r.logger.Debugw("stream pause on shutdown failed", "error", err)
	}
	r.streaming = false
	r.listening = false
	close(r.stopStream)
	done := r.streamDone
	r.mu.Unlock()
	<-done
}

// Streaming reports whether the robot is currently emitting stream frames.
func (r *Robot) Streaming() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.streaming
}

// Frames is the decoded telemetry channel. It carries at most one pending
// frame; when the consumer lags, older frames are replaced by newer ones.
// The channel is closed when the listener stops.
func (r *Robot) Frames() <-chan *oi.StreamFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Statistics returns a snapshot of the stream decode counters.
func (r *Robot) Statistics() oi.Statistics {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.CalculateRates()
	return *r.stats
}

// listen pulls bytes off the transport and feeds the frame decoder until
// the robot shuts down. Frames land in out with replace-latest semantics.
func (r *Robot) listen(out chan *oi.StreamFrame, stop <-chan struct{}, done chan<- struct{}) {
	defer r.workers.Done()
	defer close(done)
	defer close(out)

	decoder := oi.NewStreamDecoder()
	buf := make([]byte, 256)
	for {
		select {
		case <-r.cancelCtx.Done():
			return
		case <-stop:
			return
		default:
		}

		n, err := r.tr.Read(buf)
		if err != nil {
			r.logger.Debugw("stream read failed", "error", err)
			return
		}
		if n == 0 { // read timeout, poll the shutdown signal again
			continue
		}

		r.mu.Lock()
		r.stats.AddBytes(n)
		r.mu.Unlock()

		for _, b := range buf[:n] {
			frame, err := decoder.DecodeByte(b)
			if err != nil {
				r.logger.Debugw("stream decode error", "error", err)
			}
			if frame == nil && err == nil {
				continue
			}

			r.mu.Lock()
			r.stats.Update(frame, err)
			r.mu.Unlock()
			if frame == nil {
				continue
			}

			select {
			case out <- frame:
			default:
				select { // replace the stale frame
				case <-out:
				default:
				}
				select {
				case out <- frame:
				default:
				}
			}
		}
	}
}
