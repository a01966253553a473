// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

package create

import (
	"github.com/wheelworks/createlink/pkg/oi"
)

// GetSensorPacket requests one sensor packet and returns its raw payload.
// A short reply returns the bytes that did arrive alongside an
// oi.TimeoutError. While the telemetry stream is running the reply bytes
// interleave with stream frames; pause the stream before querying.
func (r *Robot) GetSensorPacket(id oi.PacketID) ([]byte, error) {
	cmd, err := oi.Sensors(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.sendLocked(cmd); err != nil {
		return nil, err
	}
	return r.readReply("read sensors", id.Size())
}

// GetSensorList requests several packets in one round trip and returns the
// payloads in request order. A short reply returns the complete leading
// payloads alongside an oi.TimeoutError.
func (r *Robot) GetSensorList(ids ...oi.PacketID) ([][]byte, error) {
	for _, id := range ids {
		if !id.Valid() {
			return nil, &oi.RangeError{What: "packet id", Value: int(id), Min: 0, Max: int(oi.PacketMax)}
		}
	}
	want := 0
	for _, id := range ids {
		want += id.Size()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.sendLocked(oi.QueryList(ids...)); err != nil {
		return nil, err
	}
	data, err := r.readReply("query list", want)

	var payloads [][]byte
	for _, id := range ids {
		n := id.Size()
		if len(data) < n {
			break
		}
		payloads = append(payloads, data[:n])
		data = data[n:]
	}
	return payloads, err
}

// readReply reads one complete reply and then clears the input buffer so a
// late straggler cannot corrupt the next query.
func (r *Robot) readReply(op string, want int) ([]byte, error) {
	data, err := r.readBytes(op, want)
	if resetErr := r.tr.ResetInputBuffer(); resetErr != nil {
		r.logger.Debugw("input buffer reset failed", "error", resetErr)
	}
	return data, err
}

// readBytes reads exactly want bytes or as many as arrive before the read
// timeout, reporting a short read as an oi.TimeoutError.
func (r *Robot) readBytes(op string, want int) ([]byte, error) {
	if err := r.tr.SetReadTimeout(r.readTimeout); err != nil {
		return nil, err
	}
	buf := make([]byte, want)
	got := 0
	for got < want {
		n, err := r.tr.Read(buf[got:])
		if err != nil {
			return buf[:got], err
		}
		if n == 0 { // read timeout
			break
		}
		got += n
	}
	if got < want {
		return buf[:got], &oi.TimeoutError{Op: op, Want: want, Got: got}
	}
	return buf, nil
}

// GetGroup requests a packet and decodes it: a typed group record for ids
// 0-6, an int for individual sensors.
func (r *Robot) GetGroup(id oi.PacketID) (interface{}, error) {
	data, err := r.GetSensorPacket(id)
	if err != nil {
		return nil, err
	}
	return oi.DecodeGroup(id, data)
}

// GetScalar requests and decodes one individual sensor value.
func (r *Robot) GetScalar(id oi.PacketID) (int, error) {
	data, err := r.GetSensorPacket(id)
	if err != nil {
		return 0, err
	}
	return oi.DecodeScalar(id, data)
}

// GetButtons reports the currently pressed buttons.
func (r *Robot) GetButtons() ([]oi.Button, error) {
	v, err := r.GetScalar(oi.PacketButtons)
	if err != nil {
		return nil, err
	}
	return oi.DecodeButtons(byte(v)), nil
}

// GetBumpers reports the currently pressed bumper sides.
func (r *Robot) GetBumpers() ([]oi.Bumper, error) {
	v, err := r.GetScalar(oi.PacketBumpsAndWheelDrops)
	if err != nil {
		return nil, err
	}
	return oi.DecodeBumpers(byte(v)), nil
}

// GetWheelDrops reports the currently dropped wheels and caster.
func (r *Robot) GetWheelDrops() ([]oi.WheelDrop, error) {
	v, err := r.GetScalar(oi.PacketBumpsAndWheelDrops)
	if err != nil {
		return nil, err
	}
	return oi.DecodeWheelDrops(byte(v)), nil
}
