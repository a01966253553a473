// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

package create

import (
	"github.com/wheelworks/createlink/pkg/oi"
)

// DefineScript uploads a script to the robot's single script buffer,
// replacing whatever was there.
func (r *Robot) DefineScript(s *oi.Script) error {
	cmd, err := oi.DefineScript(s)
	if err != nil {
		return err
	}
	return r.send(cmd)
}

// PlayScript runs the stored script. The robot stops answering commands
// until the script finishes, so this returns immediately rather than
// waiting.
func (r *Robot) PlayScript() error {
	return r.send(oi.PlayScript())
}

// GetScript reads the stored script back and parses it into commands.
// While the telemetry stream is running the reply interleaves with stream
// frames; pause the stream before calling.
func (r *Robot) GetScript() ([]oi.Command, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.sendLocked(oi.Command{oi.OpScriptShow}); err != nil {
		return nil, err
	}

	header, err := r.readBytes("show script", 1)
	if err != nil {
		return nil, err
	}
	n := int(header[0])
	if n == 0 {
		return nil, nil
	}
	body, err := r.readReply("show script", n)
	if err != nil {
		return nil, err
	}
	return oi.ParseCommands(body)
}
