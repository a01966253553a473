// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

package oi

// Script accumulates commands to be stored on the robot and replayed
// autonomously, independently of the live command link.
type Script struct {
	commands []Command
}

// NewScript builds a script from the given commands.
func NewScript(cmds ...Command) *Script {
	s := &Script{}
	s.Add(cmds...)
	return s
}

// Add appends commands to the script.
func (s *Script) Add(cmds ...Command) {
	s.commands = append(s.commands, cmds...)
}

// Commands returns the script's commands in order.
func (s *Script) Commands() []Command {
	return s.commands
}

// Len returns the encoded byte length of the script body.
func (s *Script) Len() int {
	n := 0
	for _, c := range s.commands {
		n += len(c)
	}
	return n
}

// Bytes returns the concatenated script body.
func (s *Script) Bytes() []byte {
	buf := make([]byte, 0, s.Len())
	for _, c := range s.commands {
		buf = append(buf, c...)
	}
	return buf
}

// DefineScript returns the command storing the script on the robot, wrapping
// the concatenated body with the define opcode and its length prefix. The
// encoded body must fit the device's script buffer.
func DefineScript(s *Script) (Command, error) {
	body := s.Bytes()
	if len(body) > ScriptMaxBytes {
		return nil, &CapacityError{What: "script", Size: len(body), Max: ScriptMaxBytes}
	}
	cmd := Command{OpScriptDefine, byte(len(body))}
	return append(cmd, body...), nil
}

// commandParamLen maps fixed-parameter opcodes to their parameter byte
// counts. Length-prefixed opcodes are handled separately by ParseCommands.
var commandParamLen = map[byte]int{
	OpStart:             0,
	OpSoftReset:         0,
	byte(ModeSafe):      0,
	byte(ModeFull):      0,
	OpDrive:             4,
	OpDriveDirect:       4,
	OpLeds:              3,
	OpDigitalOutputs:    1,
	OpLowSideDrivers:    1,
	OpPWMLowSideDrivers: 3,
	OpSendIR:            1,
	OpReadSensors:       1,
	OpStreamPauseResume: 1,
	OpScriptPlay:        0,
	OpScriptShow:        0,
	OpWaitTime:          1,
	OpWaitDistance:      2,
	OpWaitAngle:         2,
	OpWaitEvent:         1,
	OpSongPlay:          1,
}

// ParseCommands splits an encoded command sequence (typically a script body)
// back into its individual commands. It understands every fixed-layout
// command plus the length-prefixed sensor-list, script and song commands.
func ParseCommands(data []byte) ([]Command, error) {
	var cmds []Command
	for pos := 0; pos < len(data); {
		op := data[pos]
		var size int
		switch op {
		case OpReadSensorList, OpStreamSensorList, OpScriptDefine:
			if pos+1 >= len(data) {
				return nil, &ProtocolError{Op: "parse commands", Reason: "truncated length prefix"}
			}
			size = 2 + int(data[pos+1])
		case OpSongRecord:
			if pos+2 >= len(data) {
				return nil, &ProtocolError{Op: "parse commands", Reason: "truncated song header"}
			}
			size = 3 + 2*int(data[pos+2])
		default:
			n, ok := commandParamLen[op]
			if !ok {
				return nil, &ProtocolError{Op: "parse commands", Reason: "unknown opcode"}
			}
			size = 1 + n
		}
		if pos+size > len(data) {
			return nil, &ProtocolError{Op: "parse commands", Reason: "truncated command"}
		}
		cmd := make(Command, size)
		copy(cmd, data[pos:pos+size])
		cmds = append(cmds, cmd)
		pos += size
	}
	return cmds, nil
}
