// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

package oi

// Command builders turn a logical operation into the exact byte sequence the
// robot expects. Commands are pure values: one opcode byte followed by a
// fixed or length-prefixed parameter list. 16-bit parameters are big-endian
// two's complement.
//
// Naming follows the "Open Interface Command Reference" chapter of the
// documentation.

// Command is an encoded Open Interface command, never mutated after
// construction.
type Command []byte

// be16 splits a signed 16-bit value into its big-endian wire bytes.
func be16(v int16) (byte, byte) {
	u := uint16(v)
	return byte(u >> 8), byte(u)
}

// Start returns the command placing the robot in passive mode.
func Start() Command {
	return Command{OpStart}
}

// Reset returns the soft-reset command.
func Reset() Command {
	return Command{OpSoftReset}
}

// SetMode returns the mode-change command for one of the passive, safe or
// full modes.
func SetMode(m Mode) (Command, error) {
	switch m {
	case ModePassive, ModeSafe, ModeFull:
		return Command{byte(m)}, nil
	default:
		return nil, &RangeError{What: "mode", Value: int(m), Min: int(ModePassive), Max: int(ModeFull)}
	}
}

// Drive returns the drive command for the given center velocity (mm/sec) and
// path radius (mm). RadiusStraight, SpinCW and SpinCCW are accepted as
// special radius values.
func Drive(velocity, radius int16) (Command, error) {
	if velocity < -MaxAbsoluteSpeed || velocity > MaxAbsoluteSpeed {
		return nil, &RangeError{What: "velocity", Value: int(velocity), Min: -MaxAbsoluteSpeed, Max: MaxAbsoluteSpeed}
	}
	vh, vl := be16(velocity)
	rh, rl := be16(radius)
	return Command{OpDrive, vh, vl, rh, rl}, nil
}

// DriveDirect returns the direct-drive command setting each wheel velocity
// independently (mm/sec). The right wheel velocity travels first on the
// wire. No range constraint applies.
func DriveDirect(leftVel, rightVel int16) Command {
	rh, rl := be16(rightVel)
	lh, ll := be16(leftVel)
	return Command{OpDriveDirect, rh, rl, lh, ll}
}

// StopMove returns the command stopping both wheels.
func StopMove() Command {
	return DriveDirect(0, 0)
}

// Leds returns the LED-set command. ledBits is masked against the legal
// play/advance bits; illegal bits are dropped, as the device would.
func Leds(ledBits, powerColor, powerLevel byte) Command {
	return Command{OpLeds, ledBits & AllLeds, powerColor, powerLevel}
}

// DigitalOutputs returns the digital-output command for the given state
// bits, masked against the three legal outputs.
func DigitalOutputs(states byte) Command {
	return Command{OpDigitalOutputs, states & AllDouts}
}

// LowSideDrivers returns the low-side driver on/off command for the given
// state bits, masked against the three legal drivers.
func LowSideDrivers(states byte) Command {
	return Command{OpLowSideDrivers, states & AllDrivers}
}

// LowSideDriverPWM returns the duty-cycle command for the three low side
// drivers. Duty cycles are percentages in [0, 100]; validation is
// all-or-nothing, no command is produced if any channel is out of range.
// The device expects the channels in reverse order, scaled to 0-128.
func LowSideDriverPWM(duty0, duty1, duty2 int) (Command, error) {
	duties := [3]int{duty0, duty1, duty2}
	for _, d := range duties {
		if d < 0 || d > 100 {
			return nil, &RangeError{What: "duty cycle", Value: d, Min: 0, Max: 100}
		}
	}
	cmd := Command{OpPWMLowSideDrivers}
	for i := 2; i >= 0; i-- {
		cmd = append(cmd, byte(duties[i]*128/100))
	}
	return cmd, nil
}

// SendIR returns the command emitting one byte through the IR LED.
func SendIR(data byte) Command {
	return Command{OpSendIR, data}
}

// Sensors returns the single-packet sensor query command.
func Sensors(id PacketID) (Command, error) {
	if !id.Valid() {
		return nil, &RangeError{What: "packet id", Value: int(id), Min: int(PacketMin), Max: int(PacketMax)}
	}
	return Command{OpReadSensors, byte(id)}, nil
}

// QueryList returns the multi-packet sensor query command.
func QueryList(ids ...PacketID) Command {
	cmd := Command{OpReadSensorList, byte(len(ids))}
	for _, id := range ids {
		cmd = append(cmd, byte(id))
	}
	return cmd
}

// StreamSensors returns the command requesting continuous streaming of the
// given packets.
func StreamSensors(ids ...PacketID) Command {
	cmd := Command{OpStreamSensorList, byte(len(ids))}
	for _, id := range ids {
		cmd = append(cmd, byte(id))
	}
	return cmd
}

// StreamPauseResume returns the command pausing (false) or resuming (true)
// an established sensor stream.
func StreamPauseResume(resume bool) Command {
	state := byte(0)
	if resume {
		state = 1
	}
	return Command{OpStreamPauseResume, state}
}

// PlayScript returns the command replaying the stored script.
func PlayScript() Command {
	return Command{OpScriptPlay}
}

// WaitTime returns the script command pausing execution for the given number
// of 15 ms ticks.
func WaitTime(ticks byte) Command {
	return Command{OpWaitTime, ticks}
}

// WaitDistance returns the script command pausing execution until the robot
// has traveled the given distance (mm, negative for backward).
func WaitDistance(mm int16) Command {
	h, l := be16(mm)
	return Command{OpWaitDistance, h, l}
}

// WaitAngle returns the script command pausing execution until the robot has
// turned the given angle (degrees, positive counter-clockwise).
func WaitAngle(deg int16) Command {
	h, l := be16(deg)
	return Command{OpWaitAngle, h, l}
}

// WaitForEvent returns the script command pausing execution until the event
// occurs. Pass either a WaitEvent code or its Inverse() to wait for the
// opposite condition.
func WaitForEvent(event byte) Command {
	return Command{OpWaitEvent, event}
}

// SongRecord returns the command storing a song under the given slot number.
// score is the interleaved note/duration byte sequence produced by Song.
func SongRecord(num int, score []byte) (Command, error) {
	if num < 0 || num >= SongMaxSlots {
		return nil, &RangeError{What: "song number", Value: num, Min: 0, Max: SongMaxSlots - 1}
	}
	if len(score)%2 != 0 {
		return nil, &ProtocolError{Op: "song record", Reason: "score must be note/duration pairs"}
	}
	if len(score) > 2*SongMaxNotes {
		return nil, &CapacityError{What: "song", Size: len(score), Max: 2 * SongMaxNotes}
	}
	cmd := Command{OpSongRecord, byte(num), byte(len(score) / 2)}
	return append(cmd, score...), nil
}

// SongPlay returns the command playing a stored song slot.
func SongPlay(num int) (Command, error) {
	if num < 0 || num >= SongMaxSlots {
		return nil, &RangeError{What: "song number", Value: num, Min: 0, Max: SongMaxSlots - 1}
	}
	return Command{OpSongPlay, byte(num)}, nil
}
