// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

// Package oi implements the iRobot Create Open Interface serial protocol.
//
// The Open Interface is a fixed binary command/telemetry protocol spoken by
// the Create over its serial link. This package provides command encoding,
// sensor packet decoding, the streamed-telemetry frame decoder, and song
// (melody) encoding.
//
// Refer to the iRobot Create Open Interface reference document for the
// authoritative description of every opcode and sensor packet.
package oi

// Physical characteristics of the robot.
const (
	WheelToWheelDist = 260 // mm
	MaxAbsoluteSpeed = 500 // mm/sec
)

// Open Interface command opcodes.
const (
	OpSoftReset         = 7
	OpStart             = 128
	OpDrive             = 137
	OpLowSideDrivers    = 138
	OpLeds              = 139
	OpSongRecord        = 140
	OpSongPlay          = 141
	OpReadSensors       = 142
	OpPWMLowSideDrivers = 144
	OpDriveDirect       = 145
	OpDigitalOutputs    = 147
	OpStreamSensorList  = 148
	OpReadSensorList    = 149
	OpStreamPauseResume = 150
	OpSendIR            = 151
	OpScriptDefine      = 152
	OpScriptPlay        = 153
	OpScriptShow        = 154
	OpWaitTime          = 155
	OpWaitDistance      = 156
	OpWaitAngle         = 157
	OpWaitEvent         = 158
)

// Mode is an Open Interface operating mode. The mode byte doubles as the
// opcode of the corresponding mode-change command.
type Mode byte

// Operating modes.
const (
	ModePassive Mode = 128 // same byte as OpStart
	ModeSafe    Mode = 131
	ModeFull    Mode = 132
)

// Power LED colors and pre-defined intensities.
const (
	LedGreen  byte = 0
	LedYellow byte = 63
	LedOrange byte = 127
	LedRed    byte = 255

	LedOff  byte = 0
	LedFull byte = 255
	LedOn        = LedFull
)

// Status LED bit masks for the LEDs command.
const (
	LedPlay    byte = 2
	LedAdvance byte = 8
	AllLeds         = LedPlay | LedAdvance
)

// Button identifies one of the robot's push buttons, as reported by the
// buttons sensor packet.
type Button byte

// Button bit masks.
const (
	ButtonPlay    Button = 1
	ButtonAdvance Button = 4
	AllButtons           = byte(ButtonPlay) | byte(ButtonAdvance)
)

// Digital output bit masks.
const (
	Dout0    byte = 1
	Dout1    byte = 2
	Dout2    byte = 4
	AllDouts      = Dout0 | Dout1 | Dout2
)

// Driver identifies one of the three low-side drivers.
type Driver byte

// Low side driver bit masks.
const (
	Driver0    Driver = 1
	Driver1    Driver = 2
	Driver2    Driver = 4
	AllDrivers        = byte(Driver0) | byte(Driver1) | byte(Driver2)
)

// Special values for the radius parameter of the drive command. All three
// encode to the documented magic words (0x8000, 0xFFFF, 0x0001) once passed
// through the big-endian two's complement 16-bit encoding.
const (
	RadiusStraight int16 = -32768
	SpinCW         int16 = -1
	SpinCCW        int16 = 1
)

// Bumper identifies one side of the front bumper.
type Bumper byte

// Bumper bit masks within the bumps-and-wheel-drops packet.
const (
	BumperRight Bumper = 0x01
	BumperLeft  Bumper = 0x02
)

// WheelDrop identifies one of the wheel drop sensors.
type WheelDrop byte

// Wheel drop bit masks within the bumps-and-wheel-drops packet.
const (
	WheelDropRight WheelDrop = 0x04
	WheelDropLeft  WheelDrop = 0x08
	CasterDrop     WheelDrop = 0x10
)

// Overcurrent identifies one overcurrent flag of the overcurrents packet.
type Overcurrent byte

// Overcurrent bit masks. Note that driver 1 sits below driver 0 on the wire.
const (
	OvercurrentDriver1    Overcurrent = 0x01
	OvercurrentDriver0    Overcurrent = 0x02
	OvercurrentDriver2    Overcurrent = 0x04
	OvercurrentRightWheel Overcurrent = 0x08
	OvercurrentLeftWheel  Overcurrent = 0x10
)

// PacketID identifies a sensor packet or packet group.
type PacketID byte

// Sensor packets and packet groups. Group 0 is the concatenation of groups
// 1-3, group 6 of groups 1-5; ids 7-42 are individual sensors.
const (
	PacketGroup0 PacketID = 0
	PacketGroup1 PacketID = 1
	PacketGroup2 PacketID = 2
	PacketGroup3 PacketID = 3
	PacketGroup4 PacketID = 4
	PacketGroup5 PacketID = 5
	PacketGroup6 PacketID = 6

	PacketBumpsAndWheelDrops PacketID = 7
	PacketWall               PacketID = 8
	PacketCliffLeft          PacketID = 9
	PacketCliffFrontLeft     PacketID = 10
	PacketCliffFrontRight    PacketID = 11
	PacketCliffRight         PacketID = 12
	PacketVirtualWall        PacketID = 13
	PacketOvercurrents       PacketID = 14
	PacketUnused1            PacketID = 15
	PacketUnused2            PacketID = 16

	PacketReceivedIRByte PacketID = 17
	PacketButtons        PacketID = 18
	PacketDistance       PacketID = 19
	PacketAngle          PacketID = 20

	PacketChargingState   PacketID = 21
	PacketBatteryVoltage  PacketID = 22
	PacketBatteryCurrent  PacketID = 23
	PacketBatteryTemp     PacketID = 24
	PacketBatteryCharge   PacketID = 25
	PacketBatteryCapacity PacketID = 26

	PacketWallSignal           PacketID = 27
	PacketCliffLeftSignal      PacketID = 28
	PacketCliffFrontLeftSignal PacketID = 29
	PacketCliffFrontRightSig   PacketID = 30
	PacketCliffRightSignal     PacketID = 31
	PacketCargoBayDigitalIn    PacketID = 32
	PacketCargoBayAnalogIn     PacketID = 33
	PacketChargingSources      PacketID = 34

	PacketOIMode            PacketID = 35
	PacketSongNumber        PacketID = 36
	PacketSongPlaying       PacketID = 37
	PacketStreamPacketCount PacketID = 38
	PacketRequestedVelocity PacketID = 39
	PacketRequestedRadius   PacketID = 40
	PacketRequestedRightVel PacketID = 41
	PacketRequestedLeftVel  PacketID = 42

	PacketMin = PacketGroup0
	PacketMax = PacketRequestedLeftVel
)

// packetSizes holds the fixed byte length of every sensor packet, indexed by
// packet id. These values come straight from the Open Interface reference
// and must be reproduced exactly for wire compatibility.
var packetSizes = [43]int{
	26, 10, 6, 10, 14, 12, 52,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 2, 2,
	1, 2, 2, 1, 2, 2,
	2, 2, 2, 2, 2, 1, 2, 1,
	1, 1, 1, 1, 2, 2, 2, 2,
}

// Valid reports whether id names a known packet or packet group.
func (id PacketID) Valid() bool {
	return id <= PacketMax
}

// Size returns the fixed byte length of the packet, or 0 for an unknown id.
func (id PacketID) Size() int {
	if !id.Valid() {
		return 0
	}
	return packetSizes[id]
}

// StreamHeader is the first byte of every streamed telemetry frame.
const StreamHeader = 19

// Stream decoder states (internal).
const (
	stateIdle = iota
	stateGotHeader
	stateGotLength
	stateInPacket
	stateInChecksum
)

// WaitEvent is an event code for the wait-event script command.
type WaitEvent byte

// Wait event codes.
const (
	WaitWheelDrop       WaitEvent = 1
	WaitFrontWheelDrop  WaitEvent = 2
	WaitLeftWheelDrop   WaitEvent = 3
	WaitRightWheelDrop  WaitEvent = 4
	WaitBump            WaitEvent = 5
	WaitLeftBump        WaitEvent = 6
	WaitRightBump       WaitEvent = 7
	WaitVirtualWall     WaitEvent = 8
	WaitWall            WaitEvent = 9
	WaitCliff           WaitEvent = 10
	WaitLeftCliff       WaitEvent = 11
	WaitFrontLeftCliff  WaitEvent = 12
	WaitFrontRightCliff WaitEvent = 13
	WaitRightCliff      WaitEvent = 14
	WaitHomeBase        WaitEvent = 15
	WaitButtonAdvance   WaitEvent = 16
	WaitButtonPlay      WaitEvent = 17
	WaitDin0            WaitEvent = 18
	WaitDin1            WaitEvent = 19
	WaitDin2            WaitEvent = 20
	WaitDin3            WaitEvent = 21
	WaitPassiveMode     WaitEvent = 22

	WaitEventMin = WaitWheelDrop
	WaitEventMax = WaitPassiveMode
)

// Inverse returns the two's complement negation of the event code, which
// the robot interprets as waiting for the opposite condition.
func (e WaitEvent) Inverse() byte {
	return byte(256 - int(e))
}

// Song limits.
const (
	SongMaxNotes = 16 // note/duration pairs per song slot
	SongMaxSlots = 16 // song numbers 0..15
	NoteRest     = 0
	NoteMin      = 31
	NoteMax      = 127
)

// ScriptMaxBytes is the size of the robot's script buffer. Scripts whose
// encoded form exceeds it are silently truncated by the device, so the
// encoder rejects them instead.
const ScriptMaxBytes = 100
