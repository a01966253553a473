// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

package oi

import "encoding/binary"

// FieldType describes one field of a packet group's fixed byte layout.
type FieldType int

// Field types used by the packet group layouts.
const (
	U8 FieldType = iota
	S8
	U16
	S16
)

// Size returns the field's width in bytes.
func (f FieldType) Size() int {
	if f == U16 || f == S16 {
		return 2
	}
	return 1
}

// groupLayouts holds the fixed field layout of packet groups 1-5. The
// layouts of groups 0 and 6 are the ordered concatenations of their
// constituent groups, computed in init so they cannot drift.
var groupLayouts = [7][]FieldType{
	1: {U8, U8, U8, U8, U8, U8, U8, U8, U8, U8},
	2: {U8, U8, S16, S16},
	3: {U8, U16, S16, S8, U16, U16},
	4: {U16, U16, U16, U16, U16, U8, U16, U8},
	5: {U8, U8, U8, U8, S16, S16, S16, S16},
}

func init() {
	groupLayouts[0] = concatLayouts(1, 3)
	groupLayouts[6] = concatLayouts(1, 5)
}

func concatLayouts(from, to PacketID) []FieldType {
	var layout []FieldType
	for g := from; g <= to; g++ {
		layout = append(layout, groupLayouts[g]...)
	}
	return layout
}

// GroupLayout returns the field layout of a packet group (ids 0-6), or nil
// for any other id.
func GroupLayout(id PacketID) []FieldType {
	if id > PacketGroup6 {
		return nil
	}
	return groupLayouts[id]
}

// SensorStates is packet group 1: bumpers, cliffs, wall and overcurrent
// states. The bit-mask bytes can be projected to symbolic values with
// DecodeBumpers, DecodeWheelDrops and DecodeOvercurrents.
type SensorStates struct {
	BumpsAndWheelDrops byte
	Wall               byte
	CliffLeft          byte
	CliffFrontLeft     byte
	CliffFrontRight    byte
	CliffRight         byte
	VirtualWall        byte
	Overcurrents       byte
	Unused1            byte
	Unused2            byte
}

// UIAndOdometry is packet group 2: IR byte, buttons and odometry deltas
// since the previous request.
type UIAndOdometry struct {
	IRByte   byte
	Buttons  byte
	Distance int16 // mm
	Angle    int16 // degrees
}

// BatteryState is packet group 3.
type BatteryState struct {
	ChargingState   byte
	Voltage         uint16 // mV
	Current         int16  // mA
	BatteryTemp     int8   // degrees C
	BatteryCharge   uint16 // mAh
	BatteryCapacity uint16 // mAh
}

// SignalLevels is packet group 4: raw wall and cliff signal strengths plus
// the cargo bay user I/O.
type SignalLevels struct {
	WallSignal           uint16
	CliffLeftSignal      uint16
	CliffFrontLeftSignal uint16
	CliffFrontRightSig   uint16
	CliffRightSignal     uint16
	UserDigitalInputs    byte
	UserAnalogInput      uint16
	ChargingSources      byte
}

// RobotState is packet group 5: OI mode, song state and the last requested
// velocities.
type RobotState struct {
	Mode              byte
	SongNumber        byte
	SongPlaying       byte
	StreamPacketCount byte
	Velocity          int16
	Radius            int16
	RightVelocity     int16
	LeftVelocity      int16
}

// FullState is packet group 0, the concatenation of groups 1-3.
type FullState struct {
	SensorStates
	UIAndOdometry
	BatteryState
}

// AllState is packet group 6, the concatenation of groups 1-5.
type AllState struct {
	FullState
	SignalLevels
	RobotState
}

func sizeCheck(id PacketID, data []byte) error {
	if want := id.Size(); len(data) != want {
		return &DecodeError{ID: id, Want: want, Got: len(data)}
	}
	return nil
}

// DecodeSensorStates decodes a group 1 payload.
func DecodeSensorStates(data []byte) (*SensorStates, error) {
	if err := sizeCheck(PacketGroup1, data); err != nil {
		return nil, err
	}
	return &SensorStates{
		BumpsAndWheelDrops: data[0],
		Wall:               data[1],
		CliffLeft:          data[2],
		CliffFrontLeft:     data[3],
		CliffFrontRight:    data[4],
		CliffRight:         data[5],
		VirtualWall:        data[6],
		Overcurrents:       data[7],
		Unused1:            data[8],
		Unused2:            data[9],
	}, nil
}

// DecodeUIAndOdometry decodes a group 2 payload.
func DecodeUIAndOdometry(data []byte) (*UIAndOdometry, error) {
	if err := sizeCheck(PacketGroup2, data); err != nil {
		return nil, err
	}
	return &UIAndOdometry{
		IRByte:   data[0],
		Buttons:  data[1],
		Distance: int16(binary.BigEndian.Uint16(data[2:4])),
		Angle:    int16(binary.BigEndian.Uint16(data[4:6])),
	}, nil
}

// DecodeBatteryState decodes a group 3 payload.
func DecodeBatteryState(data []byte) (*BatteryState, error) {
	if err := sizeCheck(PacketGroup3, data); err != nil {
		return nil, err
	}
	return &BatteryState{
		ChargingState:   data[0],
		Voltage:         binary.BigEndian.Uint16(data[1:3]),
		Current:         int16(binary.BigEndian.Uint16(data[3:5])),
		BatteryTemp:     int8(data[5]),
		BatteryCharge:   binary.BigEndian.Uint16(data[6:8]),
		BatteryCapacity: binary.BigEndian.Uint16(data[8:10]),
	}, nil
}

// DecodeSignalLevels decodes a group 4 payload.
func DecodeSignalLevels(data []byte) (*SignalLevels, error) {
	if err := sizeCheck(PacketGroup4, data); err != nil {
		return nil, err
	}
	return &SignalLevels{
		WallSignal:           binary.BigEndian.Uint16(data[0:2]),
		CliffLeftSignal:      binary.BigEndian.Uint16(data[2:4]),
		CliffFrontLeftSignal: binary.BigEndian.Uint16(data[4:6]),
		CliffFrontRightSig:   binary.BigEndian.Uint16(data[6:8]),
		CliffRightSignal:     binary.BigEndian.Uint16(data[8:10]),
		UserDigitalInputs:    data[10],
		UserAnalogInput:      binary.BigEndian.Uint16(data[11:13]),
		ChargingSources:      data[13],
	}, nil
}

// DecodeRobotState decodes a group 5 payload.
func DecodeRobotState(data []byte) (*RobotState, error) {
	if err := sizeCheck(PacketGroup5, data); err != nil {
		return nil, err
	}
	return &RobotState{
		Mode:              data[0],
		SongNumber:        data[1],
		SongPlaying:       data[2],
		StreamPacketCount: data[3],
		Velocity:          int16(binary.BigEndian.Uint16(data[4:6])),
		Radius:            int16(binary.BigEndian.Uint16(data[6:8])),
		RightVelocity:     int16(binary.BigEndian.Uint16(data[8:10])),
		LeftVelocity:      int16(binary.BigEndian.Uint16(data[10:12])),
	}, nil
}

// DecodeFullState decodes a group 0 payload by splitting it into the byte
// ranges of groups 1-3.
func DecodeFullState(data []byte) (*FullState, error) {
	if err := sizeCheck(PacketGroup0, data); err != nil {
		return nil, err
	}
	g1, err := DecodeSensorStates(data[0:10])
	if err != nil {
		return nil, err
	}
	g2, err := DecodeUIAndOdometry(data[10:16])
	if err != nil {
		return nil, err
	}
	g3, err := DecodeBatteryState(data[16:26])
	if err != nil {
		return nil, err
	}
	return &FullState{SensorStates: *g1, UIAndOdometry: *g2, BatteryState: *g3}, nil
}

// DecodeAllState decodes a group 6 payload by splitting it into the byte
// ranges of groups 1-5.
func DecodeAllState(data []byte) (*AllState, error) {
	if err := sizeCheck(PacketGroup6, data); err != nil {
		return nil, err
	}
	g0, err := DecodeFullState(data[0:26])
	if err != nil {
		return nil, err
	}
	g4, err := DecodeSignalLevels(data[26:40])
	if err != nil {
		return nil, err
	}
	g5, err := DecodeRobotState(data[40:52])
	if err != nil {
		return nil, err
	}
	return &AllState{FullState: *g0, SignalLevels: *g4, RobotState: *g5}, nil
}

// signedPackets marks the individual sensors whose values are signed.
var signedPackets = map[PacketID]bool{
	PacketDistance:          true,
	PacketAngle:             true,
	PacketBatteryCurrent:    true,
	PacketBatteryTemp:       true,
	PacketRequestedVelocity: true,
	PacketRequestedRadius:   true,
	PacketRequestedRightVel: true,
	PacketRequestedLeftVel:  true,
}

// DecodeScalar decodes an individual sensor payload (ids 7-42) to its
// integer value, honoring the sensor's declared width and signedness.
func DecodeScalar(id PacketID, data []byte) (int, error) {
	if id < PacketBumpsAndWheelDrops || id > PacketMax {
		return 0, &RangeError{What: "scalar packet id", Value: int(id), Min: int(PacketBumpsAndWheelDrops), Max: int(PacketMax)}
	}
	if err := sizeCheck(id, data); err != nil {
		return 0, err
	}
	switch {
	case len(data) == 2 && signedPackets[id]:
		return int(int16(binary.BigEndian.Uint16(data))), nil
	case len(data) == 2:
		return int(binary.BigEndian.Uint16(data)), nil
	case signedPackets[id]:
		return int(int8(data[0])), nil
	default:
		return int(data[0]), nil
	}
}

// DecodeGroup decodes a payload for any packet id: a typed group record for
// ids 0-6, an int for individual sensors.
func DecodeGroup(id PacketID, data []byte) (interface{}, error) {
	switch id {
	case PacketGroup0:
		return DecodeFullState(data)
	case PacketGroup1:
		return DecodeSensorStates(data)
	case PacketGroup2:
		return DecodeUIAndOdometry(data)
	case PacketGroup3:
		return DecodeBatteryState(data)
	case PacketGroup4:
		return DecodeSignalLevels(data)
	case PacketGroup5:
		return DecodeRobotState(data)
	case PacketGroup6:
		return DecodeAllState(data)
	default:
		return DecodeScalar(id, data)
	}
}

// DecodeButtons projects a buttons bit mask to the pressed buttons.
func DecodeButtons(b byte) []Button {
	var out []Button
	for _, btn := range []Button{ButtonPlay, ButtonAdvance} {
		if b&byte(btn) != 0 {
			out = append(out, btn)
		}
	}
	return out
}

// DecodeBumpers projects a bumps-and-wheel-drops bit mask to the pressed
// bumper sides.
func DecodeBumpers(b byte) []Bumper {
	var out []Bumper
	for _, bp := range []Bumper{BumperLeft, BumperRight} {
		if b&byte(bp) != 0 {
			out = append(out, bp)
		}
	}
	return out
}

// DecodeWheelDrops projects a bumps-and-wheel-drops bit mask to the dropped
// wheels and caster.
func DecodeWheelDrops(b byte) []WheelDrop {
	var out []WheelDrop
	for _, wd := range []WheelDrop{WheelDropLeft, WheelDropRight, CasterDrop} {
		if b&byte(wd) != 0 {
			out = append(out, wd)
		}
	}
	return out
}

// DecodeOvercurrents projects an overcurrents bit mask to the tripped
// flags.
func DecodeOvercurrents(b byte) []Overcurrent {
	var out []Overcurrent
	for _, oc := range []Overcurrent{
		OvercurrentDriver0, OvercurrentDriver1, OvercurrentDriver2,
		OvercurrentRightWheel, OvercurrentLeftWheel,
	} {
		if b&byte(oc) != 0 {
			out = append(out, oc)
		}
	}
	return out
}

// DecodeDrivers projects a low-side driver bit mask to the enabled drivers.
func DecodeDrivers(b byte) []Driver {
	var out []Driver
	for _, d := range []Driver{Driver0, Driver1, Driver2} {
		if b&byte(d) != 0 {
			out = append(out, d)
		}
	}
	return out
}
