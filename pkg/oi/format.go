// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

package oi

import (
	"fmt"
	"strings"
)

func (b Button) String() string {
	switch b {
	case ButtonPlay:
		return "play"
	case ButtonAdvance:
		return "advance"
	default:
		return "unknown"
	}
}

func (b Bumper) String() string {
	switch b {
	case BumperLeft:
		return "left"
	case BumperRight:
		return "right"
	default:
		return "unknown"
	}
}

func (w WheelDrop) String() string {
	switch w {
	case WheelDropLeft:
		return "left wheel"
	case WheelDropRight:
		return "right wheel"
	case CasterDrop:
		return "caster"
	default:
		return "unknown"
	}
}

func (o Overcurrent) String() string {
	switch o {
	case OvercurrentDriver0:
		return "driver 0"
	case OvercurrentDriver1:
		return "driver 1"
	case OvercurrentDriver2:
		return "driver 2"
	case OvercurrentLeftWheel:
		return "left wheel"
	case OvercurrentRightWheel:
		return "right wheel"
	default:
		return "unknown"
	}
}

func (d Driver) String() string {
	switch d {
	case Driver0:
		return "driver 0"
	case Driver1:
		return "driver 1"
	case Driver2:
		return "driver 2"
	default:
		return "unknown"
	}
}

func (m Mode) String() string {
	switch m {
	case ModePassive:
		return "passive"
	case ModeSafe:
		return "safe"
	case ModeFull:
		return "full"
	default:
		return "unknown"
	}
}

// FormatPacketID returns the human-readable name of a sensor packet id.
func FormatPacketID(id PacketID) string {
	switch id {
	case PacketGroup0:
		return "GROUP_0"
	case PacketGroup1:
		return "SENSOR_STATES"
	case PacketGroup2:
		return "UI_AND_ODOMETRY"
	case PacketGroup3:
		return "BATTERY"
	case PacketGroup4:
		return "SIGNALS"
	case PacketGroup5:
		return "ROBOT_STATE"
	case PacketGroup6:
		return "GROUP_ALL"
	case PacketBumpsAndWheelDrops:
		return "BUMPS_AND_WHEEL_DROPS"
	case PacketWall:
		return "WALL"
	case PacketCliffLeft:
		return "CLIFF_LEFT"
	case PacketCliffFrontLeft:
		return "CLIFF_FRONT_LEFT"
	case PacketCliffFrontRight:
		return "CLIFF_FRONT_RIGHT"
	case PacketCliffRight:
		return "CLIFF_RIGHT"
	case PacketVirtualWall:
		return "VIRTUAL_WALL"
	case PacketOvercurrents:
		return "OVERCURRENTS"
	case PacketUnused1, PacketUnused2:
		return "UNUSED"
	case PacketReceivedIRByte:
		return "RECEIVED_IR_BYTE"
	case PacketButtons:
		return "BUTTONS"
	case PacketDistance:
		return "DISTANCE"
	case PacketAngle:
		return "ANGLE"
	case PacketChargingState:
		return "CHARGING_STATE"
	case PacketBatteryVoltage:
		return "BATTERY_VOLTAGE"
	case PacketBatteryCurrent:
		return "BATTERY_CURRENT"
	case PacketBatteryTemp:
		return "BATTERY_TEMPERATURE"
	case PacketBatteryCharge:
		return "BATTERY_CHARGE"
	case PacketBatteryCapacity:
		return "BATTERY_CAPACITY"
	case PacketWallSignal:
		return "WALL_SIGNAL"
	case PacketCliffLeftSignal:
		return "CLIFF_LEFT_SIGNAL"
	case PacketCliffFrontLeftSignal:
		return "CLIFF_FRONT_LEFT_SIGNAL"
	case PacketCliffFrontRightSig:
		return "CLIFF_FRONT_RIGHT_SIGNAL"
	case PacketCliffRightSignal:
		return "CLIFF_RIGHT_SIGNAL"
	case PacketCargoBayDigitalIn:
		return "CARGO_BAY_DIGITAL_IN"
	case PacketCargoBayAnalogIn:
		return "CARGO_BAY_ANALOG_IN"
	case PacketChargingSources:
		return "CHARGING_SOURCES"
	case PacketOIMode:
		return "OI_MODE"
	case PacketSongNumber:
		return "SONG_NUMBER"
	case PacketSongPlaying:
		return "SONG_PLAYING"
	case PacketStreamPacketCount:
		return "STREAM_PACKET_COUNT"
	case PacketRequestedVelocity:
		return "REQUESTED_VELOCITY"
	case PacketRequestedRadius:
		return "REQUESTED_RADIUS"
	case PacketRequestedRightVel:
		return "REQUESTED_RIGHT_VELOCITY"
	case PacketRequestedLeftVel:
		return "REQUESTED_LEFT_VELOCITY"
	default:
		return "UNKNOWN"
	}
}

// FormatPacket formats one packet payload into human-readable lines.
func FormatPacket(id PacketID, data []byte) string {
	decoded, err := DecodeGroup(id, data)
	if err != nil {
		return fmt.Sprintf("  %s: %v\n", FormatPacketID(id), err)
	}

	switch v := decoded.(type) {
	case int:
		return fmt.Sprintf("  %s: %d\n", FormatPacketID(id), v)
	case *SensorStates:
		return formatSensorStates(v)
	case *UIAndOdometry:
		return formatUIAndOdometry(v)
	case *BatteryState:
		return formatBatteryState(v)
	case *SignalLevels:
		return formatSignalLevels(v)
	case *RobotState:
		return formatRobotState(v)
	case *FullState:
		return formatSensorStates(&v.SensorStates) +
			formatUIAndOdometry(&v.UIAndOdometry) +
			formatBatteryState(&v.BatteryState)
	case *AllState:
		return formatSensorStates(&v.SensorStates) +
			formatUIAndOdometry(&v.UIAndOdometry) +
			formatBatteryState(&v.BatteryState) +
			formatSignalLevels(&v.SignalLevels) +
			formatRobotState(&v.RobotState)
	default:
		return hexDump(data)
	}
}

// FormatFrame formats a complete stream frame.
func FormatFrame(f *StreamFrame) string {
	timestamp := f.Timestamp.Format("15:04:05.000")
	result := fmt.Sprintf("[%s] frame: %d packet(s), checksum=0x%02X\n", timestamp, len(f.Packets), f.Checksum)
	for _, p := range f.Packets {
		result += fmt.Sprintf(" %s (%d):\n", FormatPacketID(p.ID), p.ID)
		result += FormatPacket(p.ID, p.Data)
	}
	return result
}

func formatMaskList[T fmt.Stringer](items []T) string {
	if len(items) == 0 {
		return "none"
	}
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.String()
	}
	return strings.Join(names, ", ")
}

func formatSensorStates(v *SensorStates) string {
	result := fmt.Sprintf("  Bumpers: %s\n", formatMaskList(DecodeBumpers(v.BumpsAndWheelDrops)))
	result += fmt.Sprintf("  Wheel Drops: %s\n", formatMaskList(DecodeWheelDrops(v.BumpsAndWheelDrops)))
	result += fmt.Sprintf("  Wall: %d, Virtual Wall: %d\n", v.Wall, v.VirtualWall)
	result += fmt.Sprintf("  Cliffs (L/FL/FR/R): %d/%d/%d/%d\n",
		v.CliffLeft, v.CliffFrontLeft, v.CliffFrontRight, v.CliffRight)
	result += fmt.Sprintf("  Overcurrents: %s\n", formatMaskList(DecodeOvercurrents(v.Overcurrents)))
	return result
}

func formatUIAndOdometry(v *UIAndOdometry) string {
	result := fmt.Sprintf("  IR Byte: %d, Buttons: %s\n", v.IRByte, formatMaskList(DecodeButtons(v.Buttons)))
	result += fmt.Sprintf("  Distance: %d mm, Angle: %d deg\n", v.Distance, v.Angle)
	return result
}

func formatBatteryState(v *BatteryState) string {
	result := fmt.Sprintf("  Charging State: %d\n", v.ChargingState)
	result += fmt.Sprintf("  Battery: %d mV, %d mA, %d degC\n", v.Voltage, v.Current, v.BatteryTemp)
	result += fmt.Sprintf("  Charge: %d/%d mAh\n", v.BatteryCharge, v.BatteryCapacity)
	return result
}

func formatSignalLevels(v *SignalLevels) string {
	result := fmt.Sprintf("  Wall Signal: %d\n", v.WallSignal)
	result += fmt.Sprintf("  Cliff Signals (L/FL/FR/R): %d/%d/%d/%d\n",
		v.CliffLeftSignal, v.CliffFrontLeftSignal, v.CliffFrontRightSig, v.CliffRightSignal)
	result += fmt.Sprintf("  User DIn: 0x%02X, User AIn: %d, Charging Sources: %d\n",
		v.UserDigitalInputs, v.UserAnalogInput, v.ChargingSources)
	return result
}

func formatRobotState(v *RobotState) string {
	result := fmt.Sprintf("  Mode: %s, Song: %d (playing=%d)\n", Mode(v.Mode), v.SongNumber, v.SongPlaying)
	result += fmt.Sprintf("  Requested: v=%d mm/s r=%d mm, wheels R=%d L=%d mm/s\n",
		v.Velocity, v.Radius, v.RightVelocity, v.LeftVelocity)
	return result
}

func hexDump(data []byte) string {
	result := "  Payload: "
	for i, b := range data {
		if i > 0 && i%16 == 0 {
			result += "\n           "
		}
		result += fmt.Sprintf("%02X ", b)
	}
	return result + "\n"
}
