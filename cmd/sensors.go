// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Wheelworks Robotics

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wheelworks/createlink/pkg/oi"
)

var sensorsCmd = &cobra.Command{
	Use:   "sensors [packet-id]",
	Short: "Query sensor packets once and print them",
	Long: `Request a sensor packet and print its decoded contents.

Packet ids 0-6 are groups; 7-42 are individual sensors. Without an
argument the full state group (6) is queried.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSensors,
}

func init() {
	rootCmd.AddCommand(sensorsCmd)
}

func runSensors(cmd *cobra.Command, args []string) error {
	id := oi.PacketGroup6
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || !oi.PacketID(n).Valid() {
			return fmt.Errorf("invalid packet id %q (0-42)", args[0])
		}
		id = oi.PacketID(n)
	}

	robot, info, err := openRobot()
	if err != nil {
		return err
	}
	defer robot.Close()

	fmt.Printf("Connection: %s\n\n", info)

	data, err := robot.GetSensorPacket(id)
	if err != nil {
		return err
	}
	fmt.Print(oi.FormatPacket(id, data))
	return nil
}
