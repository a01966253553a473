// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Wheelworks Robotics

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wheelworks/createlink/pkg/oi"
)

var watchCmd = &cobra.Command{
	Use:   "watch [packet-id...]",
	Short: "Stream sensor packets and display them as they arrive",
	Long: `Ask the robot to stream the given sensor packets every 15ms and print
each decoded frame. Without arguments the bumps-and-wheel-drops, distance
and angle packets are streamed.

Press Ctrl+C to exit; decode statistics are printed on the way out.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func parsePacketIDs(args []string) ([]oi.PacketID, error) {
	if len(args) == 0 {
		return []oi.PacketID{oi.PacketBumpsAndWheelDrops, oi.PacketDistance, oi.PacketAngle}, nil
	}
	var ids []oi.PacketID
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil || !oi.PacketID(n).Valid() {
			return nil, fmt.Errorf("invalid packet id %q (0-42)", arg)
		}
		ids = append(ids, oi.PacketID(n))
	}
	return ids, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	ids, err := parsePacketIDs(args)
	if err != nil {
		return err
	}

	robot, info, err := openRobot()
	if err != nil {
		return err
	}
	defer robot.Close()

	fmt.Printf("Createlink - Telemetry Watch\n")
	fmt.Printf("Connection: %s\n", info)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	if err := robot.StreamPackets(ids...); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case frame, ok := <-robot.Frames():
			if !ok {
				return nil
			}
			fmt.Print(oi.FormatFrame(frame))
		case <-sigCh:
			stats := robot.Statistics()
			fmt.Printf("\n%s\n", stats.String())
			return nil
		}
	}
}
