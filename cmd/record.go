// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Wheelworks Robotics

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wheelworks/createlink/pkg/create"
	"github.com/wheelworks/createlink/pkg/oi"
)

var recordOutput string

var recordCmd = &cobra.Command{
	Use:   "record [packet-id...]",
	Short: "Record streamed telemetry frames to a file",
	Long: `Stream the given sensor packets and append every decoded frame to a
CBOR log file for later replay with 'dump'. Without arguments the
bumps-and-wheel-drops, distance and angle packets are streamed.`,
	RunE: runRecord,
}

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Replay a recorded telemetry log",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "telemetry.cbor", "Output file")
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(dumpCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	ids, err := parsePacketIDs(args)
	if err != nil {
		return err
	}

	out, err := os.Create(recordOutput)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", recordOutput, err)
	}
	defer out.Close()
	logWriter := create.NewFrameLogWriter(out)

	robot, info, err := openRobot()
	if err != nil {
		return err
	}
	defer robot.Close()

	fmt.Printf("Recording to %s\n", recordOutput)
	fmt.Printf("Connection: %s\n", info)
	fmt.Printf("Press Ctrl+C to stop\n\n")

	if err := robot.StreamPackets(ids...); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	recorded := 0
	for {
		select {
		case frame, ok := <-robot.Frames():
			if !ok {
				fmt.Printf("Recorded %d frames\n", recorded)
				return nil
			}
			if err := logWriter.Write(frame); err != nil {
				return err
			}
			recorded++
		case <-sigCh:
			fmt.Printf("Recorded %d frames\n", recorded)
			return nil
		}
	}
}

func runDump(cmd *cobra.Command, args []string) error {
	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %v", args[0], err)
	}
	defer in.Close()

	reader := create.NewFrameLogReader(in)
	count := 0
	for {
		frame, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		fmt.Print(oi.FormatFrame(frame))
		count++
	}
	fmt.Printf("%d frames\n", count)
	return nil
}
