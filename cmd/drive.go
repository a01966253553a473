// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Wheelworks Robotics

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
)

var driveSpeed int

var driveCmd = &cobra.Command{
	Use:   "drive <distance-mm>",
	Short: "Drive straight for a distance and stop",
	Long: `Drive straight for the given distance in millimeters (negative drives
backward) and stop on a dead-reckoned timer. The robot is put in safe mode
first so cliff and wheel-drop reflexes stay armed.`,
	Args: cobra.ExactArgs(1),
	RunE: runDrive,
}

var spinCmd = &cobra.Command{
	Use:   "spin <degrees>",
	Short: "Turn in place through an angle and stop",
	Long: `Turn in place through the given angle in degrees (positive is
counter-clockwise) and stop on a dead-reckoned timer.`,
	Args: cobra.ExactArgs(1),
	RunE: runSpin,
}

func init() {
	driveCmd.Flags().IntVar(&driveSpeed, "speed", 200, "Speed in mm/s (1-500)")
	spinCmd.Flags().IntVar(&driveSpeed, "speed", 200, "Wheel speed in mm/s (1-500)")
	rootCmd.AddCommand(driveCmd)
	rootCmd.AddCommand(spinCmd)
}

// interruptContext cancels on Ctrl+C so an aborted wait still stops the
// robot on the way out.
func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

func runDrive(cmd *cobra.Command, args []string) error {
	distance, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid distance %q", args[0])
	}

	robot, info, err := openRobot()
	if err != nil {
		return err
	}
	defer robot.Close()
	fmt.Printf("Connection: %s\n", info)

	if err := robot.Safe(); err != nil {
		return err
	}
	if err := robot.DriveDistance(distance, int16(driveSpeed)); err != nil {
		return err
	}

	ctx, cancel := interruptContext()
	defer cancel()
	if err := robot.WaitMove(ctx); err != nil {
		return robot.Stop()
	}
	fmt.Printf("Drove %dmm\n", distance)
	return nil
}

func runSpin(cmd *cobra.Command, args []string) error {
	degrees, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid angle %q", args[0])
	}

	robot, info, err := openRobot()
	if err != nil {
		return err
	}
	defer robot.Close()
	fmt.Printf("Connection: %s\n", info)

	if err := robot.Safe(); err != nil {
		return err
	}
	if err := robot.SpinAngle(degrees, int16(driveSpeed)); err != nil {
		return err
	}

	ctx, cancel := interruptContext()
	defer cancel()
	if err := robot.WaitMove(ctx); err != nil {
		return robot.Stop()
	}
	fmt.Printf("Turned %d degrees\n", degrees)
	return nil
}
