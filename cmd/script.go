// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Wheelworks Robotics

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wheelworks/createlink/pkg/oi"
)

var (
	scriptSide  int
	scriptSpeed int
)

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Work with the robot's onboard script buffer",
}

var scriptSquareCmd = &cobra.Command{
	Use:   "square",
	Short: "Upload and run a drive-a-square script",
	Long: `Build a script that drives the four sides of a square using the
robot's own wait-distance and wait-angle commands, upload it and run it.
The script runs on the robot itself, with no host in the loop.`,
	RunE: runScriptSquare,
}

var scriptShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Read back and print the stored script",
	RunE:  runScriptShow,
}

func init() {
	scriptSquareCmd.Flags().IntVar(&scriptSide, "side", 300, "Side length in mm")
	scriptSquareCmd.Flags().IntVar(&scriptSpeed, "speed", 200, "Speed in mm/s (1-500)")
	scriptCmd.AddCommand(scriptSquareCmd)
	scriptCmd.AddCommand(scriptShowCmd)
	rootCmd.AddCommand(scriptCmd)
}

// buildSquareScript drives side mm, turns 90 degrees, four times over.
func buildSquareScript(side, speed int) (*oi.Script, error) {
	forward, err := oi.Drive(int16(speed), oi.RadiusStraight)
	if err != nil {
		return nil, err
	}
	turn, err := oi.Drive(int16(speed), oi.SpinCCW)
	if err != nil {
		return nil, err
	}

	s := oi.NewScript()
	for i := 0; i < 4; i++ {
		s.Add(forward, oi.WaitDistance(int16(side)))
		s.Add(turn, oi.WaitAngle(90))
	}
	s.Add(oi.StopMove())
	return s, nil
}

func runScriptSquare(cmd *cobra.Command, args []string) error {
	s, err := buildSquareScript(scriptSide, scriptSpeed)
	if err != nil {
		return err
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
	if err := robot.DefineScript(s); err != nil {
		return err
	}
	fmt.Printf("Running a %dmm square (%d script bytes)\n", scriptSide, len(s.Bytes()))
	return robot.PlayScript()
}

func runScriptShow(cmd *cobra.Command, args []string) error {
	robot, info, err := openRobot()
	if err != nil {
		return err
	}
	defer robot.Close()
	fmt.Printf("Connection: %s\n\n", info)

	cmds, err := robot.GetScript()
	if err != nil {
		return err
	}
	if len(cmds) == 0 {
		fmt.Println("No script stored")
		return nil
	}
	for i, c := range cmds {
		fmt.Printf("%2d: % X\n", i, []byte(c))
	}
	return nil
}
