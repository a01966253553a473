// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Wheelworks Robotics
//
// Createlink - iRobot Create command and telemetry tool

package main

import (
	"fmt"
	"os"

	"github.com/wheelworks/createlink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
