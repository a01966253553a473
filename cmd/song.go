// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Wheelworks Robotics

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wheelworks/createlink/pkg/oi"
)

var songTempo float64

var songCmd = &cobra.Command{
	Use:   "song <note...>",
	Short: "Play a song through the robot's speaker",
	Long: `Encode a score and play it, blocking until playback finishes.

Notes are written as name:duration, where name is a pitch with octave
("C4", "F#5") or "-" for a rest, and duration is in 64ths of a second:

  createlink song -p /dev/ttyUSB0 C4:16 E4:16 G4:16 C5:32

Long scores are split across song slots automatically.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSong,
}

func init() {
	songCmd.Flags().Float64Var(&songTempo, "tempo", 1.0, "Duration multiplier (0.5 doubles the tempo)")
	rootCmd.AddCommand(songCmd)
}

// parseNote splits "C4:16" into its Note fields. A name of "-" is a rest.
func parseNote(arg string) (oi.Note, error) {
	name, durStr, ok := strings.Cut(arg, ":")
	if !ok {
		return oi.Note{}, fmt.Errorf("invalid note %q (want name:duration)", arg)
	}
	duration, err := strconv.Atoi(durStr)
	if err != nil || duration < 1 || duration > 255 {
		return oi.Note{}, fmt.Errorf("invalid duration in %q (1-255)", arg)
	}

	note := oi.Note{Duration: byte(duration)}
	if name == "-" {
		return note, nil
	}
	if len(name) < 2 {
		return oi.Note{}, fmt.Errorf("invalid note name %q", name)
	}
	octave, err := strconv.Atoi(name[len(name)-1:])
	if err != nil {
		return oi.Note{}, fmt.Errorf("invalid octave in %q", name)
	}
	note.Name = name[:len(name)-1]
	note.Octave = octave
	return note, nil
}

func runSong(cmd *cobra.Command, args []string) error {
	var notes []oi.Note
	for _, arg := range args {
		note, err := parseNote(arg)
		if err != nil {
			return err
		}
		notes = append(notes, note)
	}

	var song oi.Song
	if err := song.Encode(notes); err != nil {
		return err
	}
	if songTempo != 1.0 {
		song.ChangeTempo(songTempo)
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
	slots, err := robot.SongSequenceRecord(0, &song)
	if err != nil {
		return err
	}

	ctx, cancel := interruptContext()
	defer cancel()
	fmt.Printf("Playing %d notes across %d slot(s)\n", len(notes), len(slots))
	return robot.SongSequencePlay(ctx, slots)
}
