// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Wheelworks Robotics

package oi

import "strings"

// musicScale lists the 12 semitones of an octave in note-code order.
var musicScale = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteNumber maps a note name ("C".."B", sharps included) and an octave
// (0-8) to the robot's note code. Only codes 31-127 are playable; any
// combination falling outside fails with a RangeError.
func NoteNumber(note string, octave int) (byte, error) {
	note = strings.ToUpper(note)
	idx := -1
	for i, n := range musicScale {
		if n == note {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, &ProtocolError{Op: "note number", Reason: "invalid note name"}
	}
	if octave < 0 || octave > 8 {
		return 0, &RangeError{What: "octave", Value: octave, Min: 0, Max: 8}
	}
	code := 24 + octave*len(musicScale) + idx
	if code < NoteMin || code > NoteMax {
		return 0, &RangeError{What: "note code", Value: code, Min: NoteMin, Max: NoteMax}
	}
	return byte(code), nil
}

// Note is one element of a musical score: a note name (empty for a rest),
// its octave and its duration in 1/64ths of a second.
type Note struct {
	Name     string
	Octave   int
	Duration byte
}

// Song builds the robot's interleaved note/duration byte representation of
// a score and splits it across song slots.
type Song struct {
	score []byte
}

// AddNote appends one note (or a rest, for an empty name) to the score.
func (s *Song) AddNote(name string, octave int, duration byte) error {
	code := byte(NoteRest)
	if name != "" {
		var err error
		code, err = NoteNumber(name, octave)
		if err != nil {
			return err
		}
	}
	s.score = append(s.score, code, duration)
	return nil
}

// Encode replaces the score with the encoding of the given notes.
func (s *Song) Encode(notes []Note) error {
	s.score = nil
	for _, n := range notes {
		if err := s.AddNote(n.Name, n.Octave, n.Duration); err != nil {
			return err
		}
	}
	return nil
}

// Score returns the interleaved note/duration byte sequence.
func (s *Song) Score() []byte {
	return s.score
}

// Clear empties the score.
func (s *Song) Clear() {
	s.score = nil
}

// Split chunks the score into slot-sized pieces of at most SongMaxNotes
// note/duration pairs each, in playback order.
func (s *Song) Split() [][]byte {
	const chunk = 2 * SongMaxNotes
	var parts [][]byte
	for i := 0; i < len(s.score); i += chunk {
		end := i + chunk
		if end > len(s.score) {
			end = len(s.score)
		}
		parts = append(parts, s.score[i:end])
	}
	return parts
}

// ChangeTempo scales every duration byte by ratio, truncating to 8 bits.
// The transform is lossy and in place; re-split afterwards if the score had
// already been chunked.
func (s *Song) ChangeTempo(ratio float64) {
	for i := 1; i < len(s.score); i += 2 {
		s.score[i] = byte(int(float64(s.score[i]) * ratio))
	}
}
