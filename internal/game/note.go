package game

import (
	"fmt"
	"math"
	"time"
)

type Note struct {
	Lane int           // The column the note scrolls down
	Time time.Duration // The song time the note should be hit
}

func (n Note) String() string {
	return fmt.Sprintf("%d@%v", n.Lane, n.Time)
}

type Judgement uint8

const (
	Pending Judgement = iota
	Hit
	Missed
)

func (j Judgement) String() string {
	switch j {
	case Pending:
		return "pending"
	case Hit:
		return "hit"
	case Missed:
		return "missed"
	}
	return "unknown"
}

// NoteState is attached 1:1 to a Note of a loaded beatmap.
// Once Judgement leaves Pending it never changes again.
type NoteState struct {
	Judgement Judgement
	Tier      Tier
	Delta     time.Duration // Input time - note time, zero for misses
	JudgedAt  time.Duration // Song time of the judgement
}

func (s NoteState) Judged() bool {
	return s.Judgement != Pending
}

// Input is a lane activation reported by an external detector,
// stamped in song time.
type Input struct {
	Lane int
	Time time.Duration
}

// Result is emitted exactly once per note.
type Result struct {
	Note      int // Index of the note in the beatmap
	Lane      int
	Judgement Judgement
	Tier      Tier
	Delta     time.Duration
	JudgedAt  time.Duration
}

// Seconds converts a float seconds value from a document or an audio
// device into a duration, rounding to the nearest nanosecond.
func Seconds(s float64) (time.Duration, error) {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, fmt.Errorf("time %v is not a finite number", s)
	}
	if s > math.MaxInt64/float64(time.Second) || s < math.MinInt64/float64(time.Second) {
		return 0, fmt.Errorf("time %v out of range", s)
	}
	return time.Duration(math.Round(s * float64(time.Second))), nil
}
