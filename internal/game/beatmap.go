package game

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"sort"
)

// DefaultLanes is the lane count used when a document does not name one.
const DefaultLanes = 4

// MaxLanes bounds the lane count of any beatmap.
const MaxLanes = 16

// Beatmap is an immutable, time ordered list of notes.
// Build one with NewBeatmap, never by hand.
type Beatmap struct {
	Title      string
	Artist     string
	Audio      string // Audio file name relative to the beatmap, if known
	Difficulty Difficulty
	Lanes      int
	Notes      []Note
}

// NewBeatmap validates notes and returns them sorted by time, then lane.
// Any rejected note fails the whole load with ErrMalformedBeatmap.
func NewBeatmap(lanes int, notes []Note) (*Beatmap, error) {
	if lanes <= 0 || lanes > MaxLanes {
		return nil, fmt.Errorf("%w: lane count %d outside [1, %d]", ErrMalformedBeatmap, lanes, MaxLanes)
	}
	sorted := make([]Note, len(notes))
	copy(sorted, notes)
	for i, n := range sorted {
		if n.Lane < 0 || n.Lane >= lanes {
			return nil, fmt.Errorf("%w: note %d lane %d outside [0, %d)", ErrMalformedBeatmap, i, n.Lane, lanes)
		}
		if n.Time < 0 {
			return nil, fmt.Errorf("%w: note %d has negative time %v", ErrMalformedBeatmap, i, n.Time)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Time != sorted[j].Time {
			return sorted[i].Time < sorted[j].Time
		}
		return sorted[i].Lane < sorted[j].Lane
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, fmt.Errorf("%w: duplicate note %v", ErrMalformedBeatmap, sorted[i])
		}
	}
	return &Beatmap{
		Lanes:      lanes,
		Notes:      sorted,
		Difficulty: Difficulty{Lanes: lanes},
	}, nil
}

// Hash identifies the playable content of the beatmap. Metadata is not
// part of it, so renaming a chart keeps its history.
func (b *Beatmap) Hash() string {
	h := sha256.New()
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(b.Lanes))
	h.Write(buf)
	for _, n := range b.Notes {
		binary.LittleEndian.PutUint64(buf, uint64(n.Lane))
		h.Write(buf)
		binary.LittleEndian.PutUint64(buf, uint64(n.Time))
		h.Write(buf)
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// LaneCounts returns the number of notes in each lane.
func (b *Beatmap) LaneCounts() []int {
	counts := make([]int, b.Lanes)
	for _, n := range b.Notes {
		counts[n.Lane]++
	}
	return counts
}

// Name is a display name for logs and listings.
func (b *Beatmap) Name() string {
	name := b.Title
	if name == "" {
		name = "untitled"
	}
	if b.Difficulty.Name != "" {
		name += " [" + b.Difficulty.Name + "]"
	}
	return name
}
