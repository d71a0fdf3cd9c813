// Package match judges notes of a beatmap against timed lane inputs.
//
// Every note goes Pending -> Hit or Pending -> Missed exactly once. Notes
// are indexed per lane in time order with an advancing head per lane, so a
// judged note is never visited by a tick again.
package match

import (
	"sort"
	"sync"
	"time"

	"git.lost.host/meutraa/stepjudge/internal/game"
)

type PendingNote struct {
	Index int
	game.Note
}

type Matcher struct {
	mu sync.Mutex

	beatmap *game.Beatmap
	policy  game.Policy
	early   time.Duration
	late    time.Duration

	states    []game.NoteState
	lanes     [][]int // Note indexes of each lane, in time order
	heads     []int   // Position in lanes[l] before which every note is judged
	remaining int
}

func New(beatmap *game.Beatmap, policy game.Policy) *Matcher {
	m := &Matcher{
		beatmap:   beatmap,
		policy:    policy,
		states:    make([]game.NoteState, len(beatmap.Notes)),
		lanes:     make([][]int, beatmap.Lanes),
		heads:     make([]int, beatmap.Lanes),
		remaining: len(beatmap.Notes),
	}
	m.early, m.late = policy.Reach()
	// Beatmap notes are already sorted by time
	for i, n := range beatmap.Notes {
		m.lanes[n.Lane] = append(m.lanes[n.Lane], i)
	}
	return m
}

func (m *Matcher) Beatmap() *game.Beatmap {
	return m.beatmap
}

func (m *Matcher) Policy() game.Policy {
	return m.policy
}

// OnTick misses every pending note whose deadline is before songTime.
// Results are in beatmap order.
func (m *Matcher) OnTick(songTime time.Duration) []game.Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	var results []game.Result
	for l, idx := range m.lanes {
		h := m.heads[l]
		for ; h < len(idx); h++ {
			i := idx[h]
			if m.states[i].Judged() {
				continue
			}
			note := m.beatmap.Notes[i]
			if m.policy.Deadline(note) >= songTime {
				break
			}
			m.states[i] = game.NoteState{
				Judgement: game.Missed,
				Tier:      game.TierMiss,
				JudgedAt:  songTime,
			}
			m.remaining--
			results = append(results, game.Result{
				Note:      i,
				Lane:      note.Lane,
				Judgement: game.Missed,
				Tier:      game.TierMiss,
				JudgedAt:  songTime,
			})
		}
		m.heads[l] = h
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Note < results[j].Note
	})
	return results
}

// OnInput hits the pending note of the lane closest to the input time,
// preferring the earlier note on an exact tie. Inputs that reach no
// pending note are discarded and reported with false.
func (m *Matcher) OnInput(in game.Input) (game.Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if in.Lane < 0 || in.Lane >= len(m.lanes) {
		return game.Result{}, false
	}
	idx := m.lanes[in.Lane]
	notes := m.beatmap.Notes

	// Skip straight to the first note the input can still reach
	h := m.heads[in.Lane]
	h += sort.Search(len(idx)-h, func(k int) bool {
		return notes[idx[h+k]].Time >= in.Time-m.late
	})

	best := -1
	var bestAbs time.Duration
	for ; h < len(idx); h++ {
		i := idx[h]
		delta := in.Time - notes[i].Time
		if delta < -m.early {
			break
		}
		if m.states[i].Judged() || m.policy.Classify(delta) == game.TierNone {
			continue
		}
		if a := abs(delta); best == -1 || a < bestAbs {
			best, bestAbs = i, a
		}
	}
	if best == -1 {
		return game.Result{}, false
	}

	delta := in.Time - notes[best].Time
	tier := m.policy.Classify(delta)
	m.states[best] = game.NoteState{
		Judgement: game.Hit,
		Tier:      tier,
		Delta:     delta,
		JudgedAt:  in.Time,
	}
	m.remaining--
	m.advance(in.Lane)

	return game.Result{
		Note:      best,
		Lane:      in.Lane,
		Judgement: game.Hit,
		Tier:      tier,
		Delta:     delta,
		JudgedAt:  in.Time,
	}, true
}

func (m *Matcher) advance(lane int) {
	idx := m.lanes[lane]
	h := m.heads[lane]
	for h < len(idx) && m.states[idx[h]].Judged() {
		h++
	}
	m.heads[lane] = h
}

// Pending returns the unjudged notes with a time up to songTime + horizon,
// in time order.
func (m *Matcher) Pending(songTime, horizon time.Duration) []PendingNote {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit := songTime + horizon
	var pending []PendingNote
	for l, idx := range m.lanes {
		for h := m.heads[l]; h < len(idx); h++ {
			i := idx[h]
			note := m.beatmap.Notes[i]
			if note.Time > limit {
				break
			}
			if !m.states[i].Judged() {
				pending = append(pending, PendingNote{Index: i, Note: note})
			}
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Index < pending[j].Index
	})
	return pending
}

func (m *Matcher) State(i int) (game.NoteState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.states) {
		return game.NoteState{}, false
	}
	return m.states[i], true
}

func (m *Matcher) States() []game.NoteState {
	m.mu.Lock()
	defer m.mu.Unlock()
	states := make([]game.NoteState, len(m.states))
	copy(states, m.states)
	return states
}

func (m *Matcher) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining
}

func (m *Matcher) Done() bool {
	return m.Remaining() == 0
}

// LastDeadline is the song time after which a tick judges every note.
func (m *Matcher) LastDeadline() time.Duration {
	notes := m.beatmap.Notes
	if len(notes) == 0 {
		return 0
	}
	return m.policy.Deadline(notes[len(notes)-1])
}

func abs(x time.Duration) time.Duration {
	if x < 0 {
		return -x
	}
	return x
}
