// Package score aggregates judgement results into a running score and
// keeps a history of finished runs.
package score

import (
	"math"
	"time"

	"git.lost.host/meutraa/stepjudge/internal/game"
)

// Points awarded per hit tier.
type Points map[game.Tier]int

func DefaultPoints() Points {
	return Points{
		game.TierPerfect: 300,
		game.TierGreat:   100,
		game.TierGood:    50,
	}
}

type State struct {
	Score    int
	Combo    int
	MaxCombo int
	Hits     int
	Misses   int
	Counts   map[game.Tier]int

	// Hit timing error, positive is late
	MeanError  time.Duration
	StdevError time.Duration
}

// Accuracy is the share of judged notes that were hit.
func (s State) Accuracy() float64 {
	judged := s.Hits + s.Misses
	if judged == 0 {
		return 0
	}
	return float64(s.Hits) / float64(judged)
}

// Aggregator applies results in the order it receives them. It trusts the
// matcher to deliver each note's result once and does no deduplication.
type Aggregator struct {
	points Points
	state  State

	// Welford accumulators for the hit error, in nanoseconds
	mean float64
	m2   float64
}

func NewAggregator(points Points) *Aggregator {
	if points == nil {
		points = DefaultPoints()
	}
	return &Aggregator{
		points: points,
		state:  State{Counts: map[game.Tier]int{}},
	}
}

func (a *Aggregator) Apply(r game.Result) {
	switch r.Judgement {
	case game.Hit:
		a.state.Score += a.points[r.Tier]
		a.state.Combo++
		if a.state.Combo > a.state.MaxCombo {
			a.state.MaxCombo = a.state.Combo
		}
		a.state.Hits++
		a.state.Counts[r.Tier]++

		x := float64(r.Delta)
		d := x - a.mean
		a.mean += d / float64(a.state.Hits)
		a.m2 += d * (x - a.mean)
		a.state.MeanError = time.Duration(math.Round(a.mean))
		if a.state.Hits > 1 {
			a.state.StdevError = time.Duration(math.Round(math.Sqrt(a.m2 / float64(a.state.Hits-1))))
		}
	case game.Missed:
		a.state.Combo = 0
		a.state.Misses++
		a.state.Counts[game.TierMiss]++
	}
}

// State returns a copy that later results do not modify.
func (a *Aggregator) State() State {
	s := a.state
	s.Counts = make(map[game.Tier]int, len(a.state.Counts))
	for k, v := range a.state.Counts {
		s.Counts[k] = v
	}
	return s
}
