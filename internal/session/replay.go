package session

import (
	"sort"
	"time"

	"git.lost.host/meutraa/stepjudge/internal/game"
	"git.lost.host/meutraa/stepjudge/internal/match"
	"git.lost.host/meutraa/stepjudge/internal/score"
)

// Replay judges recorded inputs against a fresh copy of the beatmap and
// returns the final score. Inputs are matched before any note is closed,
// which matches a live run whose inputs were all delivered on time. Results
// are scored in the order a live run judges them: hits at their input time,
// misses once their deadline has passed.
func Replay(b *game.Beatmap, p game.Policy, points score.Points, inputs []game.Input) (score.State, []game.NoteState, error) {
	if err := p.Validate(); err != nil {
		return score.State{}, nil, err
	}
	m := match.New(b, p)
	var results []game.Result
	for _, in := range inputs {
		if r, ok := m.OnInput(in); ok {
			results = append(results, r)
		}
	}
	results = append(results, m.OnTick(m.LastDeadline()+time.Nanosecond)...)
	judgedAt := func(r game.Result) time.Duration {
		if r.Judgement == game.Missed {
			return p.Deadline(b.Notes[r.Note])
		}
		return r.JudgedAt
	}
	sort.SliceStable(results, func(i, j int) bool {
		x, y := results[i], results[j]
		if tx, ty := judgedAt(x), judgedAt(y); tx != ty {
			return tx < ty
		}
		// A miss needs song time past its deadline, so a hit at the same
		// instant comes first.
		if x.Judgement != y.Judgement {
			return x.Judgement == game.Hit
		}
		return x.Note < y.Note
	})

	agg := score.NewAggregator(points)
	for _, r := range results {
		agg.Apply(r)
	}
	return agg.State(), m.States(), nil
}
