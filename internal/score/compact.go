package score

import (
	"time"

	"git.lost.host/meutraa/stepjudge/internal/game"
)

// InputsCompact stores the input times of one lane, which is much smaller
// than a list of (lane, time) pairs once encoded.
type InputsCompact struct {
	Lane  int
	Times []time.Duration
}

func compactInputs(inputs []game.Input) []InputsCompact {
	laneCount := 0
	for _, i := range inputs {
		if i.Lane+1 > laneCount {
			laneCount = i.Lane + 1
		}
	}
	ins := make([]InputsCompact, laneCount)
	for l := range ins {
		ins[l] = InputsCompact{Lane: l, Times: []time.Duration{}}
	}
	for _, i := range inputs {
		if i.Lane < 0 {
			continue
		}
		ins[i.Lane].Times = append(ins[i.Lane].Times, i.Time)
	}
	return ins
}

// uncompactInputs keeps the order of each lane. Lanes are judged
// independently, so the order across lanes is not needed.
func uncompactInputs(inputs []InputsCompact) []game.Input {
	ins := []game.Input{}
	for _, i := range inputs {
		for _, t := range i.Times {
			ins = append(ins, game.Input{Lane: i.Lane, Time: t})
		}
	}
	return ins
}
