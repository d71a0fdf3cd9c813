package game

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Tier uint8

const (
	TierNone Tier = iota
	TierPerfect
	TierGreat
	TierGood
	TierMiss
)

var tierNames = [...]string{
	TierNone:    "none",
	TierPerfect: "perfect",
	TierGreat:   "great",
	TierGood:    "good",
	TierMiss:    "miss",
}

func (t Tier) String() string {
	if int(t) < len(tierNames) {
		return tierNames[t]
	}
	return fmt.Sprintf("tier(%d)", t)
}

func ParseTier(s string) (Tier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range tierNames {
		if name == s {
			return Tier(i), nil
		}
	}
	return TierNone, fmt.Errorf("unknown tier %q", s)
}

// Window accepts deltas in [-Early, Late], both bounds inclusive.
type Window struct {
	Tier  Tier
	Early time.Duration
	Late  time.Duration
}

// Policy is the tolerance table, ordered from tightest to loosest window.
type Policy struct {
	Windows []Window

	// A pending note is missed once song time passes Time + MissAfter + LateGrace.
	MissAfter time.Duration
	// LateGrace holds auto-misses back for detectors that deliver late.
	LateGrace time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Windows: []Window{
			{Tier: TierPerfect, Early: 50 * time.Millisecond, Late: 50 * time.Millisecond},
			{Tier: TierGreat, Early: 90 * time.Millisecond, Late: 90 * time.Millisecond},
			{Tier: TierGood, Early: 120 * time.Millisecond, Late: 120 * time.Millisecond},
		},
		MissAfter: 150 * time.Millisecond,
	}
}

// Classify maps delta (input time - note time) to the tightest window
// containing it, or TierNone.
func (p *Policy) Classify(delta time.Duration) Tier {
	for _, w := range p.Windows {
		if delta < 0 && -delta <= w.Early {
			return w.Tier
		}
		if delta >= 0 && delta <= w.Late {
			return w.Tier
		}
	}
	return TierNone
}

// Reach returns the loosest early and late bounds of the table.
func (p *Policy) Reach() (early, late time.Duration) {
	for _, w := range p.Windows {
		if w.Early > early {
			early = w.Early
		}
		if w.Late > late {
			late = w.Late
		}
	}
	return early, late
}

// Deadline is the song time after which a still pending note is missed.
func (p *Policy) Deadline(n Note) time.Duration {
	return n.Time + p.MissAfter + p.LateGrace
}

func (p *Policy) Validate() error {
	if len(p.Windows) == 0 {
		return errors.New("policy: no judgement windows")
	}
	seen := map[Tier]bool{}
	var prev Window
	for i, w := range p.Windows {
		if w.Tier == TierNone || w.Tier == TierMiss {
			return fmt.Errorf("policy: window %d has non scoring tier %v", i, w.Tier)
		}
		if seen[w.Tier] {
			return fmt.Errorf("policy: tier %v listed twice", w.Tier)
		}
		seen[w.Tier] = true
		if w.Early < 0 || w.Late < 0 {
			return fmt.Errorf("policy: window %v has a negative bound", w.Tier)
		}
		if i > 0 && (w.Early < prev.Early || w.Late < prev.Late) {
			return fmt.Errorf("policy: window %v is tighter than %v", w.Tier, prev.Tier)
		}
		prev = w
	}
	if p.LateGrace < 0 {
		return errors.New("policy: negative late grace")
	}
	if _, late := p.Reach(); p.MissAfter < late {
		return fmt.Errorf("policy: miss after %v is inside the late window %v", p.MissAfter, late)
	}
	return nil
}
