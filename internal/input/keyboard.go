// Package input turns terminal key presses into lane presses.
package input

import (
	"context"
	"fmt"

	"github.com/eiannone/keyboard"
)

type Action uint8

const (
	ActionNone Action = iota
	ActionLane
	ActionPause
	ActionQuit
)

type Event struct {
	Action Action
	Lane   int
}

// LaneFunc maps a key to its lane, or -1 when the key is unbound.
type LaneFunc func(r rune) int

// Translate maps a key press to an event. Esc and Ctrl-C quit, space
// toggles pause, everything else is looked up with laneOf.
func Translate(key keyboard.Key, r rune, laneOf LaneFunc) Event {
	switch key {
	case keyboard.KeyEsc, keyboard.KeyCtrlC:
		return Event{Action: ActionQuit}
	case keyboard.KeySpace:
		return Event{Action: ActionPause}
	}
	if r == 0 {
		return Event{}
	}
	if lane := laneOf(r); lane >= 0 {
		return Event{Action: ActionLane, Lane: lane}
	}
	return Event{}
}

type Keyboard struct {
	keys   <-chan keyboard.KeyEvent
	laneOf LaneFunc
}

// Open puts the terminal into keyboard mode. Close must be called to
// restore it.
func Open(buffer int, laneOf LaneFunc) (*Keyboard, error) {
	keys, err := keyboard.GetKeys(buffer)
	if nil != err {
		return nil, fmt.Errorf("input: unable to open keyboard: %w", err)
	}
	return &Keyboard{keys: keys, laneOf: laneOf}, nil
}

// Listen calls handle for each event until ctx is done, the keyboard is
// closed or handle returns false. Presses are handled as they arrive so
// their timestamps do not wait for the next frame.
func (k *Keyboard) Listen(ctx context.Context, handle func(Event) bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-k.keys:
			if !ok {
				return nil
			}
			if ev.Err != nil {
				return fmt.Errorf("input: %w", ev.Err)
			}
			e := Translate(ev.Key, ev.Rune, k.laneOf)
			if e.Action == ActionNone {
				continue
			}
			if !handle(e) {
				return nil
			}
		}
	}
}

func (k *Keyboard) Close() error {
	return keyboard.Close()
}
