package game

import "errors"

var (
	ErrMalformedBeatmap  = errors.New("malformed beatmap")
	ErrClockNotStarted   = errors.New("clock not started")
	ErrSessionEnded      = errors.New("session ended")
	ErrSessionPaused     = errors.New("session paused")
	ErrInvalidTransition = errors.New("invalid session transition")
)
