// Package session runs one playthrough of a beatmap: it owns the song
// clock, the matcher and the score, and serializes every call against
// them behind a single lock.
package session

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"git.lost.host/meutraa/stepjudge/internal/clock"
	"git.lost.host/meutraa/stepjudge/internal/game"
	"git.lost.host/meutraa/stepjudge/internal/match"
	"git.lost.host/meutraa/stepjudge/internal/score"
)

type Status uint8

const (
	Idle Status = iota
	Running
	Paused
	Ended
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	}
	return "unknown"
}

// Recorder receives every input the session accepted, in arrival order.
type Recorder interface {
	Record(in game.Input)
}

// InputLog is a Recorder that keeps inputs in memory.
type InputLog struct {
	mu     sync.Mutex
	inputs []game.Input
}

func (l *InputLog) Record(in game.Input) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inputs = append(l.inputs, in)
}

func (l *InputLog) Inputs() []game.Input {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]game.Input, len(l.inputs))
	copy(out, l.inputs)
	return out
}

type Option func(*Session)

// WithClock replaces the local monotonic clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithDriftThreshold(d time.Duration) Option {
	return func(s *Session) { s.threshold = d }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithOffset shifts inputs stamped by Press, to compensate for input
// or display latency.
func WithOffset(d time.Duration) Option {
	return func(s *Session) { s.offset = d }
}

type Session struct {
	mu     sync.Mutex
	id     string
	status Status

	now       func() time.Time
	threshold time.Duration
	offset    time.Duration
	logger    *log.Logger
	recorder  Recorder

	clock   *clock.Reconciler
	matcher *match.Matcher
	score   *score.Aggregator
}

func New(b *game.Beatmap, p game.Policy, points score.Points, opts ...Option) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		id:        uuid.NewString(),
		threshold: clock.DefaultDriftThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	s.logger = s.logger.With("session", s.id)
	s.clock = clock.NewReconciler(s.threshold, s.now)
	s.matcher = match.New(b, p)
	s.score = score.NewAggregator(points)
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Beatmap() *game.Beatmap {
	return s.matcher.Beatmap()
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) transition(to Status) {
	s.logger.Debug("session transition", "from", s.status, "to", to)
	s.status = to
}

// usable is checked under the lock by every operation that judges notes.
func (s *Session) usable() error {
	switch s.status {
	case Idle:
		return game.ErrClockNotStarted
	case Ended:
		return game.ErrSessionEnded
	}
	return nil
}

func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != Idle {
		return fmt.Errorf("%w: start while %v", game.ErrInvalidTransition, s.status)
	}
	s.clock.Start()
	s.transition(Running)
	s.logger.Debug("session started", "beatmap", s.matcher.Beatmap().Name(), "notes", len(s.matcher.Beatmap().Notes))
	return nil
}

// Tick judges every note whose window closed before the current song
// time. Ticks while paused do nothing.
func (s *Session) Tick() ([]game.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return nil, err
	}
	if s.status == Paused {
		return nil, nil
	}
	now, err := s.clock.Now()
	if err != nil {
		return nil, err
	}
	return s.tick(now), nil
}

// TickAt ticks with a song time chosen by the caller instead of the
// session clock.
func (s *Session) TickAt(songTime time.Duration) ([]game.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return nil, err
	}
	if s.status == Paused {
		return nil, nil
	}
	return s.tick(songTime), nil
}

func (s *Session) tick(songTime time.Duration) []game.Result {
	results := s.matcher.OnTick(songTime)
	for _, r := range results {
		s.score.Apply(r)
	}
	return results
}

// Input judges a lane activation already stamped in song time.
func (s *Session) Input(in game.Input) (game.Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return game.Result{}, false, err
	}
	if s.status == Paused {
		return game.Result{}, false, game.ErrSessionPaused
	}
	return s.input(in)
}

// Press stamps a lane activation with the current song time.
func (s *Session) Press(lane int) (game.Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return game.Result{}, false, err
	}
	if s.status == Paused {
		return game.Result{}, false, game.ErrSessionPaused
	}
	now, err := s.clock.Now()
	if err != nil {
		return game.Result{}, false, err
	}
	return s.input(game.Input{Lane: lane, Time: now + s.offset})
}

func (s *Session) input(in game.Input) (game.Result, bool, error) {
	if s.recorder != nil {
		s.recorder.Record(in)
	}
	r, ok := s.matcher.OnInput(in)
	if ok {
		s.score.Apply(r)
	}
	return r, ok, nil
}

// ReportAudio feeds the audio player position into the song clock.
func (s *Session) ReportAudio(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	resynced, err := s.clock.ReportAudioPosition(pos)
	if err != nil {
		return err
	}
	if resynced {
		s.logger.Debug("song clock resynced", "position", pos, "resyncs", s.clock.Resyncs())
	}
	return nil
}

func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != Running {
		return fmt.Errorf("%w: pause while %v", game.ErrInvalidTransition, s.status)
	}
	if err := s.clock.Pause(); err != nil {
		return err
	}
	s.transition(Paused)
	return nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != Paused {
		return fmt.Errorf("%w: resume while %v", game.ErrInvalidTransition, s.status)
	}
	if err := s.clock.Resume(); err != nil {
		return err
	}
	s.transition(Running)
	return nil
}

// End stops the session. Nothing is judged after End returns, and every
// later call fails with ErrSessionEnded.
func (s *Session) End() (score.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == Ended {
		return score.State{}, game.ErrSessionEnded
	}
	s.transition(Ended)
	st := s.score.State()
	s.logger.Info("session ended", "score", st.Score, "max_combo", st.MaxCombo, "remaining", s.matcher.Remaining())
	return st, nil
}

func (s *Session) Score() score.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score.State()
}

func (s *Session) SongTime() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return 0, err
	}
	return s.clock.Now()
}

// Pending lists the unjudged notes due within horizon of the current
// song time, for presentation.
func (s *Session) Pending(horizon time.Duration) ([]match.PendingNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return nil, err
	}
	now, err := s.clock.Now()
	if err != nil {
		return nil, err
	}
	return s.matcher.Pending(now, horizon), nil
}

func (s *Session) States() []game.NoteState {
	return s.matcher.States()
}

// Done reports whether every note has been judged.
func (s *Session) Done() bool {
	return s.matcher.Done()
}
