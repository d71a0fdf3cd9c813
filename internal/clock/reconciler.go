// Package clock fuses the local monotonic clock with the position
// reported by the audio player into a single song time.
package clock

import (
	"sync"
	"time"

	"git.lost.host/meutraa/stepjudge/internal/game"
)

const DefaultDriftThreshold = 50 * time.Millisecond

type Report struct {
	At       time.Time     // Local time the report was received
	Position time.Duration // Audio position that was reported
}

// Reconciler keeps song time = audio anchor + monotonic time since the
// anchor. Audio reports that disagree by more than the threshold re-anchor
// both clocks at once.
type Reconciler struct {
	mu  sync.Mutex
	now func() time.Time

	threshold   time.Duration
	started     bool
	monoAnchor  time.Time
	audioAnchor time.Duration
	lastReport  Report
	drift       time.Duration
	resyncs     int

	// Song time is never reported below last
	last     time.Duration
	paused   bool
	pausedAt time.Duration
}

// NewReconciler uses time.Now when now is nil and the default threshold
// when threshold is not positive.
func NewReconciler(threshold time.Duration, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	if threshold <= 0 {
		threshold = DefaultDriftThreshold
	}
	return &Reconciler{now: now, threshold: threshold}
}

func (r *Reconciler) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	r.monoAnchor = r.now()
	r.audioAnchor = 0
	r.last = 0
	r.drift = 0
	r.paused = false
}

func (r *Reconciler) raw(at time.Time) time.Duration {
	return r.audioAnchor + at.Sub(r.monoAnchor)
}

// Now returns the authoritative song time.
func (r *Reconciler) Now() (time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.songTime()
}

func (r *Reconciler) songTime() (time.Duration, error) {
	if !r.started {
		return 0, game.ErrClockNotStarted
	}
	if r.paused {
		return r.pausedAt, nil
	}
	t := r.raw(r.now())
	if t < r.last {
		// A backward resync holds song time until real time catches up
		return r.last, nil
	}
	r.last = t
	return t, nil
}

// ReportAudioPosition records the audio player position and resyncs when
// the drift exceeds the threshold. It reports whether a resync happened.
func (r *Reconciler) ReportAudioPosition(pos time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return false, game.ErrClockNotStarted
	}
	at := r.now()
	r.lastReport = Report{At: at, Position: pos}
	if r.paused {
		return false, nil
	}
	r.drift = r.raw(at) - pos
	if abs(r.drift) <= r.threshold {
		return false, nil
	}
	r.monoAnchor = at
	r.audioAnchor = pos
	r.drift = 0
	r.resyncs++
	return true, nil
}

func (r *Reconciler) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.songTime()
	if err != nil {
		return err
	}
	r.paused = true
	r.pausedAt = t
	return nil
}

// Resume continues song time exactly where Pause left it.
func (r *Reconciler) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return game.ErrClockNotStarted
	}
	if !r.paused {
		return nil
	}
	r.paused = false
	r.monoAnchor = r.now()
	r.audioAnchor = r.pausedAt
	r.last = r.pausedAt
	return nil
}

func (r *Reconciler) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// Drift is expected minus reported audio position at the last report
// that did not cause a resync.
func (r *Reconciler) Drift() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drift
}

func (r *Reconciler) Resyncs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resyncs
}

func (r *Reconciler) LastReport() Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastReport
}

func abs(x time.Duration) time.Duration {
	if x < 0 {
		return -x
	}
	return x
}
