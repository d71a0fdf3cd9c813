// Package audio plays the song and reports where playback is, which is
// what the session clock reconciles against.
package audio

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
)

var ErrUnsupported = errors.New("audio: unsupported file type")

type decoder func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decoder{
	".mp3": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(f) },
	".ogg": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return vorbis.Decode(f) },
	".wav": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(f) },
}

// The speaker can only be initialised once per process.
var speakerOnce sync.Once

type Player struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	done     chan struct{}
}

func Open(file string) (*Player, error) {
	decode, ok := decoders[strings.ToLower(path.Ext(file))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, file)
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}
	// The decoder owns f from here and closes it with the streamer.
	streamer, format, err := decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("audio: unable to decode %s: %w", file, err)
	}
	return &Player{
		streamer: streamer,
		format:   format,
		ctrl:     &beep.Ctrl{Streamer: streamer},
		done:     make(chan struct{}),
	}, nil
}

// Length is the duration of the whole song.
func (p *Player) Length() time.Duration {
	return p.format.SampleRate.D(p.streamer.Len())
}

// Play starts playback from the beginning.
func (p *Player) Play() error {
	var err error
	speakerOnce.Do(func() {
		err = speaker.Init(p.format.SampleRate, p.format.SampleRate.N(time.Second/60))
	})
	if err != nil {
		return fmt.Errorf("audio: unable to open speaker: %w", err)
	}
	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		close(p.done)
	})))
	return nil
}

// Position is how much of the song has been sent to the speaker.
func (p *Player) Position() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	return p.format.SampleRate.D(p.streamer.Position())
}

func (p *Player) SetPaused(paused bool) {
	speaker.Lock()
	p.ctrl.Paused = paused
	speaker.Unlock()
}

// Done is closed once the song has played to the end.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

func (p *Player) Close() error {
	speaker.Lock()
	p.ctrl.Streamer = nil
	speaker.Unlock()
	return p.streamer.Close()
}
