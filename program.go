package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"git.lost.host/meutraa/stepjudge/internal/audio"
	"git.lost.host/meutraa/stepjudge/internal/config"
	"git.lost.host/meutraa/stepjudge/internal/game"
	"git.lost.host/meutraa/stepjudge/internal/input"
	"git.lost.host/meutraa/stepjudge/internal/parser"
	"git.lost.host/meutraa/stepjudge/internal/render"
	"git.lost.host/meutraa/stepjudge/internal/score"
	"git.lost.host/meutraa/stepjudge/internal/session"
	"git.lost.host/meutraa/stepjudge/internal/theme"
)

const (
	columnSpacing = 6
	barRow        = 8
	// How long the board stays up after the last note is judged.
	outro = 2 * time.Second
)

// Program plays one beatmap in the terminal.
type Program struct {
	Config  *config.Config
	Logger  *log.Logger
	Beatmap *game.Beatmap
	Song    parser.Song
	Policy  game.Policy
	Points  score.Points
	Store   *score.Store

	session  *session.Session
	player   *audio.Player
	renderer render.Renderer
	board    *render.Board
	inputs   session.InputLog
	flashes  chan game.Result
	tempDir  string
}

func (p *Program) Init() error {
	var err error
	p.session, err = session.New(p.Beatmap, p.Policy, p.Points,
		session.WithLogger(p.Logger),
		session.WithRecorder(&p.inputs),
		session.WithOffset(p.Config.Offset),
		session.WithDriftThreshold(p.Config.DriftThreshold),
	)
	if nil != err {
		return err
	}
	p.flashes = make(chan game.Result, 128)

	if p.Config.Mute {
		return nil
	}
	audioFile, err := p.audioFile()
	if nil != err {
		return err
	}
	if audioFile == "" {
		p.Logger.Warn("no audio found, playing on the system clock")
		return nil
	}
	p.Logger.Info("opening audio", "file", audioFile, "chart", p.Song.Chart)
	p.player, err = audio.Open(audioFile)
	return err
}

func (p *Program) audioFile() (string, error) {
	if p.Config.Audio != "" {
		return p.Config.Audio, nil
	}
	if strings.ToLower(path.Ext(p.Song.Chart)) == ".osz" && p.Beatmap.Audio != "" {
		dir, err := os.MkdirTemp("", "stepjudge")
		if nil != err {
			return "", err
		}
		p.tempDir = dir
		return parser.ExtractAudio(p.Song.Chart, p.Beatmap.Audio, dir)
	}
	return p.Song.Audio, nil
}

// Run plays until the beatmap is finished or the player quits, and
// returns the final score.
func (p *Program) Run(ctx context.Context) (score.State, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	kbd, err := input.Open(128, func(r rune) int {
		return p.Config.KeyLane(r, p.Beatmap.Lanes)
	})
	if nil != err {
		return score.State{}, err
	}
	defer func() {
		if err := kbd.Close(); nil != err {
			p.Logger.Error("unable to close keyboard", "err", err)
		}
	}()

	p.renderer = render.NewTerminal(os.Stdout)
	if err := p.renderer.Init(); nil != err {
		return score.State{}, err
	}
	p.board = render.NewBoard(p.renderer, &theme.DefaultTheme{}, p.Beatmap.Lanes, columnSpacing, barRow)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := kbd.Listen(ctx, p.handle(cancel)); nil != err && !errors.Is(err, context.Canceled) {
			p.Logger.Error("keyboard", "err", err)
			cancel()
		}
	}()

	startAt := time.Now().Add(p.Config.Delay)
	var doneAt time.Duration = -1
	var runErr error
	p.renderer.RenderLoop(p.Config.FramePeriod, func(now time.Time) bool {
		if ctx.Err() != nil {
			return false
		}
		if p.session.Status() == session.Idle {
			if now.Before(startAt) {
				p.board.Draw(render.Frame{Horizon: p.Config.Horizon, Notes: len(p.Beatmap.Notes)})
				return true
			}
			if runErr = p.start(); nil != runErr {
				return false
			}
		}

		songTime, err := p.frame()
		if nil != err {
			runErr = err
			return false
		}
		if p.session.Done() {
			if doneAt < 0 {
				doneAt = songTime
			}
			return songTime-doneAt < outro
		}
		return true
	})
	cancel()
	wg.Wait()

	if err := p.renderer.Deinit(); nil != err {
		p.Logger.Error("unable to restore terminal", "err", err)
	}
	state, err := p.session.End()
	if nil != runErr {
		return state, runErr
	}
	return state, err
}

func (p *Program) start() error {
	if err := p.session.Start(); nil != err {
		return err
	}
	if p.player != nil {
		return p.player.Play()
	}
	return nil
}

// frame advances the session to the current song time and draws it.
func (p *Program) frame() (time.Duration, error) {
	paused := p.session.Status() == session.Paused
	if p.player != nil && !paused {
		if err := p.session.ReportAudio(p.player.Position()); nil != err {
			return 0, err
		}
	}
	misses, err := p.session.Tick()
	if nil != err {
		return 0, err
	}
	for _, r := range misses {
		p.board.Flash(r)
	}
	for drained := false; !drained; {
		select {
		case r := <-p.flashes:
			p.board.Flash(r)
		default:
			drained = true
		}
	}

	songTime, err := p.session.SongTime()
	if nil != err {
		return 0, err
	}
	pending, err := p.session.Pending(p.Config.Horizon)
	if nil != err {
		return 0, err
	}
	p.board.Draw(render.Frame{
		SongTime: songTime,
		Horizon:  p.Config.Horizon,
		Pending:  pending,
		Score:    p.session.Score(),
		Notes:    len(p.Beatmap.Notes),
		Paused:   paused,
	})
	return songTime, nil
}

// handle judges presses as soon as they arrive, off the render loop.
func (p *Program) handle(quit context.CancelFunc) func(input.Event) bool {
	return func(e input.Event) bool {
		switch e.Action {
		case input.ActionQuit:
			quit()
			return false
		case input.ActionPause:
			p.togglePause()
		case input.ActionLane:
			r, ok, err := p.session.Press(e.Lane)
			if nil != err {
				p.Logger.Debug("press ignored", "lane", e.Lane, "err", err)
				return true
			}
			if ok {
				select {
				case p.flashes <- r:
				default:
				}
			}
		}
		return true
	}
}

func (p *Program) togglePause() {
	switch p.session.Status() {
	case session.Running:
		if err := p.session.Pause(); nil == err && p.player != nil {
			p.player.SetPaused(true)
		}
	case session.Paused:
		if p.player != nil {
			p.player.SetPaused(false)
		}
		if err := p.session.Resume(); nil != err {
			p.Logger.Debug("resume", "err", err)
		}
	}
}

// Save stores the run in the history database and writes the export, if
// one was asked for.
func (p *Program) Save(state score.State) error {
	id, err := p.Store.Save(p.Beatmap, score.History{
		Session:  p.session.ID(),
		Offset:   p.Config.Offset,
		Score:    state.Score,
		MaxCombo: state.MaxCombo,
		Inputs:   p.inputs.Inputs(),
	})
	if nil != err {
		return err
	}
	p.Logger.Info("saved run", "id", id, "beatmap", p.Beatmap.Name())
	if p.Config.Export != "" {
		if err := score.ExportFile(p.Config.Export, p.Beatmap, p.session.ID(), state); nil != err {
			return fmt.Errorf("unable to export run: %w", err)
		}
		p.Logger.Info("exported run", "file", p.Config.Export)
	}
	return nil
}

func (p *Program) Close() {
	if p.player != nil {
		if err := p.player.Close(); nil != err {
			p.Logger.Error("unable to close audio", "err", err)
		}
	}
	if p.tempDir != "" {
		os.RemoveAll(p.tempDir)
	}
}
