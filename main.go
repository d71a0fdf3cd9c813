package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"git.lost.host/meutraa/stepjudge/internal/config"
	"git.lost.host/meutraa/stepjudge/internal/game"
	"git.lost.host/meutraa/stepjudge/internal/parser"
	"git.lost.host/meutraa/stepjudge/internal/score"
	"git.lost.host/meutraa/stepjudge/internal/session"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); nil != err {
		log.Error(err)
		os.Exit(1)
	}
}

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "stepjudge",
	})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

func run(args []string, out io.Writer) error {
	cfg, err := config.Parse(args)
	if nil != err {
		return err
	}
	logger := newLogger(cfg.LogLevel)
	log.SetDefault(logger)

	policy, points, err := config.LoadPolicy(cfg.Policy, logger)
	if nil != err {
		return err
	}

	beatmaps, song, err := parser.Load(cfg.Path, cfg.Lanes)
	if nil != err {
		return err
	}

	if cfg.Command == config.CommandCheck {
		return check(out, beatmaps)
	}

	beatmap, err := selectBeatmap(beatmaps, cfg.Difficulty)
	if nil != err {
		return err
	}
	logger.Debug("loaded beatmap", "beatmap", beatmap.Name(), "notes", len(beatmap.Notes), "hash", beatmap.Hash())

	store, err := score.Open(cfg.Database, logger)
	if nil != err {
		return err
	}
	defer store.Close()

	switch cfg.Command {
	case config.CommandHistory:
		return history(out, store, beatmap)
	case config.CommandReplay:
		return replay(out, store, beatmap, policy, points)
	}

	p := &Program{
		Config:  cfg,
		Logger:  logger,
		Beatmap: beatmap,
		Song:    song,
		Policy:  policy,
		Points:  points,
		Store:   store,
	}
	if err := p.Init(); nil != err {
		return err
	}
	defer p.Close()

	state, err := p.Run(context.Background())
	if nil != err {
		return err
	}
	if err := p.Save(state); nil != err {
		return err
	}
	summary(out, beatmap, state)
	return nil
}

// selectBeatmap picks a difficulty by name or index, or the first one.
func selectBeatmap(beatmaps []*game.Beatmap, difficulty string) (*game.Beatmap, error) {
	if len(beatmaps) == 0 {
		return nil, fmt.Errorf("%w: no playable difficulty", game.ErrMalformedBeatmap)
	}
	if difficulty == "" {
		return beatmaps[0], nil
	}
	for _, b := range beatmaps {
		if strings.EqualFold(b.Difficulty.Name, difficulty) {
			return b, nil
		}
	}
	if i, err := strconv.Atoi(difficulty); err == nil && i >= 0 && i < len(beatmaps) {
		return beatmaps[i], nil
	}
	return nil, fmt.Errorf("no difficulty named %q", difficulty)
}

func check(out io.Writer, beatmaps []*game.Beatmap) error {
	for i, b := range beatmaps {
		fmt.Fprintf(out, "%2v) %3v  %5v  %v\n", i, b.Difficulty.Msd, len(b.Notes), b.Name())
		for lane, count := range b.LaneCounts() {
			fmt.Fprintf(out, "      lane %v: %5v\n", lane, count)
		}
	}
	return nil
}

func history(out io.Writer, store *score.Store, b *game.Beatmap) error {
	runs, err := store.Load(b)
	if nil != err {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(out, "no runs of %v\n", b.Name())
		return nil
	}
	for _, h := range runs {
		fmt.Fprintf(out, "%4v  %v  %8v  %5vx  %5v inputs  %v\n",
			h.ID, h.CreatedAt.Local().Format("2006-01-02 15:04"), h.Score, h.MaxCombo, len(h.Inputs), h.Session)
	}
	return nil
}

func replay(out io.Writer, store *score.Store, b *game.Beatmap, policy game.Policy, points score.Points) error {
	runs, err := store.Load(b)
	if nil != err {
		return err
	}
	for _, h := range runs {
		state, _, err := session.Replay(b, policy, points, h.Inputs)
		if nil != err {
			return err
		}
		fmt.Fprintf(out, "%4v  stored %8v  replayed %8v  %6.2f%%  %5vx\n",
			h.ID, h.Score, state.Score, 100*state.Accuracy(), state.MaxCombo)
	}
	return nil
}

func summary(out io.Writer, b *game.Beatmap, s score.State) {
	fmt.Fprintf(out, "%v\n", b.Name())
	fmt.Fprintf(out, "      Score:  %8v\n", s.Score)
	fmt.Fprintf(out, "  Max Combo:  %8v\n", s.MaxCombo)
	fmt.Fprintf(out, "   Accuracy:  %7.2f%%\n", 100*s.Accuracy())
	fmt.Fprintf(out, "       Mean:  %6.2fms\n", float64(s.MeanError)/1e6)
	fmt.Fprintf(out, "      Stdev:  %6.2fms\n", float64(s.StdevError)/1e6)
	for _, tier := range []game.Tier{game.TierPerfect, game.TierGreat, game.TierGood, game.TierMiss} {
		fmt.Fprintf(out, "%11v:  %8v\n", tier, s.Counts[tier])
	}
}
