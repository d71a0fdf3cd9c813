// Package config parses the command line and loads the judgement policy.
package config

import (
	"fmt"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"git.lost.host/meutraa/stepjudge/internal/clock"
	"git.lost.host/meutraa/stepjudge/internal/game"
)

const (
	CommandPlay    = "play"
	CommandCheck   = "check"
	CommandHistory = "history"
	CommandReplay  = "replay"
)

type Config struct {
	Command  string
	Path     string
	Policy   string
	Database string
	LogLevel string

	Difficulty     string
	Audio          string
	Lanes          int
	Offset         time.Duration
	Delay          time.Duration
	FramePeriod    time.Duration
	Horizon        time.Duration
	DriftThreshold time.Duration
	Export         string
	Mute           bool

	keys4 string
	keys6 string
	keys8 string
}

// Parse reads args, without the program name, into a Config.
func Parse(args []string) (*Config, error) {
	c := &Config{}
	app := kingpin.New("stepjudge", "Rhythm game timing and judgement engine.")
	app.Version("0.3.0")
	app.Flag("policy", "Judgement policy YAML file").Short('P').StringVar(&c.Policy)
	app.Flag("db", "Play history database").Default("~/.stepjudge/history.db").StringVar(&c.Database)
	app.Flag("log-level", "Log level").Default("info").EnumVar(&c.LogLevel, "debug", "info", "warn", "error")
	app.Flag("lanes", "Lane count for formats that do not carry one").Default("4").Short('l').IntVar(&c.Lanes)
	app.Flag("difficulty", "Difficulty name, the first one when empty").Short('D').StringVar(&c.Difficulty)

	play := app.Command(CommandPlay, "Play a beatmap in the terminal")
	play.Arg("path", "Beatmap file or song directory").Required().ExistingFileOrDirVar(&c.Path)
	play.Flag("audio", "Audio file, found next to the beatmap when empty").Short('a').StringVar(&c.Audio)
	play.Flag("mute", "Play without audio").Short('m').BoolVar(&c.Mute)
	play.Flag("offset", "Global input offset").Default("0ms").Short('o').DurationVar(&c.Offset)
	play.Flag("delay", "Start delay").Default("1.5s").Short('d').DurationVar(&c.Delay)
	play.Flag("frame-period", "Render frame period").Default("4ms").Short('p').DurationVar(&c.FramePeriod)
	play.Flag("horizon", "How far ahead notes are drawn").Default("1.5s").Short('H').DurationVar(&c.Horizon)
	play.Flag("drift-threshold", "Audio drift that forces a clock resync").Default(clock.DefaultDriftThreshold.String()).DurationVar(&c.DriftThreshold)
	play.Flag("keys-single", "Keys for 4 lanes").Default("dfjk").Short('k').StringVar(&c.keys4)
	play.Flag("keys-solo", "Keys for 6 lanes").Default("sdfjkl").StringVar(&c.keys6)
	play.Flag("keys-double", "Keys for 8 lanes").Default("asdfjkl;").StringVar(&c.keys8)
	play.Flag("export", "Write a JSON run summary to this file").Short('e').StringVar(&c.Export)

	check := app.Command(CommandCheck, "Validate a beatmap and print its note counts")
	check.Arg("path", "Beatmap file or song directory").Required().ExistingFileOrDirVar(&c.Path)

	history := app.Command(CommandHistory, "List stored runs of a beatmap")
	history.Arg("path", "Beatmap file or song directory").Required().ExistingFileOrDirVar(&c.Path)

	replay := app.Command(CommandReplay, "Re-score stored runs under the current policy")
	replay.Arg("path", "Beatmap file or song directory").Required().ExistingFileOrDirVar(&c.Path)

	cmd, err := app.Parse(args)
	if err != nil {
		return nil, err
	}
	c.Command = cmd
	if c.Lanes <= 0 || c.Lanes > game.MaxLanes {
		return nil, fmt.Errorf("config: lanes must be in [1, %d], got %d", game.MaxLanes, c.Lanes)
	}
	if c.FramePeriod <= 0 {
		return nil, fmt.Errorf("config: frame period must be positive, got %v", c.FramePeriod)
	}
	return c, nil
}

// Keys returns the key bound to each lane. Lane counts without a key flag
// use the first keys of the 8 lane layout.
func (c *Config) Keys(lanes int) []rune {
	switch lanes {
	case 4:
		return []rune(c.keys4)
	case 6:
		return []rune(c.keys6)
	case 8:
		return []rune(c.keys8)
	}
	keys := []rune(c.keys8)
	if lanes < len(keys) {
		return keys[:lanes]
	}
	return keys
}

// KeyLane returns the lane bound to r, or -1.
func (c *Config) KeyLane(r rune, lanes int) int {
	for i, k := range c.Keys(lanes) {
		if r == k {
			return i
		}
	}
	return -1
}
