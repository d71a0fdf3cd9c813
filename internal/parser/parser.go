// Package parser loads beatmaps from JSON documents, StepMania charts and
// osu! beatmaps or archives. Every loader validates through
// game.NewBeatmap, so malformed input fails with game.ErrMalformedBeatmap.
package parser

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.lost.host/meutraa/stepjudge/internal/game"
)

type Parser interface {
	Parse(file string) ([]*game.Beatmap, error)
}

// ForFile picks a parser by file extension. lanes is used by formats that
// do not carry their own lane count.
func ForFile(file string, lanes int) (Parser, error) {
	if lanes <= 0 {
		lanes = game.DefaultLanes
	}
	switch strings.ToLower(path.Ext(file)) {
	case ".json":
		return &JSONParser{Lanes: lanes}, nil
	case ".sm":
		return &SMParser{}, nil
	case ".osu":
		return &OsuParser{Lanes: lanes}, nil
	case ".osz":
		return &OszParser{Lanes: lanes}, nil
	}
	return nil, fmt.Errorf("parser: unsupported beatmap file %s", file)
}

// Song is a beatmap file and its audio, as found in a song directory.
type Song struct {
	Chart string
	Audio string
}

var chartExts = map[string]int{
	".json": 0,
	".sm":   1,
	".osu":  2,
	".osz":  3,
}

// Find looks for a beatmap and an audio file in dir. When several charts
// exist the format listed first in chartExts wins.
func Find(dir string) (Song, error) {
	var song Song
	rank := len(chartExts)
	if err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if nil != err {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(path.Ext(info.Name()))
		switch ext {
		case ".ogg", ".mp3", ".wav":
			if song.Audio == "" {
				song.Audio = p
			}
		default:
			if r, ok := chartExts[ext]; ok && r < rank {
				song.Chart, rank = p, r
			}
		}
		return nil
	}); nil != err {
		return song, fmt.Errorf("parser: unable to walk song directory: %w", err)
	}
	if song.Chart == "" {
		return song, errors.New("parser: unable to find a beatmap in the song directory")
	}
	return song, nil
}

// Load parses a beatmap file, or the beatmap found in a song directory.
// The returned Song names the files that were used.
func Load(p string, lanes int) ([]*game.Beatmap, Song, error) {
	song := Song{Chart: p}
	info, err := os.Stat(p)
	if err != nil {
		return nil, song, fmt.Errorf("parser: %w", err)
	}
	if info.IsDir() {
		if song, err = Find(p); err != nil {
			return nil, song, err
		}
	}
	psr, err := ForFile(song.Chart, lanes)
	if err != nil {
		return nil, song, err
	}
	beatmaps, err := psr.Parse(song.Chart)
	if err != nil {
		return nil, song, err
	}
	if song.Audio == "" {
		for _, b := range beatmaps {
			if b.Audio != "" && path.Ext(song.Chart) != ".osz" {
				song.Audio = filepath.Join(filepath.Dir(song.Chart), b.Audio)
				break
			}
		}
	}
	return beatmaps, song, nil
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", game.ErrMalformedBeatmap, fmt.Sprintf(format, args...))
}
