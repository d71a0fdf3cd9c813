package parser

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"git.lost.host/meutraa/stepjudge/internal/game"
)

// osu! playfields are 512 units wide.
const osuWidth = 512

// OsuParser converts the hit circles of an .osu beatmap into lane notes by
// splitting the playfield into equal vertical strips. osu!mania maps use
// their own key count, other modes use Lanes.
type OsuParser struct {
	Lanes int
}

func (p *OsuParser) Parse(file string) ([]*game.Beatmap, error) {
	f, err := os.Open(file)
	if nil != err {
		return nil, err
	}
	defer f.Close()
	b, err := p.ParseReader(f)
	if nil != err {
		return nil, err
	}
	return []*game.Beatmap{b}, nil
}

func (p *OsuParser) ParseReader(r io.Reader) (*game.Beatmap, error) {
	var (
		section          string
		title, artist    string
		audio, version   string
		mode, circleSize string
		objects          [][]string
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			section = line
			continue
		}
		if section == "[HitObjects]" {
			objects = append(objects, strings.Split(line, ","))
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch section + key {
		case "[General]AudioFilename":
			audio = value
		case "[General]Mode":
			mode = value
		case "[Metadata]Title":
			title = value
		case "[Metadata]Artist":
			artist = value
		case "[Metadata]Version":
			version = value
		case "[Difficulty]CircleSize":
			circleSize = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	lanes := p.Lanes
	if lanes <= 0 {
		lanes = game.DefaultLanes
	}
	if mode == "3" {
		keys, err := strconv.ParseFloat(circleSize, 64)
		if err != nil || keys < 1 || keys > game.MaxLanes {
			return nil, malformed("mania key count %q", circleSize)
		}
		lanes = int(keys)
	}

	seen := map[game.Note]bool{}
	notes := make([]game.Note, 0, len(objects))
	for i, parts := range objects {
		if len(parts) < 4 {
			return nil, malformed("hit object %d has %d fields", i, len(parts))
		}
		x, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, malformed("hit object %d x: %v", i, err)
		}
		ms, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, malformed("hit object %d time: %v", i, err)
		}
		kind, err := strconv.Atoi(parts[3])
		if err != nil {
			return nil, malformed("hit object %d type: %v", i, err)
		}
		if kind&1 == 0 {
			continue
		}
		lane := x * lanes / osuWidth
		if lane >= lanes {
			lane = lanes - 1
		}
		if lane < 0 {
			lane = 0
		}
		n := game.Note{Lane: lane, Time: time.Duration(ms) * time.Millisecond}
		// Circles folded into the same lane at the same instant are one note.
		if seen[n] {
			log.Debug("dropping stacked circle", "object", i, "note", n)
			continue
		}
		seen[n] = true
		notes = append(notes, n)
	}

	b, err := game.NewBeatmap(lanes, notes)
	if err != nil {
		return nil, err
	}
	b.Title, b.Artist, b.Audio = title, artist, audio
	b.Difficulty.Name = version
	return b, nil
}
