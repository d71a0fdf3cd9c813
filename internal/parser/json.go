package parser

import (
	"math"
	"os"

	"github.com/tidwall/gjson"

	"git.lost.host/meutraa/stepjudge/internal/game"
)

// JSONParser reads documents of the form
//
//	{"title": "...", "lanes": 4, "audio": "song.ogg", "notes": [{"lane": 0, "time": 1.25}]}
//
// where time is in seconds. Only notes is required.
type JSONParser struct {
	Lanes int // Used when the document has no lanes field
}

func (p *JSONParser) Parse(file string) ([]*game.Beatmap, error) {
	data, err := os.ReadFile(file)
	if nil != err {
		return nil, err
	}
	b, err := p.ParseBytes(data)
	if nil != err {
		return nil, err
	}
	return []*game.Beatmap{b}, nil
}

func (p *JSONParser) ParseBytes(data []byte) (*game.Beatmap, error) {
	if !gjson.ValidBytes(data) {
		return nil, malformed("invalid json")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, malformed("document is not an object")
	}

	lanes := p.Lanes
	if lanes <= 0 {
		lanes = game.DefaultLanes
	}
	if l := doc.Get("lanes"); l.Exists() {
		if !isInteger(l) || l.Num <= 0 {
			return nil, malformed("lanes %s is not a positive integer", l.Raw)
		}
		if l.Num > game.MaxLanes {
			return nil, malformed("lanes %s is more than %d", l.Raw, game.MaxLanes)
		}
		lanes = int(l.Int())
	}

	list := doc.Get("notes")
	if !list.IsArray() {
		return nil, malformed("notes is not an array")
	}
	notes := make([]game.Note, 0, int(list.Get("#").Int()))
	var bad error
	i := 0
	list.ForEach(func(_, v gjson.Result) bool {
		lane, tm := v.Get("lane"), v.Get("time")
		switch {
		case !v.IsObject():
			bad = malformed("note %d is not an object", i)
		case !isInteger(lane):
			bad = malformed("note %d lane %s is not an integer", i, lane.Raw)
		case tm.Type != gjson.Number:
			bad = malformed("note %d time %s is not a number", i, tm.Raw)
		}
		if bad != nil {
			return false
		}
		t, err := game.Seconds(tm.Num)
		if err != nil {
			bad = malformed("note %d: %v", i, err)
			return false
		}
		notes = append(notes, game.Note{Lane: int(lane.Int()), Time: t})
		i++
		return true
	})
	if bad != nil {
		return nil, bad
	}

	b, err := game.NewBeatmap(lanes, notes)
	if err != nil {
		return nil, err
	}
	b.Title = doc.Get("title").String()
	b.Artist = doc.Get("artist").String()
	b.Audio = doc.Get("audio").String()
	b.Difficulty.Name = doc.Get("difficulty").String()
	return b, nil
}

func isInteger(r gjson.Result) bool {
	return r.Type == gjson.Number && r.Num == math.Trunc(r.Num) && !math.IsInf(r.Num, 0)
}
