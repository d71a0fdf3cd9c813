package parser

import (
	"os"
	"strconv"
	"strings"

	"git.lost.host/meutraa/stepjudge/internal/game"
)

// SMParser reads StepMania .sm files. Every supported #NOTES section
// becomes one beatmap. Taps, hold heads and roll heads are notes; mines,
// tails and the remaining note kinds are ignored.
type SMParser struct{}

type bpm struct {
	startingBeat float64
	value        float64
}

func (p *SMParser) getSecondsPerNote(rates []bpm, currentBeat float64, bpn float64) float64 {
	sel := 0.0
	for _, r := range rates {
		if currentBeat >= r.startingBeat {
			sel = r.value
		} else {
			break
		}
	}
	return bpn * 60.0 / sel
}

// 0 – No note
// 1 – Normal note
// 2 – Hold head
// 3 – Hold/Roll tail
// 4 – Roll head
// M – Mine (or other negative note)
// K – Automatic keysound
// L – Lift note
// F – Fake note
func (p *SMParser) isNote(c byte) bool {
	return c == '1' || c == '2' || c == '4'
}

func (p *SMParser) Parse(file string) ([]*game.Beatmap, error) {
	data, err := os.ReadFile(file)
	if nil != err {
		return nil, err
	}
	return p.parse(string(data))
}

func (p *SMParser) parse(data string) ([]*game.Beatmap, error) {
	str := strings.ReplaceAll(data, "\r", "")
	sections := strings.Split(str, "#NOTES:")
	meta := sections[0]
	difficulties := []game.Difficulty{}
	for _, section := range sections[1:] {
		lines := strings.SplitN(section, "\n", 7)
		if len(lines) < 7 {
			return nil, malformed("truncated #NOTES section")
		}
		chartType := strings.TrimSuffix(strings.TrimSpace(lines[1]), ":")
		lanes, ok := game.LaneMap[chartType]
		if !ok {
			continue
		}
		difficulties = append(difficulties, game.Difficulty{
			Name:    strings.TrimSuffix(strings.TrimSpace(lines[3]), ":"),
			Msd:     strings.TrimSuffix(strings.TrimSpace(lines[4]), ":"),
			Section: lines[6],
			Lanes:   lanes,
		})
	}

	var title, artist, music string
	offset := 0.0
	bpms := []bpm{}

	for _, mdl := range strings.Split(meta, "\n#") {
		mdl = strings.TrimPrefix(strings.TrimSpace(mdl), "#")
		key, value, found := strings.Cut(mdl, ":")
		if !found {
			continue
		}
		value = strings.TrimSuffix(strings.TrimSpace(value), ";")
		switch key {
		case "TITLE":
			title = value
		case "ARTIST":
			artist = value
		case "MUSIC":
			music = value
		case "OFFSET":
			offs, err := strconv.ParseFloat(value, 64)
			if nil != err {
				return nil, malformed("offset: %v", err)
			}
			offset = -offs
		case "BPMS":
			value = strings.ReplaceAll(value, "\n", "")
			for _, b := range strings.Split(value, ",") {
				as := strings.Split(b, "=")
				if len(as) != 2 {
					return nil, malformed("bpm %q", b)
				}
				sb, err := strconv.ParseFloat(strings.TrimSpace(as[0]), 64)
				if nil != err {
					return nil, malformed("bpm: %v", err)
				}
				v, err := strconv.ParseFloat(strings.TrimSpace(as[1]), 64)
				if nil != err {
					return nil, malformed("bpm: %v", err)
				}
				if v <= 0 {
					return nil, malformed("bpm %v is not positive", v)
				}
				bpms = append(bpms, bpm{startingBeat: sb, value: v})
			}
		}
	}
	if len(difficulties) > 0 && (len(bpms) == 0 || bpms[0].startingBeat > 0) {
		return nil, malformed("no bpm at beat 0")
	}

	beatmaps := []*game.Beatmap{}
	for _, difficulty := range difficulties {
		// Start time of first note
		seconds := offset
		currentBeat := 0.0
		notes := []game.Note{}

		for _, block := range strings.Split(difficulty.Section, "\n,") {
			lines := []string{}
			for _, l := range strings.Split(block, "\n") {
				if strings.HasPrefix(l, " ") || strings.Contains(l, "-") {
					continue
				}
				l = strings.TrimSpace(l)
				if len(l) >= difficulty.Lanes {
					lines = append(lines, l)
				}
			}

			// Beat count is 4 per block
			beatsPerNote := 4.0 / float64(len(lines)) // 1/4, 1/8, 1/16, 1/24 etc

			for _, line := range lines {
				t, err := game.Seconds(seconds)
				if err != nil {
					return nil, malformed("%s: %v", difficulty.Name, err)
				}
				for lane := 0; lane < difficulty.Lanes; lane++ {
					if p.isNote(line[lane]) {
						notes = append(notes, game.Note{Lane: lane, Time: t})
					}
				}
				seconds += p.getSecondsPerNote(bpms, currentBeat, beatsPerNote)
				currentBeat += beatsPerNote
			}
		}

		b, err := game.NewBeatmap(difficulty.Lanes, notes)
		if err != nil {
			return nil, err
		}
		b.Title, b.Artist, b.Audio = title, artist, music
		b.Difficulty = difficulty
		beatmaps = append(beatmaps, b)
	}

	return beatmaps, nil
}
