package parser

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.lost.host/meutraa/stepjudge/internal/game"
)

// OszParser reads every .osu beatmap inside an .osz archive.
type OszParser struct {
	Lanes int
}

func (p *OszParser) Parse(file string) ([]*game.Beatmap, error) {
	z, err := zip.OpenReader(file)
	if nil != err {
		return nil, fmt.Errorf("%w: %v", game.ErrMalformedBeatmap, err)
	}
	defer z.Close()

	osu := &OsuParser{Lanes: p.Lanes}
	beatmaps := []*game.Beatmap{}
	for _, f := range z.File {
		if strings.ToLower(path.Ext(f.Name)) != ".osu" {
			continue
		}
		rc, err := f.Open()
		if nil != err {
			return nil, err
		}
		b, err := osu.ParseReader(rc)
		rc.Close()
		if nil != err {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		beatmaps = append(beatmaps, b)
	}
	if len(beatmaps) == 0 {
		return nil, malformed("no .osu beatmap in %s", file)
	}
	return beatmaps, nil
}

// ExtractAudio copies the named audio file out of an .osz archive into dir
// and returns its path.
func ExtractAudio(file, name, dir string) (string, error) {
	z, err := zip.OpenReader(file)
	if nil != err {
		return "", err
	}
	defer z.Close()

	for _, f := range z.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if nil != err {
			return "", err
		}
		defer rc.Close()

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
		dst := filepath.Join(dir, filepath.Base(f.Name))
		out, err := os.Create(dst)
		if nil != err {
			return "", err
		}
		if _, err := io.Copy(out, rc); err != nil {
			out.Close()
			return "", err
		}
		return dst, out.Close()
	}
	return "", fmt.Errorf("parser: %s not found in %s", name, file)
}
