package theme

import (
	"fmt"
	"image/color"

	"git.lost.host/meutraa/stepjudge/internal/game"
)

type DefaultTheme struct {
}

// RenderNote colours lanes symmetrically, so the outer lanes share a
// colour, as do the next pair in, and so on.
func (t *DefaultTheme) RenderNote(lane, lanes int) string {
	c := getNoteColor(lane, lanes)
	return fmt.Sprintf("\033[38;2;%v;%v;%vm%v\033[0m", c.R, c.G, c.B, noteSym)
}

func (t *DefaultTheme) RenderHitField(lane int) string {
	return barSym
}

func (t *DefaultTheme) RenderTier(tier game.Tier) string {
	c, ok := tierColors[tier]
	if !ok {
		return tier.String()
	}
	return fmt.Sprintf("\033[1;38;2;%v;%v;%vm%v\033[0m", c.R, c.G, c.B, tier)
}

const (
	noteSym = "⬤"
	barSym  = "-"
)

var (
	noteColors = [...]color.RGBA{
		{236, 30, 0, 255},    // red
		{0, 118, 236, 255},   // blue
		{236, 195, 0, 255},   // yellow
		{106, 0, 236, 255},   // purple
		{0, 236, 128, 255},   // green
		{236, 0, 106, 255},   // pink
	}
	tierColors = map[game.Tier]color.RGBA{
		game.TierPerfect: {173, 236, 236, 255},
		game.TierGreat:   {0, 236, 128, 255},
		game.TierGood:    {236, 195, 0, 255},
		game.TierMiss:    {236, 30, 0, 255},
	}
)

func getNoteColor(lane, lanes int) color.RGBA {
	mirrored := lane
	if other := lanes - 1 - lane; other < mirrored {
		mirrored = other
	}
	if mirrored < 0 {
		mirrored = 0
	}
	return noteColors[mirrored%len(noteColors)]
}
