package theme

import "git.lost.host/meutraa/stepjudge/internal/game"

type Theme interface {
	RenderNote(lane, lanes int) string
	RenderHitField(lane int) string
	RenderTier(tier game.Tier) string
}
