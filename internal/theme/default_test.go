package theme

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"git.lost.host/meutraa/stepjudge/internal/game"
)

func TestNoteColorsMirror(t *testing.T) {
	for lanes := 1; lanes <= 10; lanes++ {
		for lane := 0; lane < lanes; lane++ {
			assert.Equal(t, getNoteColor(lane, lanes), getNoteColor(lanes-1-lane, lanes), "lane %d of %d", lane, lanes)
		}
	}
	assert.NotEqual(t, getNoteColor(0, 4), getNoteColor(1, 4))
}

func TestRenderTier(t *testing.T) {
	var th Theme = &DefaultTheme{}
	assert.True(t, strings.Contains(th.RenderTier(game.TierGreat), "great"))
	assert.Equal(t, "none", th.RenderTier(game.TierNone))
}
