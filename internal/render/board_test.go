package render

import (
	"bytes"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"git.lost.host/meutraa/stepjudge/internal/game"
	"git.lost.host/meutraa/stepjudge/internal/match"
	"git.lost.host/meutraa/stepjudge/internal/score"
	"git.lost.host/meutraa/stepjudge/internal/theme"
)

type fill struct {
	row, col int
	message  string
}

type recorder struct {
	fills       []fill
	decorations []fill
}

func (r *recorder) Init() error                                        { return nil }
func (r *recorder) Deinit() error                                      { return nil }
func (r *recorder) Size() (int, int)                                   { return 100, 40 }
func (r *recorder) RenderLoop(time.Duration, func(now time.Time) bool) {}
func (r *recorder) Fill(row, col int, message string) {
	r.fills = append(r.fills, fill{row, col, message})
}
func (r *recorder) FillColor(row, col int, _ color.RGBA, message string) {
	r.Fill(row, col, message)
}
func (r *recorder) AddDecoration(col, row int, content string, frames int) {
	r.decorations = append(r.decorations, fill{row, col, content})
}

func (r *recorder) at(row, col int) []string {
	var messages []string
	for _, f := range r.fills {
		if f.row == row && f.col == col {
			messages = append(messages, f.message)
		}
	}
	return messages
}

func TestBoardLayout(t *testing.T) {
	b := NewBoard(&recorder{}, &theme.DefaultTheme{}, 4, 6, 8)
	assert.Equal(t, []int{32, 44, 56, 68}, b.lanes)
	assert.Equal(t, 32, b.barRow)

	// A note due now is on the bar, one a horizon away is on the top row.
	assert.Equal(t, 32, b.Row(time.Second, time.Second, time.Second))
	assert.Equal(t, 1, b.Row(0, time.Second, time.Second))
	assert.Equal(t, 33, b.Row(time.Second+40*time.Millisecond, time.Second, time.Second))
}

func TestBoardDraw(t *testing.T) {
	r := &recorder{}
	th := &theme.DefaultTheme{}
	b := NewBoard(r, th, 4, 6, 8)

	b.Draw(Frame{
		SongTime: 500 * time.Millisecond,
		Horizon:  time.Second,
		Pending: []match.PendingNote{
			{Index: 0, Note: game.Note{Lane: 1, Time: 500 * time.Millisecond}},
			{Index: 1, Note: game.Note{Lane: 3, Time: 1500 * time.Millisecond}},
		},
		Score: score.State{Score: 300, Counts: map[game.Tier]int{game.TierPerfect: 1}},
		Notes: 2,
	})
	assert.Contains(t, r.at(32, 44), th.RenderNote(1, 4))
	assert.Contains(t, r.at(1, 68), th.RenderNote(3, 4))

	var side bytes.Buffer
	for _, f := range r.fills {
		if f.col == b.sideCol {
			side.WriteString(f.message + "\n")
		}
	}
	assert.Contains(t, side.String(), "Score:       300")
	assert.Contains(t, side.String(), "perfect:         1")

	// The next frame blanks the notes drawn by the previous one.
	r.fills = nil
	b.Draw(Frame{SongTime: time.Second, Horizon: time.Second})
	assert.Contains(t, r.at(1, 68), " ")
}

func TestBoardFlash(t *testing.T) {
	r := &recorder{}
	b := NewBoard(r, &theme.DefaultTheme{}, 4, 6, 8)
	b.Flash(game.Result{Lane: 2, Judgement: game.Hit, Tier: game.TierGreat})
	b.Flash(game.Result{Lane: 9, Tier: game.TierGreat})
	if assert.Len(t, r.decorations, 1) {
		assert.Equal(t, 54, r.decorations[0].col)
		assert.True(t, strings.Contains(r.decorations[0].message, "great"))
	}
}

func TestTerminalFill(t *testing.T) {
	var out bytes.Buffer
	r := &Terminal{out: &out, fd: -1}
	r.Fill(3, 5, "x")
	r.FillColor(1, 2, color.RGBA{R: 1, G: 2, B: 3}, "y")
	r.flush()
	assert.Equal(t, "\033[3;5Hx\033[1;2H\033[38;2;1;2;3my\033[0m", out.String())
	assert.Empty(t, r.buffer.String())
}

func TestTerminalDecorationsExpire(t *testing.T) {
	var out bytes.Buffer
	r := &Terminal{out: &out, fd: -1}
	r.AddDecoration(4, 2, "\033[1mgood\033[0m", 1)
	r.tickDecorations()
	assert.Len(t, r.decorations, 1)
	r.tickDecorations()
	assert.Empty(t, r.decorations)
	assert.True(t, strings.HasSuffix(r.buffer.String(), "\033[2;4H    "))

	columns, rows := r.Size()
	assert.Equal(t, 80, columns)
	assert.Equal(t, 24, rows)
}
