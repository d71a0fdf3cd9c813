package render

import (
	"fmt"
	"time"

	"git.lost.host/meutraa/stepjudge/internal/game"
	"git.lost.host/meutraa/stepjudge/internal/match"
	"git.lost.host/meutraa/stepjudge/internal/score"
	"git.lost.host/meutraa/stepjudge/internal/theme"
)

// Frames a judgement stays on screen.
const flashFrames = 120

// Frame is everything drawn in one refresh.
type Frame struct {
	SongTime time.Duration
	Horizon  time.Duration
	Pending  []match.PendingNote
	Score    score.State
	Notes    int
	Paused   bool
}

type cell struct {
	row, col int
}

// Board lays lanes out around the middle of the screen with notes
// scrolling down onto a hit bar.
type Board struct {
	r  Renderer
	th theme.Theme

	lanes   []int // column of each lane
	rows    int
	barRow  int
	center  int
	sideCol int

	drawn []cell
}

func NewBoard(r Renderer, th theme.Theme, lanes, spacing, barRow int) *Board {
	columns, rows := r.Size()
	b := &Board{r: r, th: th, rows: rows, center: rows >> 1}
	mc := columns >> 1
	b.lanes = make([]int, lanes)
	for i := range b.lanes {
		b.lanes[i] = mc + spacing*(2*i-(lanes-1))
	}
	b.barRow = rows - barRow
	if b.barRow < 2 {
		b.barRow = rows
	}
	b.sideCol = 2
	if lanes > 0 && b.lanes[0]-36 > b.sideCol {
		b.sideCol = b.lanes[0] - 36
	}
	return b
}

// Row is where a note due at noteTime is drawn. Notes reach the bar at
// their time and enter the top of the screen horizon earlier.
func (b *Board) Row(songTime, noteTime, horizon time.Duration) int {
	if horizon <= 0 {
		return b.barRow
	}
	distance := int(int64(noteTime-songTime) * int64(b.barRow-1) / int64(horizon))
	return b.barRow - distance
}

// Flash shows the judgement of a result next to its lane.
func (b *Board) Flash(r game.Result) {
	if r.Lane < 0 || r.Lane >= len(b.lanes) {
		return
	}
	b.r.AddDecoration(b.lanes[r.Lane]-2, b.center, b.th.RenderTier(r.Tier), flashFrames)
}

func (b *Board) Draw(f Frame) {
	for _, c := range b.drawn {
		b.r.Fill(c.row, c.col, " ")
	}
	b.drawn = b.drawn[:0]

	for i, col := range b.lanes {
		b.r.Fill(b.barRow, col, b.th.RenderHitField(i))
	}

	for _, n := range f.Pending {
		if n.Lane < 0 || n.Lane >= len(b.lanes) {
			continue
		}
		row := b.Row(f.SongTime, n.Time, f.Horizon)
		if row < 1 || row > b.rows || row == b.center {
			continue
		}
		col := b.lanes[n.Lane]
		b.r.Fill(row, col, b.th.RenderNote(n.Lane, len(b.lanes)))
		b.drawn = append(b.drawn, cell{row: row, col: col})
	}

	s := f.Score
	b.r.Fill(10, b.sideCol, fmt.Sprintf("       Time:  %8.2fs", f.SongTime.Seconds()))
	b.r.Fill(11, b.sideCol, fmt.Sprintf("      Score:  %8v", s.Score))
	b.r.Fill(12, b.sideCol, fmt.Sprintf("      Combo:  %8v", s.Combo))
	b.r.Fill(13, b.sideCol, fmt.Sprintf("  Max Combo:  %8v", s.MaxCombo))
	b.r.Fill(14, b.sideCol, fmt.Sprintf("   Accuracy:  %7.2f%%", 100*s.Accuracy()))
	b.r.Fill(15, b.sideCol, fmt.Sprintf("       Mean:  %6.2fms", ms(s.MeanError)))
	b.r.Fill(16, b.sideCol, fmt.Sprintf("      Stdev:  %6.2fms", ms(s.StdevError)))
	b.r.Fill(17, b.sideCol, fmt.Sprintf("      Total:  %8v", f.Notes))
	for i, tier := range []game.Tier{game.TierPerfect, game.TierGreat, game.TierGood, game.TierMiss} {
		b.r.Fill(19+i, b.sideCol, fmt.Sprintf("%11v:  %8v", tier, s.Counts[tier]))
	}
	if f.Paused {
		b.r.Fill(b.center-2, b.sideCol, "     Paused")
	} else {
		b.r.Fill(b.center-2, b.sideCol, "           ")
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
