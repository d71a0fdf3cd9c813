package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.lost.host/meutraa/stepjudge/internal/game"
	"git.lost.host/meutraa/stepjudge/internal/parser"
	"git.lost.host/meutraa/stepjudge/internal/score"
)

const beatmapJSON = `{"title": "Main", "lanes": 4, "notes": [
	{"lane": 0, "time": 1.0}, {"lane": 1, "time": 1.5}, {"lane": 2, "time": 2.0}
]}`

func writeBeatmap(t *testing.T) (dir, file string) {
	t.Helper()
	dir = t.TempDir()
	file = filepath.Join(dir, "map.json")
	require.NoError(t, os.WriteFile(file, []byte(beatmapJSON), 0o644))
	return dir, file
}

func TestCheck(t *testing.T) {
	_, file := writeBeatmap(t)
	var out bytes.Buffer
	require.NoError(t, run([]string{"check", file}, &out))
	assert.Contains(t, out.String(), "Main")
	assert.Contains(t, out.String(), "lane 3:     0")
}

func TestCheckMalformed(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "map.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"notes": [{"lane": 9, "time": 1}]}`), 0o644))
	err := run([]string{"check", file}, &bytes.Buffer{})
	assert.ErrorIs(t, err, game.ErrMalformedBeatmap)
}

func TestHistoryAndReplay(t *testing.T) {
	dir, file := writeBeatmap(t)
	db := filepath.Join(dir, "history.db")

	var out bytes.Buffer
	require.NoError(t, run([]string{"--db", db, "history", file}, &out))
	assert.Contains(t, out.String(), "no runs of Main")

	beatmaps, _, err := parser.Load(file, 4)
	require.NoError(t, err)
	store, err := score.Open(db, nil)
	require.NoError(t, err)
	_, err = store.Save(beatmaps[0], score.History{
		Session:  "run",
		Score:    600,
		MaxCombo: 2,
		Inputs: []game.Input{
			{Lane: 0, Time: time.Second},
			{Lane: 1, Time: 1500 * time.Millisecond},
		},
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out.Reset()
	require.NoError(t, run([]string{"--db", db, "history", file}, &out))
	assert.Contains(t, out.String(), "run")
	assert.Contains(t, out.String(), "2 inputs")

	out.Reset()
	require.NoError(t, run([]string{"--db", db, "replay", file}, &out))
	assert.Contains(t, out.String(), "replayed      600")
	assert.Contains(t, out.String(), "66.67%")
}

func TestSelectBeatmap(t *testing.T) {
	easy := &game.Beatmap{Difficulty: game.Difficulty{Name: "Easy"}}
	hard := &game.Beatmap{Difficulty: game.Difficulty{Name: "Hard"}}
	beatmaps := []*game.Beatmap{easy, hard}

	selections := map[string]*game.Beatmap{
		"":     easy,
		"hard": hard,
		"Easy": easy,
		"1":    hard,
	}
	for difficulty, expected := range selections {
		b, err := selectBeatmap(beatmaps, difficulty)
		require.NoError(t, err, difficulty)
		assert.Same(t, expected, b, difficulty)
	}

	_, err := selectBeatmap(beatmaps, "2")
	assert.Error(t, err)
	_, err = selectBeatmap(nil, "")
	assert.ErrorIs(t, err, game.ErrMalformedBeatmap)
}
