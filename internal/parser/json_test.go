package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.lost.host/meutraa/stepjudge/internal/game"
)

func TestJSONParse(t *testing.T) {
	p := &JSONParser{Lanes: 4}
	b, err := p.ParseBytes([]byte(`{
		"title": "Song", "artist": "Someone", "audio": "song.ogg", "lanes": 6,
		"notes": [{"lane": 5, "time": 2.5}, {"lane": 0, "time": 1.0}, {"lane": 3, "time": 1.0}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "Song", b.Title)
	assert.Equal(t, "Someone", b.Artist)
	assert.Equal(t, "song.ogg", b.Audio)
	assert.Equal(t, 6, b.Lanes)
	assert.Equal(t, []game.Note{
		{Lane: 0, Time: time.Second},
		{Lane: 3, Time: time.Second},
		{Lane: 5, Time: 2500 * time.Millisecond},
	}, b.Notes)
}

func TestJSONDefaultLanes(t *testing.T) {
	b, err := (&JSONParser{}).ParseBytes([]byte(`{"notes": []}`))
	require.NoError(t, err)
	assert.Equal(t, game.DefaultLanes, b.Lanes)
	assert.Empty(t, b.Notes)
}

func TestJSONRejects(t *testing.T) {
	docs := map[string]string{
		"not json":       `{"notes": [`,
		"array document": `[]`,
		"missing notes":  `{"lanes": 4}`,
		"notes object":   `{"notes": {}}`,
		"lanes zero":     `{"lanes": 0, "notes": []}`,
		"lanes fraction": `{"lanes": 2.5, "notes": []}`,
		"lanes huge":     `{"lanes": 1e15, "notes": [{"lane": 0, "time": 1}]}`,
		"lanes 17":       `{"lanes": 17, "notes": []}`,
		"lane string":    `{"notes": [{"lane": "0", "time": 1}]}`,
		"lane fraction":  `{"notes": [{"lane": 0.5, "time": 1}]}`,
		"lane range":     `{"notes": [{"lane": 4, "time": 1}]}`,
		"lane negative":  `{"notes": [{"lane": -1, "time": 1}]}`,
		"time missing":   `{"notes": [{"lane": 0}]}`,
		"time string":    `{"notes": [{"lane": 0, "time": "NaN"}]}`,
		"time negative":  `{"notes": [{"lane": 0, "time": -0.5}]}`,
		"time huge":      `{"notes": [{"lane": 0, "time": 1e300}]}`,
		"duplicate":      `{"notes": [{"lane": 0, "time": 1}, {"lane": 0, "time": 1}]}`,
		"note scalar":    `{"notes": [1]}`,
	}
	for name, doc := range docs {
		_, err := (&JSONParser{Lanes: 4}).ParseBytes([]byte(doc))
		if !assert.ErrorIs(t, err, game.ErrMalformedBeatmap, name) {
			t.Logf("%s parsed without error", name)
		}
	}
}
