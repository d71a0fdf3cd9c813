package score

import (
	"os"

	"github.com/tidwall/sjson"

	"git.lost.host/meutraa/stepjudge/internal/game"
)

// Export renders a run summary as a JSON document.
func Export(b *game.Beatmap, session string, s State) ([]byte, error) {
	data := []byte(`{}`)
	var err error
	set := func(path string, value interface{}) {
		if err != nil {
			return
		}
		data, err = sjson.SetBytes(data, path, value)
	}

	set("session", session)
	set("beatmap.title", b.Title)
	set("beatmap.difficulty", b.Difficulty.Name)
	set("beatmap.hash", b.Hash())
	set("beatmap.notes", len(b.Notes))
	set("score", s.Score)
	set("max_combo", s.MaxCombo)
	set("accuracy", s.Accuracy())
	set("error.mean_ms", float64(s.MeanError)/1e6)
	set("error.stdev_ms", float64(s.StdevError)/1e6)
	for _, tier := range []game.Tier{game.TierPerfect, game.TierGreat, game.TierGood, game.TierMiss} {
		set("counts."+tier.String(), s.Counts[tier])
	}
	return data, err
}

func ExportFile(path string, b *game.Beatmap, session string, s State) error {
	data, err := Export(b, session, s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
