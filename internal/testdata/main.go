// Package testdata holds fixtures shared by package tests.
package testdata

import (
	_ "embed"

	"git.lost.host/meutraa/stepjudge/internal/game"
	"git.lost.host/meutraa/stepjudge/internal/parser"
)

// JSON is a four lane beatmap document: a repeating 8 note pattern from
// 1s in 250ms steps, a chord at the end of each bar and a three note jack
// in lane 0 at 10s, 10.05s and 10.1s.
//
//go:embed fixture.json
var JSON []byte

func GetBeatmap() (*game.Beatmap, error) {
	return (&parser.JSONParser{}).ParseBytes(JSON)
}
