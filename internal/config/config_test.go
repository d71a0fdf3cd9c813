package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.lost.host/meutraa/stepjudge/internal/game"
	"git.lost.host/meutraa/stepjudge/internal/score"
)

func TestParsePlay(t *testing.T) {
	dir := t.TempDir()
	c, err := Parse([]string{"--log-level", "debug", "play", dir, "--offset=-20ms", "--horizon", "2s", "--mute"})
	require.NoError(t, err)
	assert.Equal(t, CommandPlay, c.Command)
	assert.Equal(t, dir, c.Path)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, -20*time.Millisecond, c.Offset)
	assert.Equal(t, 2*time.Second, c.Horizon)
	assert.Equal(t, 50*time.Millisecond, c.DriftThreshold)
	assert.Equal(t, 4, c.Lanes)
	assert.True(t, c.Mute)
}

func TestParseCommands(t *testing.T) {
	dir := t.TempDir()
	for _, cmd := range []string{CommandCheck, CommandHistory, CommandReplay} {
		c, err := Parse([]string{cmd, dir})
		require.NoError(t, err, cmd)
		assert.Equal(t, cmd, c.Command)
	}
}

func TestParseRejects(t *testing.T) {
	dir := t.TempDir()
	bad := [][]string{
		{"play", filepath.Join(dir, "missing")},
		{"play", dir, "--frame-period", "0s"},
		{"--lanes", "0", "check", dir},
		{"--lanes", "1000000000000000", "check", dir},
		{"--log-level", "loud", "check", dir},
		{"dance", dir},
	}
	for _, args := range bad {
		_, err := Parse(args)
		assert.Error(t, err, "%v", args)
	}
}

func TestKeyLane(t *testing.T) {
	c, err := Parse([]string{"play", t.TempDir(), "--keys-single", "zxcv"})
	require.NoError(t, err)

	hitTests := map[rune]int{
		'z': 0,
		'x': 1,
		'c': 2,
		'v': 3,
		'd': -1,
	}
	for r, lane := range hitTests {
		if got := c.KeyLane(r, 4); got != lane {
			t.Logf("key %q: expected lane %d, got %d", r, lane, got)
			t.Fail()
		}
	}
	assert.Equal(t, 7, c.KeyLane(';', 8))
	assert.Len(t, c.Keys(5), 5)
}

func TestDefaultPolicy(t *testing.T) {
	var cfg PolicyConfig
	require.NoError(t, yaml.Unmarshal(defaultPolicyYAML, &cfg))
	p, points, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, game.DefaultPolicy(), p)
	assert.Equal(t, score.DefaultPoints(), points)
}

func TestLoadPolicyCustomPath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
windows:
  - tier: perfect
    early: 20ms
    late: 30ms
  - tier: good
    window: 100ms
miss_after: 100ms
late_grace: 40ms
points:
  perfect: 2
  good: 1
`), 0o644))

	p, points, err := LoadPolicy(file, nil)
	require.NoError(t, err)
	assert.Equal(t, []game.Window{
		{Tier: game.TierPerfect, Early: 20 * time.Millisecond, Late: 30 * time.Millisecond},
		{Tier: game.TierGood, Early: 100 * time.Millisecond, Late: 100 * time.Millisecond},
	}, p.Windows)
	assert.Equal(t, 100*time.Millisecond, p.MissAfter)
	assert.Equal(t, 40*time.Millisecond, p.LateGrace)
	assert.Equal(t, score.Points{game.TierPerfect: 2, game.TierGood: 1}, points)
}

func TestLoadPolicyRejects(t *testing.T) {
	policies := map[string]string{
		"unknown tier":  "windows: [{tier: marvelous, window: 10ms}]\nmiss_after: 50ms",
		"not monotonic": "windows: [{tier: perfect, window: 90ms}, {tier: good, window: 50ms}]\nmiss_after: 150ms",
		"no windows":    "miss_after: 150ms",
		"short miss":    "windows: [{tier: perfect, window: 90ms}]\nmiss_after: 50ms",
		"both forms":    "windows: [{tier: perfect, window: 90ms, late: 20ms}]\nmiss_after: 150ms",
		"bad points":    "windows: [{tier: perfect, window: 90ms}]\nmiss_after: 150ms\npoints: {perfect: -1}",
		"bad yaml":      "windows: [",
	}
	dir := t.TempDir()
	for name, doc := range policies {
		file := filepath.Join(dir, name+".yaml")
		require.NoError(t, os.WriteFile(file, []byte(doc), 0o644))
		_, _, err := LoadPolicy(file, nil)
		assert.Error(t, err, name)
	}

	_, _, err := LoadPolicy(filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadPolicySearchSkipsBrokenFiles(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".stepjudge"), 0o755))
	// late_grace decodes before miss_after fails, which must not leak
	// into the next file.
	require.NoError(t, os.WriteFile(filepath.Join(home, ".stepjudge", "policy.yaml"),
		[]byte("late_grace: 40ms\nmiss_after: soon\n"), 0o644))

	work := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(work, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(work, "configs", "policy.yaml"),
		[]byte("windows: [{tier: perfect, window: 60ms}]\nmiss_after: 100ms\n"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(work))
	t.Cleanup(func() { os.Chdir(wd) })

	var out bytes.Buffer
	p, points, err := LoadPolicy("", log.New(&out))
	require.NoError(t, err)
	assert.Equal(t, []game.Window{{Tier: game.TierPerfect, Early: 60 * time.Millisecond, Late: 60 * time.Millisecond}}, p.Windows)
	assert.Equal(t, 100*time.Millisecond, p.MissAfter)
	assert.Zero(t, p.LateGrace)
	assert.Equal(t, score.DefaultPoints(), points)
	assert.Contains(t, out.String(), "skipping policy file")
}

func TestLoadPolicyEmbeddedDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	p, points, err := LoadPolicy("", nil)
	require.NoError(t, err)
	assert.Equal(t, game.DefaultPolicy(), p)
	assert.Equal(t, score.DefaultPoints(), points)
}
