package config

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"git.lost.host/meutraa/stepjudge/internal/game"
	"git.lost.host/meutraa/stepjudge/internal/score"
)

//go:embed default_policy.yaml
var defaultPolicyYAML []byte

type WindowConfig struct {
	Tier   string        `yaml:"tier"`
	Window time.Duration `yaml:"window"`
	Early  time.Duration `yaml:"early"`
	Late   time.Duration `yaml:"late"`
}

type PolicyConfig struct {
	Windows   []WindowConfig `yaml:"windows"`
	MissAfter time.Duration  `yaml:"miss_after"`
	LateGrace time.Duration  `yaml:"late_grace"`
	Points    map[string]int `yaml:"points"`
}

// LoadPolicy loads the judgement policy. Files on the search path that
// cannot be read as a policy are skipped with a warning.
// Search order: customPath -> ~/.stepjudge/policy.yaml -> ./configs/policy.yaml -> embedded default
func LoadPolicy(customPath string, logger *log.Logger) (game.Policy, score.Points, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	if customPath != "" {
		var cfg PolicyConfig
		data, err := os.ReadFile(expand(customPath))
		if err != nil {
			return game.Policy{}, nil, fmt.Errorf("failed to read policy %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return game.Policy{}, nil, fmt.Errorf("failed to parse policy %s: %w", customPath, err)
		}
		return cfg.Build()
	}

	var candidates []string
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".stepjudge", "policy.yaml"))
	}
	candidates = append(candidates, filepath.Join("configs", "policy.yaml"))

	for _, file := range candidates {
		data, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		var cfg PolicyConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			logger.Warn("skipping policy file", "file", file, "err", err)
			continue
		}
		return cfg.Build()
	}

	var cfg PolicyConfig
	if err := yaml.Unmarshal(defaultPolicyYAML, &cfg); err != nil {
		return game.DefaultPolicy(), score.DefaultPoints(), nil
	}
	return cfg.Build()
}

// Build converts the file form into a validated policy and point table.
// Without a points table the default one is used; tiers missing from a
// given table score nothing.
func (c PolicyConfig) Build() (game.Policy, score.Points, error) {
	p := game.Policy{
		Windows:   make([]game.Window, 0, len(c.Windows)),
		MissAfter: c.MissAfter,
		LateGrace: c.LateGrace,
	}
	for i, w := range c.Windows {
		tier, err := game.ParseTier(w.Tier)
		if err != nil {
			return game.Policy{}, nil, fmt.Errorf("policy: window %d: %w", i, err)
		}
		early, late := w.Early, w.Late
		if w.Window != 0 {
			if early != 0 || late != 0 {
				return game.Policy{}, nil, fmt.Errorf("policy: window %d sets window with early or late", i)
			}
			early, late = w.Window, w.Window
		}
		p.Windows = append(p.Windows, game.Window{Tier: tier, Early: early, Late: late})
	}
	if err := p.Validate(); err != nil {
		return game.Policy{}, nil, err
	}

	if c.Points == nil {
		return p, score.DefaultPoints(), nil
	}
	points := score.Points{}
	for name, v := range c.Points {
		tier, err := game.ParseTier(name)
		if err != nil {
			return game.Policy{}, nil, fmt.Errorf("policy: points: %w", err)
		}
		if v < 0 {
			return game.Policy{}, nil, fmt.Errorf("policy: points for %s are negative", tier)
		}
		points[tier] = v
	}
	return p, points, nil
}

func expand(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
