package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"quiz-match-service/internal/match"
)

// StrategyConfig uses pointer fields so an absent key keeps the engine
// default while an explicit zero still overrides it.
type StrategyConfig struct {
	Threshold *float64 `yaml:"threshold"`
	TimeoutMs *int     `yaml:"timeoutMs"`
	Enabled   *bool    `yaml:"enabled"`
}

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Corpus struct {
		TTL string `yaml:"ttl"`
	} `yaml:"corpus"`
	Matcher struct {
		MinConfidence   *float64                  `yaml:"minConfidence"`
		MaxStrategies   int                       `yaml:"maxStrategies"`
		FallbackEnabled *bool                     `yaml:"fallbackEnabled"`
		Strategies      map[string]StrategyConfig `yaml:"strategies"`
		Blend           struct {
			Character  *float64 `yaml:"character"`
			WordSet    *float64 `yaml:"wordSet"`
			Positional *float64 `yaml:"positional"`
			Keyword    *float64 `yaml:"keyword"`
			Semantic   *float64 `yaml:"semantic"`
			Structural *float64 `yaml:"structural"`
			Overlap    *float64 `yaml:"overlap"`
		} `yaml:"blend"`
		Overlap struct {
			MinimumOverlap  *float64 `yaml:"minimumOverlap"`
			CoverageDelta1  *float64 `yaml:"coverageDelta1"`
			CoverageDelta2  *float64 `yaml:"coverageDelta2"`
			PairWordOverlap *float64 `yaml:"pairWordOverlap"`
		} `yaml:"overlap"`
		Cache struct {
			MaxSize int    `yaml:"maxSize"`
			TTL     string `yaml:"ttl"`
		} `yaml:"cache"`
	} `yaml:"matcher"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or
// malformed.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// MatcherConfig overlays the file's matcher section onto the engine
// defaults. Absent keys keep the default; present keys override it, zero
// included, so a weight or floor can be switched off from the file.
func (c Config) MatcherConfig() match.Config {
	out := match.DefaultConfig()
	m := c.Matcher

	if m.MinConfidence != nil {
		out.MinConfidence = *m.MinConfidence
	}
	if m.MaxStrategies > 0 {
		out.MaxStrategies = m.MaxStrategies
	}
	if m.FallbackEnabled != nil {
		out.FallbackEnabled = *m.FallbackEnabled
	}

	for name, sc := range m.Strategies {
		base, ok := out.Strategies[name]
		if !ok {
			continue
		}
		if sc.Threshold != nil {
			base.Threshold = *sc.Threshold
		}
		if sc.TimeoutMs != nil {
			base.Timeout = time.Duration(*sc.TimeoutMs) * time.Millisecond
		}
		if sc.Enabled != nil {
			base.Enabled = *sc.Enabled
		}
		out.Strategies[name] = base
	}

	if m.Blend.Character != nil {
		out.Blend.Character = *m.Blend.Character
	}
	if m.Blend.WordSet != nil {
		out.Blend.WordSet = *m.Blend.WordSet
	}
	if m.Blend.Positional != nil {
		out.Blend.Positional = *m.Blend.Positional
	}
	if m.Blend.Keyword != nil {
		out.Blend.Keyword = *m.Blend.Keyword
	}
	if m.Blend.Semantic != nil {
		out.Blend.Semantic = *m.Blend.Semantic
	}
	if m.Blend.Structural != nil {
		out.Blend.Structural = *m.Blend.Structural
	}
	if m.Blend.Overlap != nil {
		out.Blend.Overlap = *m.Blend.Overlap
	}

	if m.Overlap.MinimumOverlap != nil {
		out.Overlap.MinimumOverlap = *m.Overlap.MinimumOverlap
	}
	if m.Overlap.CoverageDelta1 != nil {
		out.Overlap.CoverageDelta1 = *m.Overlap.CoverageDelta1
	}
	if m.Overlap.CoverageDelta2 != nil {
		out.Overlap.CoverageDelta2 = *m.Overlap.CoverageDelta2
	}
	if m.Overlap.PairWordOverlap != nil {
		out.Overlap.PairWordOverlap = *m.Overlap.PairWordOverlap
	}

	if m.Cache.MaxSize > 0 {
		out.Cache.MaxSize = m.Cache.MaxSize
	}
	if ttl := TTLDuration(m.Cache.TTL, 0); ttl > 0 {
		out.Cache.TTL = ttl
	}

	return out
}
