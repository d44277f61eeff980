package match

import "time"

// Strategy names, in cascade priority order (most reliable first).
const (
	StrategyExact    = "exact-hash"
	StrategyContent  = "content-similarity"
	StrategySemantic = "semantic-analysis"
	StrategyKeyword  = "keyword-overlap"
	StrategyFuzzy    = "fuzzy-character"
)

// StrategyConfig tunes a single cascade strategy.
type StrategyConfig struct {
	// Threshold is the minimum confidence for this strategy to accept a
	// candidate on its own.
	Threshold float64
	// Timeout bounds one strategy pass over the whole corpus. A pass that
	// exceeds it is abandoned and treated as having produced no candidates.
	Timeout time.Duration
	// Enabled removes the strategy from the cascade when false.
	Enabled bool
}

// BlendWeights are the relative weights of the similarity signals in the
// blended confidence score. They are normalized by their sum, so only the
// ratios matter.
type BlendWeights struct {
	Character  float64
	WordSet    float64
	Positional float64
	Keyword    float64
	Semantic   float64
	Structural float64
	Overlap    float64
}

// OverlapConfig tunes the answer-overlap evaluator.
type OverlapConfig struct {
	// MinimumOverlap is the static acceptance floor; the effective threshold
	// relaxes below it for small option sets (see dynamicThreshold).
	MinimumOverlap float64
	// CoverageDelta1 and CoverageDelta2 are the coverage floors required to
	// accept option-count mismatches of exactly 1 and 2. Empirically chosen;
	// kept configurable pending recalibration against labeled data.
	CoverageDelta1 float64
	CoverageDelta2 float64
	// PairWordOverlap is the content-word overlap ratio above which two
	// non-identical options are considered the same answer.
	PairWordOverlap float64
}

// CacheConfig tunes the result cache.
type CacheConfig struct {
	MaxSize int
	TTL     time.Duration
}

// Config is the full tuning surface of the matching engine.
type Config struct {
	// MinConfidence is a global floor applied after strategy-level
	// acceptance; a candidate clearing its strategy threshold but below this
	// floor is still rejected.
	MinConfidence float64
	// MaxStrategies caps how many cascade strategies are attempted.
	MaxStrategies int
	// FallbackEnabled allows returning the globally best candidate, tagged
	// as low-trust, when no strategy clears its threshold.
	FallbackEnabled bool

	Strategies map[string]StrategyConfig
	Blend      BlendWeights
	Overlap    OverlapConfig
	Cache      CacheConfig
}

// DefaultConfig returns the documented default tuning. Every field can be
// overridden independently through the service configuration file.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.5,
		MaxStrategies:   5,
		FallbackEnabled: true,
		Strategies: map[string]StrategyConfig{
			StrategyExact:    {Threshold: 0.99, Timeout: 50 * time.Millisecond, Enabled: true},
			StrategyContent:  {Threshold: 0.75, Timeout: 200 * time.Millisecond, Enabled: true},
			StrategySemantic: {Threshold: 0.70, Timeout: 200 * time.Millisecond, Enabled: true},
			StrategyKeyword:  {Threshold: 0.65, Timeout: 150 * time.Millisecond, Enabled: true},
			StrategyFuzzy:    {Threshold: 0.60, Timeout: 300 * time.Millisecond, Enabled: true},
		},
		Blend: BlendWeights{
			Character:  0.25,
			WordSet:    0.20,
			Positional: 0.15,
			Keyword:    0.15,
			Semantic:   0.05,
			Structural: 0.05,
			Overlap:    0.15,
		},
		Overlap: OverlapConfig{
			MinimumOverlap:  0.5,
			CoverageDelta1:  0.75,
			CoverageDelta2:  0.85,
			PairWordOverlap: 0.7,
		},
		Cache: CacheConfig{
			MaxSize: 200,
			TTL:     5 * time.Minute,
		},
	}
}
