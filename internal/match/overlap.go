package match

import (
	"regexp"
	"strings"
)

// OverlapReason classifies the outcome of the overlap acceptance policy so
// callers and tests can tell "contradictory answer data" apart from "no
// similarity found".
type OverlapReason string

const (
	OverlapAccepted         OverlapReason = "accepted"
	RejectMissingAnswerData OverlapReason = "missing-answer-data"
	RejectNoMatchedPairs    OverlapReason = "no-matched-pairs"
	RejectBelowThreshold    OverlapReason = "below-threshold"
	RejectCountIncompatible OverlapReason = "count-incompatible"
)

// OverlapResult reports how many of the observed options correspond to the
// stored entry's options. Overlap is only meaningful when Defined is true;
// with fewer than two comparable options on either side there is nothing to
// discriminate and the value is undefined.
type OverlapResult struct {
	Defined      bool
	Overlap      float64
	MatchedPairs int
	CurrentCount int
	StoredCount  int
}

// Coverage is matched pairs divided by the smaller option-set size, used to
// justify accepting count-mismatched option sets.
func (r OverlapResult) Coverage() float64 {
	minCount := r.CurrentCount
	if r.StoredCount < minCount {
		minCount = r.StoredCount
	}
	if minCount == 0 {
		return 0
	}
	return float64(r.MatchedPairs) / float64(minCount)
}

// OverlapDecision is the result of applying the acceptance policy.
type OverlapDecision struct {
	Accepted bool
	Reason   OverlapReason
}

// sentinelPattern matches "I don't know / skip" style options after
// normalization (apostrophes are gone by then). These are artifacts of the
// source UI and must not count toward overlap.
var sentinelPattern = regexp.MustCompile(`^(i\s*)?don'?t\s*know$|^not\s*sure$|^no\s*idea$|^idk$|^skip(\s*this)?(\s*question)?$`)

// OverlapEvaluator scores and judges answer-option overlap between an
// observed question and a corpus entry.
type OverlapEvaluator struct {
	cfg OverlapConfig
}

func NewOverlapEvaluator(cfg OverlapConfig) *OverlapEvaluator {
	return &OverlapEvaluator{cfg: cfg}
}

// Evaluate normalizes both option lists, drops sentinel and empty options,
// then greedily pairs each current option with an unused stored option.
// Two options pair when their normalized forms are equal, one contains the
// other, or their content-word overlap ratio clears the configured floor.
func (e *OverlapEvaluator) Evaluate(current, stored []string) OverlapResult {
	cur := filterOptions(current)
	sto := filterOptions(stored)

	res := OverlapResult{
		CurrentCount: len(cur),
		StoredCount:  len(sto),
	}
	if len(cur) < 2 || len(sto) < 2 {
		return res
	}

	used := make([]bool, len(sto))
	for _, c := range cur {
		for i, s := range sto {
			if used[i] {
				continue
			}
			if e.optionsMatch(c, s) {
				used[i] = true
				res.MatchedPairs++
				break
			}
		}
	}

	minCount := len(cur)
	if len(sto) < minCount {
		minCount = len(sto)
	}
	res.Defined = true
	res.Overlap = float64(res.MatchedPairs) / float64(minCount)
	return res
}

// Decide applies the acceptance policy from Evaluate's result: undefined
// overlap is acceptable only when neither side ever had two comparable
// options; zero matched pairs reject outright; otherwise the overlap must
// clear the dynamic threshold and the option counts must be compatible.
func (e *OverlapEvaluator) Decide(current, stored []string) (OverlapResult, OverlapDecision) {
	res := e.Evaluate(current, stored)

	if !res.Defined {
		if res.CurrentCount >= 2 || res.StoredCount >= 2 {
			return res, OverlapDecision{Accepted: false, Reason: RejectMissingAnswerData}
		}
		// Comparison was never possible; do not hold it against the match.
		return res, OverlapDecision{Accepted: true, Reason: OverlapAccepted}
	}

	if res.MatchedPairs == 0 {
		return res, OverlapDecision{Accepted: false, Reason: RejectNoMatchedPairs}
	}

	if res.Overlap < e.dynamicThreshold(res) {
		return res, OverlapDecision{Accepted: false, Reason: RejectBelowThreshold}
	}

	diff := res.CurrentCount - res.StoredCount
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
	case diff == 1:
		if res.Coverage() < e.cfg.CoverageDelta1 {
			return res, OverlapDecision{Accepted: false, Reason: RejectCountIncompatible}
		}
	case diff == 2:
		if res.Coverage() < e.cfg.CoverageDelta2 {
			return res, OverlapDecision{Accepted: false, Reason: RejectCountIncompatible}
		}
	default:
		return res, OverlapDecision{Accepted: false, Reason: RejectCountIncompatible}
	}

	return res, OverlapDecision{Accepted: true, Reason: OverlapAccepted}
}

// dynamicThreshold relaxes the static minimum as option sets grow: with
// five options a single matched pair already caps the ratio at 0.2, so the
// bound drops toward the 0.2 floor, while a two-option set must still match
// half its pairs. Small sets therefore face an equal or stricter bound.
func (e *OverlapEvaluator) dynamicThreshold(res OverlapResult) float64 {
	minCount := res.CurrentCount
	if res.StoredCount < minCount {
		minCount = res.StoredCount
	}
	if minCount <= 0 {
		return e.cfg.MinimumOverlap
	}
	relaxed := 1.0 / float64(minCount)
	if relaxed < 0.2 {
		relaxed = 0.2
	}
	if relaxed < e.cfg.MinimumOverlap {
		return relaxed
	}
	return e.cfg.MinimumOverlap
}

func (e *OverlapEvaluator) optionsMatch(a, b string) bool {
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return contentWordOverlap(a, b) >= e.cfg.PairWordOverlap
}

// contentWordOverlap is shared content words over the larger content-word
// set. Containment is handled separately, so this stays strict.
func contentWordOverlap(a, b string) float64 {
	setA := tokenSet(a, 3)
	setB := tokenSet(b, 3)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	shared := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			shared++
		}
	}
	larger := len(setA)
	if len(setB) > larger {
		larger = len(setB)
	}
	return float64(shared) / float64(larger)
}

func filterOptions(options []string) []string {
	out := make([]string, 0, len(options))
	for _, opt := range options {
		n := Normalize(opt)
		if n == "" || sentinelPattern.MatchString(n) {
			continue
		}
		out = append(out, n)
	}
	return out
}
