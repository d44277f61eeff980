package match

import (
	"math"
	"strings"

	"github.com/hbollon/go-edlib"
)

// The similarity library. Every function takes two normalized strings and
// returns a score in [0,1]; all are pure, symmetric where documented, and
// score identical non-empty inputs as 1.0.

// CharacterSimilarity is 1 - editDistance/maxLen using classic
// insert/delete/substitute cost-1 Levenshtein distance. Both inputs empty
// scores 1.0; exactly one empty scores 0.0.
func CharacterSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0.0
	}
	return clamp01(float64(score))
}

// JaroWinklerSimilarity scores transposition-heavy edits more leniently than
// plain edit distance; used by the fuzzy cascade strategy.
func JaroWinklerSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0.0
	}
	return clamp01(float64(score))
}

// WordSetSimilarity is the Jaccard index over the sets of tokens longer than
// two characters.
func WordSetSimilarity(a, b string) float64 {
	setA := tokenSet(a, 2)
	setB := tokenSet(b, 2)
	if len(setA) == 0 && len(setB) == 0 {
		if a == b && a != "" {
			return 1.0
		}
		return 0.0
	}
	shared := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	if union == 0 {
		return 0.0
	}
	return float64(shared) / float64(union)
}

// PositionalSimilarity compares tokens at matching ordinal positions with a
// decaying weight 1/(1+0.1*i), so agreement on the opening words (the most
// discriminating part of a question) counts most. Length mismatch is
// penalized through the unmatched tail's weight.
func PositionalSimilarity(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 && len(tb) == 0 {
		if a == b && a != "" {
			return 1.0
		}
		return 0.0
	}
	longest := len(ta)
	if len(tb) > longest {
		longest = len(tb)
	}
	shortest := len(ta)
	if len(tb) < shortest {
		shortest = len(tb)
	}

	var matched, total float64
	for i := 0; i < longest; i++ {
		weight := 1.0 / (1.0 + 0.1*float64(i))
		total += weight
		if i < shortest && ta[i] == tb[i] {
			matched += weight
		}
	}
	if total == 0 {
		return 0.0
	}
	return matched / total
}

// contextTaxonomies are small domain vocabularies used by the
// semantic-context signal. Membership is checked on stemmed keywords, so
// inflected forms count.
var contextTaxonomies = map[string][]string{
	"quantitative": {
		"mean", "median", "mode", "variance", "deviation", "percent",
		"ratio", "rate", "count", "number", "measure", "calculate",
		"statistic", "probability", "sample", "correlation", "regression",
		"distribution", "significance", "hypothesis",
	},
	"qualitative": {
		"describe", "explain", "theme", "interview", "observation",
		"opinion", "experience", "meaning", "interpret", "narrative",
		"concept", "perspective",
	},
	"definitional": {
		"define", "definition", "term", "refers", "known", "meaning",
		"example", "characteristic",
	},
	"procedural": {
		"step", "process", "method", "procedure", "first", "order",
		"sequence", "perform", "conduct",
	},
}

// stemmedTaxonomies is contextTaxonomies with every term stemmed, built once.
var stemmedTaxonomies = func() map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(contextTaxonomies))
	for name, terms := range contextTaxonomies {
		set := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			set[stemToken(t)] = struct{}{}
		}
		out[name] = set
	}
	return out
}()

// SemanticContextSimilarity counts taxonomy-term occurrences in each text
// and compares relative densities per taxonomy. When neither text contains
// any taxonomy term it returns a neutral 0.5: absence of evidence is not
// evidence of absence.
func SemanticContextSimilarity(a, b string) float64 {
	if a == b && a != "" {
		return 1.0
	}
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0.5
	}

	var sum float64
	signals := 0
	for _, set := range stemmedTaxonomies {
		da := taxonomyDensity(ta, set)
		db := taxonomyDensity(tb, set)
		if da == 0 && db == 0 {
			continue
		}
		larger := math.Max(da, db)
		sum += 1.0 - math.Abs(da-db)/larger
		signals++
	}
	if signals == 0 {
		return 0.5
	}
	return clamp01(sum / float64(signals))
}

func taxonomyDensity(tokens []string, terms map[string]struct{}) float64 {
	hits := 0
	for _, tok := range tokens {
		if _, ok := terms[stemToken(tok)]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

// StructuralSimilarity averages four cheap shape signals: length ratio,
// word-count ratio, question-mark parity and symbol-density closeness.
func StructuralSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	lengthRatio := ratio(float64(len(a)), float64(len(b)))
	wordRatio := ratio(float64(len(Tokens(a))), float64(len(Tokens(b))))

	questionParity := 0.0
	if strings.Contains(a, "?") == strings.Contains(b, "?") {
		questionParity = 1.0
	}

	symbolCloseness := 1.0 - math.Abs(symbolDensity(a)-symbolDensity(b))

	return clamp01((lengthRatio + wordRatio + questionParity + symbolCloseness) / 4.0)
}

func ratio(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 1.0
	}
	larger := math.Max(a, b)
	return math.Min(a, b) / larger
}

func symbolDensity(s string) float64 {
	if s == "" {
		return 0.0
	}
	symbols := 0
	for _, r := range s {
		if !(r == ' ' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			symbols++
		}
	}
	return float64(symbols) / float64(len(s))
}

// CompositeSimilarity is the fixed weighted sum of the text-only signals
// used by the content-similarity strategy, clamped to [0,1]. The overlap
// weight is excluded here; answer overlap enters through the blender.
func CompositeSimilarity(a, b string, w BlendWeights) float64 {
	total := w.Character + w.WordSet + w.Positional + w.Keyword + w.Semantic + w.Structural
	if total <= 0 {
		return 0.0
	}
	sum := w.Character*CharacterSimilarity(a, b) +
		w.WordSet*WordSetSimilarity(a, b) +
		w.Positional*PositionalSimilarity(a, b) +
		w.Keyword*KeywordOverlap(a, b) +
		w.Semantic*SemanticContextSimilarity(a, b) +
		w.Structural*StructuralSimilarity(a, b)
	return clamp01(sum / total)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
