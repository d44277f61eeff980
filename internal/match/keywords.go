package match

import (
	"sort"
	"strings"

	"github.com/surgebase/porter2"
)

// maxKeywords caps how many content words one text contributes to the
// keyword-overlap signal.
const maxKeywords = 10

// stopWords are common English words that carry no discriminating power for
// question matching.
var stopWords = map[string]struct{}{
	"about": {}, "above": {}, "after": {}, "again": {}, "against": {},
	"all": {}, "also": {}, "among": {}, "another": {}, "answer": {},
	"because": {}, "been": {}, "before": {}, "being": {}, "below": {},
	"best": {}, "between": {}, "both": {}, "called": {}, "cannot": {},
	"choose": {}, "correct": {}, "could": {}, "describes": {}, "does": {},
	"doing": {}, "down": {}, "during": {}, "each": {}, "false": {},
	"following": {}, "from": {}, "further": {}, "have": {}, "having": {},
	"here": {}, "into": {}, "itself": {}, "just": {}, "likely": {},
	"more": {}, "most": {}, "much": {}, "must": {}, "none": {},
	"only": {}, "other": {}, "over": {}, "same": {}, "select": {},
	"should": {}, "some": {}, "statement": {}, "statements": {}, "such": {},
	"than": {}, "that": {}, "their": {}, "them": {}, "then": {},
	"there": {}, "these": {}, "they": {}, "this": {}, "those": {},
	"through": {}, "true": {}, "under": {}, "until": {}, "very": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "while": {},
	"will": {}, "with": {}, "would": {}, "your": {},
}

// significantTerms must never be treated as stop words even when a future
// stop-word expansion would cover them. They are domain vocabulary that
// discriminates strongly between questions.
var significantTerms = map[string]struct{}{
	"mean": {}, "median": {}, "mode": {}, "range": {}, "variance": {},
	"sample": {}, "population": {}, "normal": {}, "power": {}, "value": {},
	"null": {}, "significance": {}, "hypothesis": {}, "correlation": {},
	"regression": {}, "distribution": {}, "probability": {},
}

// stemToken reduces a token to its Porter2 stem.
func stemToken(tok string) string {
	return porter2.Stem(tok)
}

// Tokens splits normalized text into word tokens.
func Tokens(s string) []string {
	if s == "" {
		return nil
	}
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "?")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// tokenSet collects tokens longer than minLen into a set.
func tokenSet(s string, minLen int) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokens(s) {
		if len(tok) > minLen {
			set[tok] = struct{}{}
		}
	}
	return set
}

// Keywords extracts up to maxKeywords content words from normalized text:
// tokens longer than 3 characters, minus stop words, with the significant
// term whitelist always retained. Keywords are stemmed so inflection
// differences ("regression" vs "regressions") still overlap, and ranked by
// frequency with first appearance breaking ties.
func Keywords(s string) []string {
	type kw struct {
		stem  string
		count int
		first int
	}
	seen := make(map[string]*kw)
	order := make([]*kw, 0, 8)

	for i, tok := range Tokens(s) {
		if _, significant := significantTerms[tok]; !significant {
			if len(tok) <= 3 {
				continue
			}
			if _, stop := stopWords[tok]; stop {
				continue
			}
		}
		stem := porter2.Stem(tok)
		if entry, ok := seen[stem]; ok {
			entry.count++
			continue
		}
		entry := &kw{stem: stem, count: 1, first: i}
		seen[stem] = entry
		order = append(order, entry)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	limit := len(order)
	if limit > maxKeywords {
		limit = maxKeywords
	}
	out := make([]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = order[i].stem
	}
	return out
}

// KeywordOverlap is the Jaccard index over the keyword sets of two
// normalized texts. Symmetric; identical non-empty texts score 1.0.
func KeywordOverlap(a, b string) float64 {
	ka, kb := Keywords(a), Keywords(b)
	if len(ka) == 0 && len(kb) == 0 {
		if a == b && a != "" {
			return 1.0
		}
		return 0
	}
	setA := make(map[string]struct{}, len(ka))
	for _, k := range ka {
		setA[k] = struct{}{}
	}
	shared := 0
	setB := make(map[string]struct{}, len(kb))
	for _, k := range kb {
		if _, dup := setB[k]; dup {
			continue
		}
		setB[k] = struct{}{}
		if _, ok := setA[k]; ok {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
