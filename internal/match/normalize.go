package match

import (
	"regexp"
	"strings"
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)

	// Leading "Question 3:", "Q3)", "12." style prefixes. The delimiter is
	// required so that questions legitimately starting with a number keep it.
	questionPrefixPattern = regexp.MustCompile(`^(?:question\s*\d+\s*[:.)_-]|q\s*\d+\s*[:.)_-]|\d+\s*[:.)])\s*`)

	// Leading "A.", "(b)", "c)" answer-letter markers on option texts.
	answerMarkerPattern = regexp.MustCompile(`^\(?[a-h][.)]\s+`)

	// The same markers glued to the text, "A.Paris" or "(b)42". At least two
	// trailing word characters are required so abbreviation chains like
	// "e.g." stay intact.
	answerMarkerGluedPattern = regexp.MustCompile(`^\(?[a-h][.)]([a-z0-9]{2})`)

	// Everything that is not a letter, digit, question mark or space. The
	// question mark survives normalization because structural similarity
	// keys off its presence.
	punctPattern = regexp.MustCompile(`[^a-z0-9?\s]+`)

	entityReplacer = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&apos;", "'",
		"&mdash;", "-",
		"&ndash;", "-",
		"&hellip;", " ",
	)

	apostropheReplacer = strings.NewReplacer("'", "", "’", "")

	// Markup stripping can leave a question mark floating after a space.
	looseQuestionMarkPattern = regexp.MustCompile(`\s+\?`)
)

// Normalize canonicalizes raw question or option text into a comparable
// form: lower case, markup and entities stripped, numbering and
// answer-letter prefixes removed, punctuation dropped (question marks kept)
// and whitespace collapsed. It is idempotent and never fails; empty input
// yields the empty string.
func Normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return ""
	}

	s = tagPattern.ReplaceAllString(s, " ")
	s = entityReplacer.Replace(s)
	// Apostrophes vanish rather than split: "don't" -> "dont".
	s = apostropheReplacer.Replace(s)
	s = spacePattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	// Prefix markers can stack ("1. Question 1: ..."), so strip until the
	// text stops changing. The patterns require punctuation delimiters that
	// do not survive the punctuation strip below, which keeps the whole
	// function idempotent.
	for {
		trimmed := questionPrefixPattern.ReplaceAllString(s, "")
		trimmed = answerMarkerPattern.ReplaceAllString(trimmed, "")
		trimmed = answerMarkerGluedPattern.ReplaceAllString(trimmed, "$1")
		if trimmed == s {
			break
		}
		s = trimmed
	}

	s = punctPattern.ReplaceAllString(s, " ")
	s = spacePattern.ReplaceAllString(s, " ")
	s = looseQuestionMarkPattern.ReplaceAllString(s, "?")
	return strings.TrimSpace(s)
}

// NormalizeAll maps Normalize over a list of options, preserving order.
func NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Normalize(t)
	}
	return out
}
