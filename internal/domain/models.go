package domain

import "time"

// CorpusEntry is one previously captured question with its known answers.
// Entries are produced by the capture side and are immutable once stored;
// the matching engine never mutates them.
type CorpusEntry struct {
	ID                   string    `json:"id"`
	QuestionText         string    `json:"questionText"`
	AnswerOptions        []string  `json:"answerOptions"`
	CorrectAnswerIndices []int     `json:"correctAnswerIndices,omitempty"`
	CorrectAnswerTexts   []string  `json:"correctAnswerTexts,omitempty"`
	CourseName           string    `json:"courseName,omitempty"`
	TestName             string    `json:"testName,omitempty"`
	CapturedAt           time.Time `json:"capturedAt"`
}

// HasAnswerData reports whether the entry can surface at least one correct
// answer. Entries without answer data are useless for matching and are
// dropped at ingestion.
func (e CorpusEntry) HasAnswerData() bool {
	return len(e.CorrectAnswerIndices) > 0 || len(e.CorrectAnswerTexts) > 0
}

// CorrectTexts resolves the correct answers to their display texts,
// preferring indices when present.
func (e CorpusEntry) CorrectTexts() []string {
	if len(e.CorrectAnswerIndices) > 0 {
		texts := make([]string, 0, len(e.CorrectAnswerIndices))
		for _, idx := range e.CorrectAnswerIndices {
			if idx >= 0 && idx < len(e.AnswerOptions) {
				texts = append(texts, e.AnswerOptions[idx])
			}
		}
		if len(texts) > 0 {
			return texts
		}
	}
	return e.CorrectAnswerTexts
}

// ObservedQuestion is the live, on-screen question to be matched.
// Constructed fresh per page-state change and discarded after the attempt.
type ObservedQuestion struct {
	QuestionText  string   `json:"questionText"`
	AnswerOptions []string `json:"answerOptions"`
}

// MatchCandidate is the output of one strategy applied to one corpus entry.
// Entry is shared with the corpus snapshot, never a copy.
type MatchCandidate struct {
	Entry      *CorpusEntry
	Confidence float64
	Strategy   string
	Breakdown  map[string]float64
}

// MatchResult is the caller-facing outcome of a match request.
type MatchResult struct {
	Entry      *CorpusEntry       `json:"entry"`
	Confidence float64            `json:"confidence"`
	Strategy   string             `json:"strategy"`
	IsFallback bool               `json:"isFallback"`
	Breakdown  map[string]float64 `json:"breakdown,omitempty"`
}

// FeedbackRecord accumulates user corrections per (observed shape, entry) pair.
type FeedbackRecord struct {
	CorrectCount   int `json:"correctCount"`
	IncorrectCount int `json:"incorrectCount"`
}
