package domain

import "errors"

var (
	// ErrEmptyQuestion is returned when a match is requested for blank text.
	ErrEmptyQuestion = errors.New("observed question text is empty")
	// ErrEntryNotFound indicates a referenced corpus entry does not exist.
	ErrEntryNotFound = errors.New("corpus entry not found")
	// ErrCorpusUnavailable indicates the corpus provider could not be reached.
	ErrCorpusUnavailable = errors.New("corpus unavailable")
)
