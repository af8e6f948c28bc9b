package models

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidMastery = errors.New("invalid mastery")

// Mastery is the learner's record for one question in one language
type Mastery struct {
	SuccessRate float64    `json:"success_rate"`
	Tries       int        `json:"tries"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
}

// Validate checks that the success rate lies in [0, 1] and tries is not negative
func (m Mastery) Validate() error {
	if m.Tries < 0 {
		return fmt.Errorf("%w: negative tries %d", ErrInvalidMastery, m.Tries)
	}
	if !(m.SuccessRate >= 0 && m.SuccessRate <= 1) {
		return fmt.Errorf("%w: success rate %v out of range [0, 1]", ErrInvalidMastery, m.SuccessRate)
	}
	return nil
}

// Attempted reports whether the question was ever answered in this language
func (m Mastery) Attempted() bool {
	return m.Tries > 0
}

// LanguageEntry holds the text of a question in one language
type LanguageEntry struct {
	Sentence     string
	Hints        string
	Explanation  string
	Explanations map[string]string // sentence substring -> grammar explanation
	Mastery      *Mastery          // nil until the language is learned
}

// Question is a single sentence-translation exercise
type Question struct {
	ID        string
	Languages map[string]*LanguageEntry
}

// Entry returns the entry for a language, or nil if the question has none
func (q *Question) Entry(language string) *LanguageEntry {
	if q == nil || q.Languages == nil {
		return nil
	}
	return q.Languages[language]
}

// Sentence returns the reference sentence in a language
func (q *Question) Sentence(language string) string {
	if entry := q.Entry(language); entry != nil {
		return entry.Sentence
	}
	return ""
}

// Hints returns the hints attached to a language entry
func (q *Question) Hints(language string) string {
	if entry := q.Entry(language); entry != nil {
		return entry.Hints
	}
	return ""
}

// Mastery returns a copy of the mastery for a language; zero if never tracked
func (q *Question) Mastery(language string) Mastery {
	if entry := q.Entry(language); entry != nil && entry.Mastery != nil {
		return *entry.Mastery
	}
	return Mastery{}
}

// EnsureMastery returns the mutable mastery record for a language, creating it on first use.
// It returns nil when the question has no text in that language.
func (q *Question) EnsureMastery(language string) *Mastery {
	entry := q.Entry(language)
	if entry == nil {
		return nil
	}
	if entry.Mastery == nil {
		entry.Mastery = &Mastery{}
	}
	return entry.Mastery
}

// QuestionRef locates a question inside the content store
type QuestionRef struct {
	Category   string
	Lesson     string
	QuestionID string
}

// Outcome is the result of grading one answer
type Outcome int

const (
	Incorrect Outcome = iota
	Correct
)

func (o Outcome) String() string {
	if o == Correct {
		return "correct"
	}
	return "incorrect"
}
