package service

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"bilingual/internal/models"
)

// normalizeAnswer trims, drops one trailing period and case-folds.
// Accents, inner spacing and wording are left alone.
func normalizeAnswer(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	return cases.Fold().String(s)
}

// Grade compares a response with the reference sentence
func Grade(response, reference string) models.Outcome {
	if normalizeAnswer(response) == normalizeAnswer(reference) {
		return models.Correct
	}
	return models.Incorrect
}

// ApplyOutcome folds one answer into the running mean of correct answers.
// Tries is incremented first so the division is always by at least one.
func ApplyOutcome(m *models.Mastery, outcome models.Outcome, now time.Time) {
	m.Tries++
	total := m.SuccessRate * float64(m.Tries-1)
	if outcome == models.Correct {
		total++
		answeredAt := now
		m.LastSuccess = &answeredAt
	}
	m.SuccessRate = total / float64(m.Tries)
}
