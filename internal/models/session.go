package models

import "errors"

var (
	ErrLanguagesNotChosen = errors.New("spoken and learned languages must be chosen")
	ErrSameLanguage       = errors.New("spoken and learned languages must differ")
)

// SessionState is the transient selection state of one play session
type SessionState struct {
	Profile           string
	SpokenLanguage    string
	LearnedLanguage   string
	Category          string
	Lesson            string
	CurrentQuestionID string
}

// Validate checks the language pair
func (s SessionState) Validate() error {
	if s.SpokenLanguage == "" || s.LearnedLanguage == "" {
		return ErrLanguagesNotChosen
	}
	if s.SpokenLanguage == s.LearnedLanguage {
		return ErrSameLanguage
	}
	return nil
}

// CurrentRef returns the reference of the question being shown, if any
func (s SessionState) CurrentRef() (QuestionRef, bool) {
	if s.CurrentQuestionID == "" {
		return QuestionRef{}, false
	}
	return QuestionRef{Category: s.Category, Lesson: s.Lesson, QuestionID: s.CurrentQuestionID}, true
}
