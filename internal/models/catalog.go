package models

import "fmt"

// Lesson is a named set of questions inside a category
type Lesson struct {
	Category    string
	Name        string
	QuestionIDs []string
}

// Category is the top-level grouping of lessons
type Category struct {
	Name    string
	Lessons []string
}

// ProgressTree mirrors the category/lesson/question/language nesting but only carries mastery.
// It is the shape of profile files and backups.
type ProgressTree map[string]map[string]map[string]map[string]Mastery

// Set stores the mastery for one question language, creating intermediate levels
func (t ProgressTree) Set(ref QuestionRef, language string, m Mastery) {
	lessons, ok := t[ref.Category]
	if !ok {
		lessons = make(map[string]map[string]map[string]Mastery)
		t[ref.Category] = lessons
	}
	questions, ok := lessons[ref.Lesson]
	if !ok {
		questions = make(map[string]map[string]Mastery)
		lessons[ref.Lesson] = questions
	}
	languages, ok := questions[ref.QuestionID]
	if !ok {
		languages = make(map[string]Mastery)
		questions[ref.QuestionID] = languages
	}
	languages[language] = m
}

// Get looks up the mastery for one question language
func (t ProgressTree) Get(ref QuestionRef, language string) (Mastery, bool) {
	m, ok := t[ref.Category][ref.Lesson][ref.QuestionID][language]
	return m, ok
}

// Overlay copies every entry of other into t, replacing existing ones
func (t ProgressTree) Overlay(other ProgressTree) {
	for category, lessons := range other {
		for lesson, questions := range lessons {
			for id, languages := range questions {
				for language, m := range languages {
					t.Set(QuestionRef{Category: category, Lesson: lesson, QuestionID: id}, language, m)
				}
			}
		}
	}
}

// Count returns the number of question languages in the tree
func (t ProgressTree) Count() int {
	n := 0
	for _, lessons := range t {
		for _, questions := range lessons {
			for _, languages := range questions {
				n += len(languages)
			}
		}
	}
	return n
}

// Validate checks every mastery record and reports the first bad one
func (t ProgressTree) Validate() error {
	for category, lessons := range t {
		for lesson, questions := range lessons {
			for id, languages := range questions {
				for language, m := range languages {
					if err := m.Validate(); err != nil {
						return fmt.Errorf("%s/%s/%s (%s): %w", category, lesson, id, language, err)
					}
				}
			}
		}
	}
	return nil
}
