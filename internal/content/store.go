package content

import (
	"errors"
	"fmt"
	"sort"

	"bilingual/internal/models"
)

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrLessonNotFound    = errors.New("lesson not found")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrEmptyLesson       = errors.New("lesson has no questions")
	ErrDuplicateQuestion = errors.New("duplicate question id in lesson")
)

// Entry pairs a question with its location in the store
type Entry struct {
	Ref      models.QuestionRef
	Question *models.Question
}

// Store is the in-memory category -> lesson -> question hierarchy.
// Questions live in a single arena and are handed out by pointer, so mastery
// changes made through any reference are visible everywhere.
type Store struct {
	questions []*models.Question
	refs      []models.QuestionRef
	index     map[string]map[string][]int
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{index: make(map[string]map[string][]int)}
}

// AddLesson registers a lesson, creating its category if needed
func (s *Store) AddLesson(category, lesson string) {
	lessons, ok := s.index[category]
	if !ok {
		lessons = make(map[string][]int)
		s.index[category] = lessons
	}
	if _, ok := lessons[lesson]; !ok {
		lessons[lesson] = nil
	}
}

// AddQuestion appends a question to a lesson
func (s *Store) AddQuestion(category, lesson string, q *models.Question) error {
	s.AddLesson(category, lesson)
	for _, i := range s.index[category][lesson] {
		if s.questions[i].ID == q.ID {
			return fmt.Errorf("%w: %s/%s/%s", ErrDuplicateQuestion, category, lesson, q.ID)
		}
	}

	s.questions = append(s.questions, q)
	s.refs = append(s.refs, models.QuestionRef{Category: category, Lesson: lesson, QuestionID: q.ID})
	s.index[category][lesson] = append(s.index[category][lesson], len(s.questions)-1)
	return nil
}

// ListCategories returns every category name in sorted order
func (s *Store) ListCategories() []string {
	names := make([]string, 0, len(s.index))
	for name := range s.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListLessons returns the lessons of a category in sorted order
func (s *Store) ListLessons(category string) ([]string, error) {
	lessons, ok := s.index[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	}
	names := make([]string, 0, len(lessons))
	for name := range lessons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ListQuestions returns the questions of a lesson in load order
func (s *Store) ListQuestions(category, lesson string) ([]*models.Question, error) {
	positions, err := s.lesson(category, lesson)
	if err != nil {
		return nil, err
	}
	questions := make([]*models.Question, len(positions))
	for i, pos := range positions {
		questions[i] = s.questions[pos]
	}
	return questions, nil
}

// Lesson returns the entries of a lesson in load order
func (s *Store) Lesson(category, lesson string) ([]Entry, error) {
	positions, err := s.lesson(category, lesson)
	if err != nil {
		return nil, err
	}
	return s.entries(positions), nil
}

// Category returns the entries of every lesson in a category
func (s *Store) Category(category string) ([]Entry, error) {
	lessons, err := s.ListLessons(category)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, lesson := range lessons {
		entries = append(entries, s.entries(s.index[category][lesson])...)
	}
	return entries, nil
}

// Question resolves a reference
func (s *Store) Question(ref models.QuestionRef) (*models.Question, error) {
	positions, err := s.lesson(ref.Category, ref.Lesson)
	if err != nil {
		return nil, err
	}
	for _, pos := range positions {
		if s.questions[pos].ID == ref.QuestionID {
			return s.questions[pos], nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s/%s", ErrQuestionNotFound, ref.Category, ref.Lesson, ref.QuestionID)
}

// Languages returns every language that appears in any question, sorted
func (s *Store) Languages() []string {
	seen := make(map[string]bool)
	for _, q := range s.questions {
		for language := range q.Languages {
			seen[language] = true
		}
	}
	languages := make([]string, 0, len(seen))
	for language := range seen {
		languages = append(languages, language)
	}
	sort.Strings(languages)
	return languages
}

// Len returns the number of questions in the store
func (s *Store) Len() int {
	return len(s.questions)
}

// Walk visits every question in load order, stopping at the first error
func (s *Store) Walk(fn func(ref models.QuestionRef, q *models.Question) error) error {
	for i, q := range s.questions {
		if err := fn(s.refs[i], q); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that every lesson can be played
func (s *Store) Validate() error {
	for _, category := range s.ListCategories() {
		lessons, _ := s.ListLessons(category)
		for _, lesson := range lessons {
			if len(s.index[category][lesson]) == 0 {
				return fmt.Errorf("%w: %s/%s", ErrEmptyLesson, category, lesson)
			}
		}
	}
	return nil
}

// ResetMastery drops all mastery so another profile can be merged in
func (s *Store) ResetMastery() {
	for _, q := range s.questions {
		for _, entry := range q.Languages {
			entry.Mastery = nil
		}
	}
}

// Snapshot extracts the mastery of every tracked question language
func (s *Store) Snapshot() models.ProgressTree {
	tree := make(models.ProgressTree)
	for i, q := range s.questions {
		for language, entry := range q.Languages {
			if entry.Mastery != nil {
				tree.Set(s.refs[i], language, *entry.Mastery)
			}
		}
	}
	return tree
}

// Merge copies mastery from tree onto matching questions. Entries for unknown
// questions or languages and out-of-range records are skipped and counted.
func (s *Store) Merge(tree models.ProgressTree) (applied []models.QuestionRef, skipped int) {
	for category, lessons := range tree {
		for lesson, questions := range lessons {
			for id, languages := range questions {
				ref := models.QuestionRef{Category: category, Lesson: lesson, QuestionID: id}
				q, err := s.Question(ref)
				if err != nil {
					skipped += len(languages)
					continue
				}
				touched := false
				for language, m := range languages {
					if m.Validate() != nil {
						skipped++
						continue
					}
					target := q.EnsureMastery(language)
					if target == nil {
						skipped++
						continue
					}
					*target = m
					touched = true
				}
				if touched {
					applied = append(applied, ref)
				}
			}
		}
	}
	return applied, skipped
}

func (s *Store) lesson(category, lesson string) ([]int, error) {
	lessons, ok := s.index[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	}
	positions, ok := lessons[lesson]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrLessonNotFound, category, lesson)
	}
	return positions, nil
}

func (s *Store) entries(positions []int) []Entry {
	entries := make([]Entry, len(positions))
	for i, pos := range positions {
		entries[i] = Entry{Ref: s.refs[pos], Question: s.questions[pos]}
	}
	return entries
}
