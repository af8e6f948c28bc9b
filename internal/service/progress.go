package service

import (
	"fmt"
	"sort"

	"bilingual/internal/content"
	"bilingual/internal/models"
)

// DefaultStarThresholds are the success levels that each earn one star
var DefaultStarThresholds = []float64{0.6, 0.8, 0.9}

// ProgressService aggregates mastery into overview, success and star figures
type ProgressService struct {
	store      *content.Store
	thresholds []float64
}

// NewProgressService creates a progress service. nil thresholds select the defaults.
func NewProgressService(store *content.Store, thresholds []float64) (*ProgressService, error) {
	if thresholds == nil {
		thresholds = DefaultStarThresholds
	}
	for i, threshold := range thresholds {
		if threshold < 0 || threshold > 1 {
			return nil, fmt.Errorf("star threshold %v out of range [0, 1]", threshold)
		}
		if i > 0 && threshold < thresholds[i-1] {
			return nil, fmt.Errorf("star thresholds must be ascending, got %v", thresholds)
		}
	}

	return &ProgressService{
		store:      store,
		thresholds: append([]float64(nil), thresholds...),
	}, nil
}

// Thresholds returns the star thresholds in ascending order
func (s *ProgressService) Thresholds() []float64 {
	return append([]float64(nil), s.thresholds...)
}

// Categories lists every category in sorted order
func (s *ProgressService) Categories() []string {
	return s.store.ListCategories()
}

// Lessons lists the lessons of a category in sorted order
func (s *ProgressService) Lessons(category string) ([]string, error) {
	return s.store.ListLessons(category)
}

// LessonOverview is the fraction of the lesson's questions attempted at least once
func (s *ProgressService) LessonOverview(category, lesson, learned string) (float64, error) {
	questions, err := s.store.ListQuestions(category, lesson)
	if err != nil {
		return 0, err
	}
	return overview(questions, learned), nil
}

// LessonSuccess is the mean success rate of the lesson scaled by its overview
func (s *ProgressService) LessonSuccess(category, lesson, learned string) (float64, error) {
	questions, err := s.store.ListQuestions(category, lesson)
	if err != nil {
		return 0, err
	}
	return success(questions, learned), nil
}

// CategoryOverview is the unweighted mean of the lesson overviews
func (s *ProgressService) CategoryOverview(category, learned string) (float64, error) {
	return s.categoryMean(category, learned, overview)
}

// CategorySuccess is the unweighted mean of the lesson success figures
func (s *ProgressService) CategorySuccess(category, learned string) (float64, error) {
	return s.categoryMean(category, learned, success)
}

// Stars counts the thresholds reached by the lesson success, or by the category
// success when lesson is empty
func (s *ProgressService) Stars(category, lesson, learned string) (int, error) {
	var metric float64
	var err error
	if lesson == "" {
		metric, err = s.CategorySuccess(category, learned)
	} else {
		metric, err = s.LessonSuccess(category, lesson, learned)
	}
	if err != nil {
		return 0, err
	}
	return StarsFor(metric, s.thresholds), nil
}

// StarsFor counts the ascending thresholds that are at or below success
func StarsFor(success float64, thresholds []float64) int {
	stars := 0
	for _, threshold := range thresholds {
		if threshold <= success {
			stars++
		}
	}
	return stars
}

// StrugglingQuestion is a question the learner keeps getting wrong
type StrugglingQuestion struct {
	Question    *models.Question
	SuccessRate float64
	Tries       int
}

// StrugglingQuestions lists attempted questions of a lesson whose success rate is
// below threshold after at least minTries attempts, weakest first
func (s *ProgressService) StrugglingQuestions(category, lesson, learned string, threshold float64, minTries int) ([]StrugglingQuestion, error) {
	questions, err := s.store.ListQuestions(category, lesson)
	if err != nil {
		return nil, err
	}

	var struggling []StrugglingQuestion
	for _, q := range questions {
		m := q.Mastery(learned)
		if m.Attempted() && m.Tries >= minTries && m.SuccessRate < threshold {
			struggling = append(struggling, StrugglingQuestion{Question: q, SuccessRate: m.SuccessRate, Tries: m.Tries})
		}
	}

	sort.SliceStable(struggling, func(i, j int) bool {
		return struggling[i].SuccessRate < struggling[j].SuccessRate
	})
	return struggling, nil
}

func (s *ProgressService) categoryMean(category, learned string, metric func([]*models.Question, string) float64) (float64, error) {
	lessons, err := s.store.ListLessons(category)
	if err != nil {
		return 0, err
	}
	if len(lessons) == 0 {
		return 0, nil
	}

	total := 0.0
	for _, lesson := range lessons {
		questions, err := s.store.ListQuestions(category, lesson)
		if err != nil {
			return 0, err
		}
		total += metric(questions, learned)
	}
	return total / float64(len(lessons)), nil
}

func overview(questions []*models.Question, learned string) float64 {
	if len(questions) == 0 {
		return 0
	}
	attempted := 0
	for _, q := range questions {
		if q.Mastery(learned).Attempted() {
			attempted++
		}
	}
	return float64(attempted) / float64(len(questions))
}

func success(questions []*models.Question, learned string) float64 {
	if len(questions) == 0 {
		return 0
	}
	total := 0.0
	for _, q := range questions {
		total += q.Mastery(learned).SuccessRate
	}
	return total / float64(len(questions)) * overview(questions, learned)
}
