package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"bilingual/internal/content"
	"bilingual/internal/models"
	"bilingual/internal/utils"
)

var (
	ErrNoCategorySelected = errors.New("no category selected")
	ErrNoLessonSelected   = errors.New("no lesson selected")
	ErrNoCurrentQuestion  = errors.New("no question is being shown")
)

// ProgressStore persists learner mastery. profile is empty when mastery lives
// in the shared lesson files.
type ProgressStore interface {
	LoadProgress(ctx context.Context, profile string, store *content.Store) error
	SaveProgress(ctx context.Context, profile string, store *content.Store, ref models.QuestionRef) error
}

// SchedulerConfig configures a Scheduler. Zero values produce defaults.
type SchedulerConfig struct {
	Policy RetentionPolicy  // nil → success-rate policy with DefaultDamping
	Rand   *rand.Rand       // nil → seeded from the clock
	Now    func() time.Time // nil → time.Now
}

// AnswerResult describes a graded answer and the mastery it produced
type AnswerResult struct {
	Ref      models.QuestionRef
	Outcome  models.Outcome
	Response string
	Expected string
	Mastery  models.Mastery
}

// Scheduler picks the next question of a session and records answers.
// The mutex serializes the read-modify-write of mastery and the use of rng.
type Scheduler struct {
	store    *content.Store
	progress ProgressStore
	policy   RetentionPolicy
	rng      *rand.Rand
	now      func() time.Time

	mu    sync.Mutex
	state models.SessionState
}

// NewScheduler creates a scheduler over a loaded store
func NewScheduler(store *content.Store, progress ProgressStore, cfg SchedulerConfig) *Scheduler {
	policy := cfg.Policy
	if policy == nil {
		policy = &SuccessRatePolicy{Damping: DefaultDamping}
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Scheduler{
		store:    store,
		progress: progress,
		policy:   policy,
		rng:      rng,
		now:      now,
	}
}

// State returns a copy of the session selection state
func (s *Scheduler) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LoadProfile replaces the mastery held by the store with the profile's and
// resets every selection. On failure the store is left without mastery.
func (s *Scheduler) LoadProfile(ctx context.Context, profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = models.SessionState{}
	s.store.ResetMastery()
	if s.progress != nil {
		if err := s.progress.LoadProgress(ctx, profile, s.store); err != nil {
			s.store.ResetMastery()
			return fmt.Errorf("failed to load progress for %s: %w", profile, err)
		}
	}
	s.state.Profile = profile
	return nil
}

// Snapshot returns the mastery currently held by the store
func (s *Scheduler) Snapshot() models.ProgressTree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// MergeProgress copies mastery from tree onto the store and persists every
// question it touched. Entries for unknown content are skipped and counted.
// A tree holding any out-of-range record is rejected before anything changes.
func (s *Scheduler) MergeProgress(ctx context.Context, tree models.ProgressTree) (applied []models.QuestionRef, skipped int, err error) {
	if err := tree.Validate(); err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	applied, skipped = s.store.Merge(tree)
	if s.progress == nil {
		return applied, skipped, nil
	}
	for _, ref := range applied {
		if err := s.progress.SaveProgress(ctx, s.state.Profile, s.store, ref); err != nil {
			return applied, skipped, fmt.Errorf("failed to save progress: %w", err)
		}
	}
	return applied, skipped, nil
}

// SelectLanguages sets the spoken/learned pair and clears the category selection
func (s *Scheduler) SelectLanguages(spoken, learned string) error {
	spoken = strings.TrimSpace(spoken)
	learned = strings.TrimSpace(learned)
	if err := utils.ValidateLanguages(spoken, learned, s.store.Languages()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SpokenLanguage = spoken
	s.state.LearnedLanguage = learned
	s.state.Category = ""
	s.state.Lesson = ""
	s.state.CurrentQuestionID = ""
	return nil
}

// SelectCategory picks a category and clears the lesson selection
func (s *Scheduler) SelectCategory(category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.Validate(); err != nil {
		return err
	}
	if _, err := s.store.ListLessons(category); err != nil {
		return err
	}
	s.state.Category = category
	s.state.Lesson = ""
	s.state.CurrentQuestionID = ""
	return nil
}

// SelectLesson picks the lesson that NextQuestion draws from
func (s *Scheduler) SelectLesson(category, lesson string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.Validate(); err != nil {
		return err
	}
	if _, err := s.store.Lesson(category, lesson); err != nil {
		return err
	}
	s.state.Category = category
	s.state.Lesson = lesson
	s.state.CurrentQuestionID = ""
	return nil
}

// LeaveLesson returns to the lesson list of the current category
func (s *Scheduler) LeaveLesson() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Lesson = ""
	s.state.CurrentQuestionID = ""
}

// LeaveCategory returns to the category list
func (s *Scheduler) LeaveCategory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Category = ""
	s.state.Lesson = ""
	s.state.CurrentQuestionID = ""
}

// NextQuestion draws the next question of the selected lesson, avoiding the
// question currently shown, and makes it the current question.
func (s *Scheduler) NextQuestion() (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.Validate(); err != nil {
		return nil, err
	}
	if s.state.Lesson == "" {
		return nil, ErrNoLessonSelected
	}
	entries, err := s.store.Lesson(s.state.Category, s.state.Lesson)
	if err != nil {
		return nil, err
	}
	return s.advance(entries)
}

// NextQuestionInCategory draws from every lesson of the selected category.
// The lesson of the chosen question becomes the selected lesson.
func (s *Scheduler) NextQuestionInCategory() (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.Validate(); err != nil {
		return nil, err
	}
	if s.state.Category == "" {
		return nil, ErrNoCategorySelected
	}
	entries, err := s.store.Category(s.state.Category)
	if err != nil {
		return nil, err
	}
	return s.advance(entries)
}

// Pick selects one entry for the learned language without touching session state.
// exclude may be nil.
func (s *Scheduler) Pick(entries []content.Entry, learned string, exclude *models.Question) (content.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pick(entries, learned, exclude)
}

// IsDue applies the retention policy to a question for the learned language
func (s *Scheduler) IsDue(q *models.Question, learned string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy.IsDue(q.Mastery(learned), s.now(), s.rng.Float64())
}

// CurrentQuestion returns the question being shown
func (s *Scheduler) CurrentQuestion() (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.state.CurrentRef()
	if !ok {
		return nil, ErrNoCurrentQuestion
	}
	return s.store.Question(ref)
}

// RecordAnswer grades a response to the current question, updates its mastery
// and persists it. When saving fails the in-memory update is kept and the
// result is returned together with the error.
func (s *Scheduler) RecordAnswer(ctx context.Context, response string) (*AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.Validate(); err != nil {
		return nil, err
	}
	ref, ok := s.state.CurrentRef()
	if !ok {
		return nil, ErrNoCurrentQuestion
	}
	q, err := s.store.Question(ref)
	if err != nil {
		return nil, err
	}

	learned := s.state.LearnedLanguage
	mastery := q.EnsureMastery(learned)
	if mastery == nil {
		return nil, fmt.Errorf("question %s has no %s sentence", q.ID, learned)
	}

	expected := q.Sentence(learned)
	outcome := Grade(response, expected)
	ApplyOutcome(mastery, outcome, s.now())

	result := &AnswerResult{
		Ref:      ref,
		Outcome:  outcome,
		Response: response,
		Expected: expected,
		Mastery:  *mastery,
	}

	if s.progress != nil {
		if err := s.progress.SaveProgress(ctx, s.state.Profile, s.store, ref); err != nil {
			log.Printf("Error saving progress for %s/%s/%s: %v", ref.Category, ref.Lesson, ref.QuestionID, err)
			return result, fmt.Errorf("failed to save progress: %w", err)
		}
	}

	return result, nil
}

// advance picks from entries and makes the result the current question
func (s *Scheduler) advance(entries []content.Entry) (*models.Question, error) {
	var exclude *models.Question
	if ref, ok := s.state.CurrentRef(); ok {
		exclude, _ = s.store.Question(ref)
	}

	entry, err := s.pick(s.playable(entries), s.state.LearnedLanguage, exclude)
	if err != nil {
		if s.state.Lesson == "" {
			return nil, fmt.Errorf("%w: %s", err, s.state.Category)
		}
		return nil, fmt.Errorf("%w: %s/%s", err, s.state.Category, s.state.Lesson)
	}

	s.state.Category = entry.Ref.Category
	s.state.Lesson = entry.Ref.Lesson
	s.state.CurrentQuestionID = entry.Ref.QuestionID
	return entry.Question, nil
}

// playable keeps the questions that have text in both session languages
func (s *Scheduler) playable(entries []content.Entry) []content.Entry {
	kept := make([]content.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Question.Entry(s.state.SpokenLanguage) != nil && e.Question.Entry(s.state.LearnedLanguage) != nil {
			kept = append(kept, e)
		}
	}
	return kept
}

// pick scans entries in a fresh random order and returns the first one that is
// due and not excluded. If every entry is skipped it falls back to a uniform
// draw over all entries, so a non-empty list always yields a question.
func (s *Scheduler) pick(entries []content.Entry, learned string, exclude *models.Question) (content.Entry, error) {
	if len(entries) == 0 {
		return content.Entry{}, content.ErrEmptyLesson
	}

	now := s.now()
	for _, i := range s.rng.Perm(len(entries)) {
		e := entries[i]
		if exclude != nil && e.Question == exclude {
			continue
		}
		if !s.policy.IsDue(e.Question.Mastery(learned), now, s.rng.Float64()) {
			continue
		}
		return e, nil
	}

	return entries[s.rng.Intn(len(entries))], nil
}
