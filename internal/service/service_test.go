package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"bilingual/internal/content"
	"bilingual/internal/models"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// newLessonStore builds a store with one lesson per entry of sizes, named
// lesson1, lesson2, ... in category "travel". Question n reads "english n" / "french n".
func newLessonStore(t *testing.T, sizes ...int) *content.Store {
	t.Helper()
	store := content.NewStore()
	for l, size := range sizes {
		lesson := fmt.Sprintf("lesson%d", l+1)
		for i := 1; i <= size; i++ {
			q := &models.Question{
				ID: fmt.Sprintf("%d", i),
				Languages: map[string]*models.LanguageEntry{
					"english": {Sentence: fmt.Sprintf("english %d", i), Hints: fmt.Sprintf("hint %d", i)},
					"french":  {Sentence: fmt.Sprintf("french %d", i)},
				},
			}
			if err := store.AddQuestion("travel", lesson, q); err != nil {
				t.Fatal(err)
			}
		}
	}
	return store
}

func ref(lesson, id string) models.QuestionRef {
	return models.QuestionRef{Category: "travel", Lesson: lesson, QuestionID: id}
}

// fakeProgress records saves and can be told to fail
type fakeProgress struct {
	mu     sync.Mutex
	saved  []models.QuestionRef
	tree   models.ProgressTree
	err    error
	loadFn func(store *content.Store) error
}

func (f *fakeProgress) LoadProgress(ctx context.Context, profile string, store *content.Store) error {
	if f.loadFn != nil {
		return f.loadFn(store)
	}
	if f.tree != nil {
		store.Merge(f.tree)
	}
	return nil
}

func (f *fakeProgress) SaveProgress(ctx context.Context, profile string, store *content.Store, ref models.QuestionRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, ref)
	return nil
}

func newTestScheduler(store *content.Store, progress ProgressStore, seed int64) *Scheduler {
	return NewScheduler(store, progress, SchedulerConfig{
		Rand: rand.New(rand.NewSource(seed)),
		Now:  func() time.Time { return testNow },
	})
}

// startLesson selects english -> french and the given lesson
func startLesson(t *testing.T, s *Scheduler, lesson string) {
	t.Helper()
	if err := s.SelectLanguages("english", "french"); err != nil {
		t.Fatalf("SelectLanguages() error = %v", err)
	}
	if err := s.SelectLesson("travel", lesson); err != nil {
		t.Fatalf("SelectLesson() error = %v", err)
	}
}

func newTestRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
