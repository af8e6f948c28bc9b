package repository

import (
	"context"
	"fmt"

	"bilingual/internal/content"
	"bilingual/internal/models"
)

// LessonFileRepository keeps mastery inside the shared lesson files.
// There is a single learner, so the profile argument is ignored.
type LessonFileRepository struct {
	dir string
}

// NewLessonFileRepository creates a repository over a content directory
func NewLessonFileRepository(dir string) *LessonFileRepository {
	return &LessonFileRepository{dir: dir}
}

// LoadProgress re-reads the mastery stored in the lesson files onto the store
func (r *LessonFileRepository) LoadProgress(ctx context.Context, profile string, store *content.Store) error {
	fresh, err := content.Load(r.dir)
	if err != nil {
		return fmt.Errorf("failed to reload lesson files: %w", err)
	}
	store.Merge(fresh.Snapshot())
	return nil
}

// SaveProgress rewrites the lesson file that holds the question
func (r *LessonFileRepository) SaveProgress(ctx context.Context, profile string, store *content.Store, ref models.QuestionRef) error {
	return content.SaveLesson(r.dir, store, ref.Category, ref.Lesson)
}
