package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"bilingual/internal/content"
	"bilingual/internal/database"
	"bilingual/internal/models"

	"github.com/google/uuid"
)

// MasteryRepository stores per-profile mastery in the mastery table
type MasteryRepository struct {
	db       *database.DB
	profiles *ProfileRepository
}

// NewMasteryRepository creates a new mastery repository
func NewMasteryRepository(db *database.DB, profiles *ProfileRepository) *MasteryRepository {
	return &MasteryRepository{db: db, profiles: profiles}
}

// GetProgress retrieves every mastery row of a profile
func (r *MasteryRepository) GetProgress(ctx context.Context, profileID uuid.UUID) (models.ProgressTree, error) {
	query := `
		SELECT category, lesson, question_id, language, success_rate, tries, last_success
		FROM mastery
		WHERE profile_id = ?
	`
	rows, err := r.db.QueryContext(ctx, query, profileID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query mastery: %w", err)
	}
	defer rows.Close()

	tree := make(models.ProgressTree)
	for rows.Next() {
		var ref models.QuestionRef
		var language string
		var m models.Mastery
		var lastSuccess sql.NullInt64
		if err := rows.Scan(&ref.Category, &ref.Lesson, &ref.QuestionID, &language, &m.SuccessRate, &m.Tries, &lastSuccess); err != nil {
			return nil, fmt.Errorf("failed to scan mastery: %w", err)
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("corrupt mastery for %s/%s/%s (%s): %w", ref.Category, ref.Lesson, ref.QuestionID, language, err)
		}
		if lastSuccess.Valid {
			t := time.Unix(lastSuccess.Int64, 0)
			m.LastSuccess = &t
		}
		tree.Set(ref, language, m)
	}

	return tree, rows.Err()
}

// LoadProgress merges the profile's stored mastery onto the store
func (r *MasteryRepository) LoadProgress(ctx context.Context, profile string, store *content.Store) error {
	p, err := r.profiles.GetProfileByName(ctx, profile)
	if err != nil {
		return err
	}
	tree, err := r.GetProgress(ctx, p.ID)
	if err != nil {
		return err
	}

	applied, skipped := store.Merge(tree)
	if skipped > 0 {
		log.Printf("Profile %s has %d mastery records for content that no longer exists", profile, skipped)
	}
	log.Printf("Loaded mastery for %d questions of profile %s", len(applied), profile)
	return nil
}

// SaveProgress upserts the mastery of every language of one question
func (r *MasteryRepository) SaveProgress(ctx context.Context, profile string, store *content.Store, ref models.QuestionRef) error {
	p, err := r.profiles.GetProfileByName(ctx, profile)
	if err != nil {
		return err
	}
	q, err := store.Question(ref)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for language, entry := range q.Languages {
		if entry.Mastery == nil {
			continue
		}
		if err := upsertMastery(ctx, tx, p.ID, ref, language, *entry.Mastery, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func upsertMastery(ctx context.Context, db database.DBTX, profileID uuid.UUID, ref models.QuestionRef, language string, m models.Mastery, now int64) error {
	var lastSuccess sql.NullInt64
	if m.LastSuccess != nil {
		lastSuccess = sql.NullInt64{Int64: m.LastSuccess.Unix(), Valid: true}
	}

	_, err := db.ExecContext(ctx, db.GetDialect().UpsertMasteryQuery(),
		profileID.String(), ref.Category, ref.Lesson, ref.QuestionID, language,
		m.SuccessRate, m.Tries, lastSuccess, now)
	if err != nil {
		return fmt.Errorf("failed to save mastery for %s/%s/%s (%s): %w", ref.Category, ref.Lesson, ref.QuestionID, language, err)
	}
	return nil
}
