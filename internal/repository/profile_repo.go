package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bilingual/internal/database"
	"bilingual/internal/models"

	"github.com/google/uuid"
)

// ProfileRepository handles database operations for learner profiles
type ProfileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// CreateProfile inserts a new profile. Names are unique.
func (r *ProfileRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	if _, err := r.GetProfileByName(ctx, profile.Name); err == nil {
		return fmt.Errorf("%w: %s", ErrProfileExists, profile.Name)
	} else if !errors.Is(err, ErrProfileNotFound) {
		return err
	}

	query := "INSERT INTO profiles (id, name, pin_hash, created_at) VALUES (?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query, profile.ID.String(), profile.Name, profile.PinHash, profile.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetProfileByName retrieves a profile by its unique name
func (r *ProfileRepository) GetProfileByName(ctx context.Context, name string) (*models.Profile, error) {
	query := "SELECT id, name, pin_hash, created_at FROM profiles WHERE name = ?"
	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// ListProfiles retrieves every profile ordered by name
func (r *ProfileRepository) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	query := `
		SELECT id, name, pin_hash, created_at
		FROM profiles
		ORDER BY name ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, *profile)
	}

	return profiles, rows.Err()
}

// DeleteProfile removes a profile and all of its mastery
func (r *ProfileRepository) DeleteProfile(ctx context.Context, name string) error {
	profile, err := r.GetProfileByName(ctx, name)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM mastery WHERE profile_id = ?", profile.ID.String()); err != nil {
		return fmt.Errorf("failed to delete mastery: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", profile.ID.String()); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var id string
	var createdAt int64
	profile := &models.Profile{}
	if err := row.Scan(&id, &profile.Name, &profile.PinHash, &createdAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid profile id %q: %w", id, err)
	}
	profile.ID = parsed
	profile.CreatedAt = time.Unix(createdAt, 0)
	return profile, nil
}
