package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bilingual/internal/content"
	"bilingual/internal/models"
	"bilingual/internal/utils"

	"github.com/google/uuid"
)

const profileExt = ".json"

// profileFile is the on-disk layout of one profile
type profileFile struct {
	ID        uuid.UUID           `json:"id"`
	Name      string              `json:"name"`
	PinHash   string              `json:"pin_hash,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	Progress  models.ProgressTree `json:"progress"`
}

// ProfileFileRepository stores each profile, with its mastery, in <dir>/<name>.json
type ProfileFileRepository struct {
	dir string
}

// NewProfileFileRepository creates a repository over a profiles directory
func NewProfileFileRepository(dir string) *ProfileFileRepository {
	return &ProfileFileRepository{dir: dir}
}

// CreateProfile writes a new profile file with empty progress
func (r *ProfileFileRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	path, err := r.path(profile.Name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrProfileExists, profile.Name)
	}

	return r.write(&profileFile{
		ID:        profile.ID,
		Name:      profile.Name,
		PinHash:   profile.PinHash,
		CreatedAt: profile.CreatedAt,
		Progress:  make(models.ProgressTree),
	})
}

// GetProfileByName reads one profile
func (r *ProfileFileRepository) GetProfileByName(ctx context.Context, name string) (*models.Profile, error) {
	pf, err := r.read(name)
	if err != nil {
		return nil, err
	}
	return pf.profile(), nil
}

// ListProfiles reads every profile in the directory ordered by name
func (r *ProfileFileRepository) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	entries, err := os.ReadDir(r.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles directory: %w", err)
	}

	var profiles []models.Profile
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != profileExt {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), profileExt)
		if utils.ValidateProfileName(name) != nil {
			log.Printf("Ignoring %s: not a valid profile name", entry.Name())
			continue
		}
		pf, err := r.read(name)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *pf.profile())
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Name < profiles[j].Name
	})
	return profiles, nil
}

// DeleteProfile removes the profile file
func (r *ProfileFileRepository) DeleteProfile(ctx context.Context, name string) error {
	path, err := r.path(name)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return err
}

// GetProgress returns the progress tree stored in the profile file
func (r *ProfileFileRepository) GetProgress(name string) (models.ProgressTree, error) {
	pf, err := r.read(name)
	if err != nil {
		return nil, err
	}
	return pf.Progress, nil
}

// LoadProgress merges the profile's mastery onto the store
func (r *ProfileFileRepository) LoadProgress(ctx context.Context, profile string, store *content.Store) error {
	pf, err := r.read(profile)
	if err != nil {
		return err
	}

	if err := pf.Progress.Validate(); err != nil {
		return fmt.Errorf("profile %s has corrupt mastery: %w", profile, err)
	}

	applied, skipped := store.Merge(pf.Progress)
	if skipped > 0 {
		log.Printf("Profile %s has %d mastery records for content that no longer exists", profile, skipped)
	}
	log.Printf("Loaded mastery for %d questions of profile %s", len(applied), profile)
	return nil
}

// SaveProgress rewrites the whole profile file. Mastery for content that is
// no longer loaded is kept.
func (r *ProfileFileRepository) SaveProgress(ctx context.Context, profile string, store *content.Store, ref models.QuestionRef) error {
	pf, err := r.read(profile)
	if err != nil {
		return err
	}
	pf.Progress.Overlay(store.Snapshot())
	return r.write(pf)
}

// path maps a profile name to its file. Names that are not valid profile
// names are rejected so they cannot reach outside the profiles directory.
func (r *ProfileFileRepository) path(name string) (string, error) {
	if err := utils.ValidateProfileName(name); err != nil {
		return "", err
	}
	return filepath.Join(r.dir, name+profileExt), nil
}

func (r *ProfileFileRepository) read(name string) (*profileFile, error) {
	path, err := r.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", name, err)
	}

	pf := &profileFile{}
	if err := json.Unmarshal(data, pf); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if pf.Progress == nil {
		pf.Progress = make(models.ProgressTree)
	}
	if pf.Name == "" {
		pf.Name = name
	}
	return pf, nil
}

func (r *ProfileFileRepository) write(pf *profileFile) error {
	data, err := json.MarshalIndent(pf, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode profile %s: %w", pf.Name, err)
	}
	path, err := r.path(pf.Name)
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, data, 0600)
}

func (pf *profileFile) profile() *models.Profile {
	return &models.Profile{
		ID:        pf.ID,
		Name:      pf.Name,
		PinHash:   pf.PinHash,
		CreatedAt: pf.CreatedAt,
	}
}
