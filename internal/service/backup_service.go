package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"bilingual/internal/models"
)

const backupVersion = "1.0"

// BackupData is the portable progress of one profile
type BackupData struct {
	Version    string              `json:"version"`
	ExportedAt time.Time           `json:"exported_at"`
	Profile    string              `json:"profile,omitempty"`
	Progress   models.ProgressTree `json:"progress"`
}

// ImportSummary reports what an import changed
type ImportSummary struct {
	Questions int // questions whose mastery was replaced
	Skipped   int // language records for content that is not loaded
}

// BackupService exports and restores the progress of the active profile
type BackupService struct {
	scheduler *Scheduler
}

// NewBackupService creates a new backup service
func NewBackupService(scheduler *Scheduler) *BackupService {
	return &BackupService{scheduler: scheduler}
}

// Export writes the active profile's mastery as indented JSON
func (s *BackupService) Export(w io.Writer) error {
	backup := &BackupData{
		Version:    backupVersion,
		ExportedAt: time.Now(),
		Profile:    s.scheduler.State().Profile,
		Progress:   s.scheduler.Snapshot(),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported %d mastery records", backup.Progress.Count())
	return nil
}

// Import merges a backup into the active profile and persists every touched question
func (s *BackupService) Import(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if err := backup.Progress.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)
	if active := s.scheduler.State().Profile; backup.Profile != "" && backup.Profile != active {
		log.Printf("Importing progress of profile %s into profile %s", backup.Profile, active)
	}

	applied, skipped, err := s.scheduler.MergeProgress(ctx, backup.Progress)
	summary := &ImportSummary{Questions: len(applied), Skipped: skipped}
	if err != nil {
		return summary, err
	}

	log.Printf("Imported mastery for %d questions (%d records skipped)", summary.Questions, summary.Skipped)
	return summary, nil
}
