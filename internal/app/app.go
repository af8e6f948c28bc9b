package app

import (
	"fmt"
	"log"

	"bilingual/internal/config"
	"bilingual/internal/content"
	"bilingual/internal/database"
	"bilingual/internal/repository"
	"bilingual/internal/service"
)

// App holds the services of one running program
type App struct {
	Config    *config.Config
	Store     *content.Store
	Scheduler *service.Scheduler
	Progress  *service.ProgressService
	Profiles  *service.ProfileService // nil when mastery lives in the lesson files
	Backup    *service.BackupService

	db *database.DB
}

// Open loads the content and wires the progress store selected by cfg
func Open(cfg *config.Config) (*App, error) {
	store, err := content.Load(cfg.ContentPath)
	if err != nil {
		return nil, err
	}

	policy, err := service.NewRetentionPolicy(cfg.RetentionPolicy, cfg.RetentionDamping)
	if err != nil {
		return nil, err
	}
	progressService, err := service.NewProgressService(store, cfg.StarThresholds)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Store: store, Progress: progressService}

	var progress service.ProgressStore
	var profiles service.ProfileRepository
	switch cfg.ProgressStore {
	case config.StoreLessons:
		progress = repository.NewLessonFileRepository(cfg.ContentPath)
	case config.StoreProfiles:
		repo := repository.NewProfileFileRepository(cfg.ProfilesPath)
		progress, profiles = repo, repo
	case config.StoreDatabase:
		db, err := database.InitializeWithConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		log.Printf("Database connection established (type: %s)", cfg.DatabaseType)
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		a.db = db
		profileRepo := repository.NewProfileRepository(db)
		progress = repository.NewMasteryRepository(db, profileRepo)
		profiles = profileRepo
	default:
		return nil, fmt.Errorf("unsupported progress store: %s", cfg.ProgressStore)
	}

	a.Scheduler = service.NewScheduler(store, progress, service.SchedulerConfig{Policy: policy})
	a.Backup = service.NewBackupService(a.Scheduler)
	if profiles != nil {
		a.Profiles = service.NewProfileService(profiles, a.Scheduler)
	}

	log.Printf("Progress store: %s, retention policy: %s", cfg.ProgressStore, cfg.RetentionPolicy)
	return a, nil
}

// Close releases the database connection, if any
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
