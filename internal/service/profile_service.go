package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bilingual/internal/credentials"
	"bilingual/internal/models"
	"bilingual/internal/repository"
	"bilingual/internal/security"
	"bilingual/internal/utils"

	"github.com/google/uuid"
)

var (
	ErrInvalidPin         = errors.New("invalid pin")
	ErrProfileActive      = errors.New("profile is in use")
	ErrTooManyPinAttempts = errors.New("too many pin attempts, try again later")
)

const (
	// maxNameAttempts bounds the retries when a generated name is already taken
	maxNameAttempts = 10

	pinAttempts      = 5
	pinAttemptWindow = time.Minute
)

// ProfileRepository stores learner profiles
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfileByName(ctx context.Context, name string) (*models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	DeleteProfile(ctx context.Context, name string) error
}

// ProfileService handles profile business logic
type ProfileService struct {
	profiles   ProfileRepository
	scheduler  *Scheduler
	pinLimiter *security.RateLimiter
}

// NewProfileService creates a new profile service
func NewProfileService(profiles ProfileRepository, scheduler *Scheduler) *ProfileService {
	return &ProfileService{
		profiles:   profiles,
		scheduler:  scheduler,
		pinLimiter: security.NewRateLimiter(pinAttempts, pinAttemptWindow),
	}
}

// CreateProfile creates a learner profile. A blank name gets a generated
// adjective-noun name; an empty pin leaves the profile unprotected.
func (s *ProfileService) CreateProfile(ctx context.Context, name, pin string) (*models.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		generated, err := s.generateName(ctx)
		if err != nil {
			return nil, err
		}
		name = generated
	}

	if err := utils.ValidateProfileName(name); err != nil {
		return nil, err
	}
	if err := utils.ValidatePin(pin); err != nil {
		return nil, err
	}

	profile := &models.Profile{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if pin != "" {
		hash, err := utils.HashPin(pin)
		if err != nil {
			return nil, fmt.Errorf("failed to hash pin: %w", err)
		}
		profile.PinHash = hash
	}

	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}

	log.Printf("Created profile %s", profile.Name)
	return profile, nil
}

// ListProfiles returns every profile ordered by name
func (s *ProfileService) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	return s.profiles.ListProfiles(ctx)
}

// SelectProfile checks the pin and loads the profile's mastery into the store
func (s *ProfileService) SelectProfile(ctx context.Context, name, pin string) (*models.Profile, error) {
	profile, err := s.authenticate(ctx, name, pin)
	if err != nil {
		return nil, err
	}
	if err := s.scheduler.LoadProfile(ctx, profile.Name); err != nil {
		return nil, err
	}
	return profile, nil
}

// DeleteProfile removes a profile and its mastery. The active profile cannot be deleted.
func (s *ProfileService) DeleteProfile(ctx context.Context, name, pin string) error {
	profile, err := s.authenticate(ctx, name, pin)
	if err != nil {
		return err
	}
	if s.scheduler.State().Profile == profile.Name {
		return fmt.Errorf("%w: %s", ErrProfileActive, profile.Name)
	}
	if err := s.profiles.DeleteProfile(ctx, profile.Name); err != nil {
		return err
	}

	log.Printf("Deleted profile %s", profile.Name)
	return nil
}

func (s *ProfileService) authenticate(ctx context.Context, name, pin string) (*models.Profile, error) {
	name = strings.TrimSpace(name)
	if err := utils.ValidateProfileName(name); err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetProfileByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !profile.HasPin() {
		return profile, nil
	}
	if !s.pinLimiter.Allow(profile.Name) {
		return nil, ErrTooManyPinAttempts
	}
	if !utils.CheckPin(pin, profile.PinHash) {
		return nil, ErrInvalidPin
	}
	s.pinLimiter.Reset(profile.Name)
	return profile, nil
}

func (s *ProfileService) generateName(ctx context.Context) (string, error) {
	for i := 0; i < maxNameAttempts; i++ {
		name, err := credentials.GenerateProfileName()
		if err != nil {
			return "", fmt.Errorf("failed to generate profile name: %w", err)
		}
		_, err = s.profiles.GetProfileByName(ctx, name)
		if errors.Is(err, repository.ErrProfileNotFound) {
			return name, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("failed to generate a free profile name after %d attempts", maxNameAttempts)
}
