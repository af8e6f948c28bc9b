package service

import (
	"fmt"
	"time"

	"bilingual/internal/models"
)

// DefaultDamping keeps a perfectly mastered question reachable: it is skipped
// at most 95% of the time.
const DefaultDamping = 0.95

// RetentionPolicy decides whether a question is due for the learned language.
// sample is one uniform draw in [0, 1) made by the caller.
type RetentionPolicy interface {
	IsDue(m models.Mastery, now time.Time, sample float64) bool
}

// SuccessRatePolicy skips a question with probability success_rate * Damping
type SuccessRatePolicy struct {
	Damping float64
}

// NewSuccessRatePolicy validates the damping factor; zero selects DefaultDamping
func NewSuccessRatePolicy(damping float64) (*SuccessRatePolicy, error) {
	if damping == 0 {
		damping = DefaultDamping
	}
	if damping < 0 || damping >= 1 {
		return nil, fmt.Errorf("damping %v out of range [0, 1)", damping)
	}
	return &SuccessRatePolicy{Damping: damping}, nil
}

func (p *SuccessRatePolicy) IsDue(m models.Mastery, _ time.Time, sample float64) bool {
	chanceSkipped := m.SuccessRate * p.Damping
	return sample >= chanceSkipped
}

// DecayStep is one bracket of the time-decay table
type DecayStep struct {
	Within time.Duration // elapsed time since the last success is below this
	Skip   float64       // probability of skipping the question
}

const day = 24 * time.Hour

// DefaultDecaySteps is the skip-probability table used by the time-decay policy
var DefaultDecaySteps = []DecayStep{
	{Within: 1 * day, Skip: 0.0},
	{Within: 3 * day, Skip: 1.0},
	{Within: 7 * day, Skip: 0.8},
	{Within: 15 * day, Skip: 0.6},
	{Within: 30 * day, Skip: 0.4},
	{Within: 60 * day, Skip: 0.2},
	{Within: 90 * day, Skip: 0.1},
}

// TimeDecayPolicy skips recently answered questions according to how long ago
// the last correct answer was. Past the last step a question is always due.
type TimeDecayPolicy struct {
	Steps []DecayStep
}

// NewTimeDecayPolicy returns the policy with the default table
func NewTimeDecayPolicy() *TimeDecayPolicy {
	return &TimeDecayPolicy{Steps: DefaultDecaySteps}
}

func (p *TimeDecayPolicy) IsDue(m models.Mastery, now time.Time, sample float64) bool {
	// Nothing to retain yet.
	if m.LastSuccess == nil {
		return true
	}
	elapsed := now.Sub(*m.LastSuccess)
	for _, step := range p.Steps {
		if elapsed < step.Within {
			return sample >= step.Skip
		}
	}
	return true
}

// NewRetentionPolicy builds a policy by name
func NewRetentionPolicy(name string, damping float64) (RetentionPolicy, error) {
	switch name {
	case "", "success-rate":
		return NewSuccessRatePolicy(damping)
	case "time-decay":
		return NewTimeDecayPolicy(), nil
	default:
		return nil, fmt.Errorf("unknown retention policy: %s", name)
	}
}
