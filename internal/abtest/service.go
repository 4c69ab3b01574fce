package abtest

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ateliedalu/backend-atacado/internal/common"
	"github.com/ateliedalu/backend-atacado/internal/events"
)

// ErrExperimentNotFound is returned for unknown experiment keys.
var ErrExperimentNotFound = errors.New("experiment not found")

// Variant is one arm of an experiment with its traffic weight.
type Variant struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
}

// Experiment is a weighted split of sessions across variants.
type Experiment struct {
	Key      string    `json:"key"`
	Variants []Variant `json:"variants"`
}

// Assignment is the variant resolved for one session. The same session always
// resolves to the same variant.
type Assignment struct {
	Experiment string `json:"experiment"`
	Variant    string `json:"variant"`
}

// Service resolves deterministic experiment assignments. Bucketing hashes the
// experiment key with the session so one session can land in different arms
// of different experiments.
type Service struct {
	Experiments map[string]Experiment
	Events      *events.Bus
	Log         zerolog.Logger
}

// DefaultExperiments returns the storefront experiments currently running.
func DefaultExperiments() map[string]Experiment {
	return map[string]Experiment{
		"opportunity-nudge": {
			Key: "opportunity-nudge",
			Variants: []Variant{
				{Name: "control", Weight: 50},
				{Name: "savings-highlight", Weight: 50},
			},
		},
		"min-order-banner": {
			Key: "min-order-banner",
			Variants: []Variant{
				{Name: "control", Weight: 34},
				{Name: "progress-bar", Weight: 33},
				{Name: "remaining-count", Weight: 33},
			},
		},
	}
}

// Assign resolves the variant for a session and records the exposure.
func (s *Service) Assign(ctx context.Context, experimentKey, sessionID string) (Assignment, error) {
	if s == nil {
		return Assignment{}, errors.New("abtest service not configured")
	}
	exp, ok := s.Experiments[experimentKey]
	if !ok || len(exp.Variants) == 0 {
		return Assignment{}, ErrExperimentNotFound
	}

	assignment := Assignment{
		Experiment: exp.Key,
		Variant:    pick(exp, sessionID),
	}
	if s.Events != nil {
		_, err := s.Events.Emit(ctx, events.TopicExperimentExposed, sessionID, map[string]any{
			"experiment": assignment.Experiment,
			"variant":    assignment.Variant,
		})
		if err != nil {
			s.Log.Warn().Err(err).Str("experiment", experimentKey).Msg("exposure event emission failed")
		}
	}
	return assignment, nil
}

// pick hashes the experiment and session into a stable bucket over the total
// variant weight.
func pick(exp Experiment, sessionID string) string {
	total := 0
	for _, v := range exp.Variants {
		if v.Weight > 0 {
			total += v.Weight
		}
	}
	if total == 0 {
		return exp.Variants[0].Name
	}

	digest := common.Sha256Hex(exp.Key + ":" + sessionID)
	n, err := strconv.ParseUint(digest[:15], 16, 64)
	if err != nil {
		return exp.Variants[0].Name
	}
	bucket := int(n % uint64(total))

	for _, v := range exp.Variants {
		if v.Weight <= 0 {
			continue
		}
		if bucket < v.Weight {
			return v.Name
		}
		bucket -= v.Weight
	}
	return exp.Variants[len(exp.Variants)-1].Name
}
