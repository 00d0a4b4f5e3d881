// Package genai is the content generator collaborator: it turns structured
// medical context into natural-language text via an LLM provider.
package genai

import (
	"context"

	"github.com/sehatlabs/sehat/internal/domain"
)

// InteractionReport is the structured result of an interaction check.
type InteractionReport struct {
	HasInteractions bool     `json:"has_interactions"`
	Interactions    []string `json:"interactions"`
	Summary         string   `json:"summary"`
}

// Generator produces natural-language medical content. Implementations are
// fallible; callers substitute localized fallback text on error.
type Generator interface {
	// CheckInteractions reviews a medication list for known interactions.
	CheckInteractions(ctx context.Context, meds []*domain.Medication, lang domain.Language) (*InteractionReport, error)

	// Recommend produces short health advice from the user's profile,
	// medications and recent readings.
	Recommend(ctx context.Context, user *domain.User, meds []*domain.Medication, readings []*domain.HealthRecord, lang domain.Language) (string, error)
}
