/*
Package profile defines the user-submitted nutrition profile, the fixed
option vocabularies offered by the form, and the fallback literals applied
to blank optional fields before prompt interpolation.
*/
package profile

import (
	"errors"
	"strings"
)

// Form option vocabularies. The form renders these in order; the pipeline
// treats the values as opaque text.
var (
	Genders = []string{"Male", "Female", "Non-binary/Other"}

	GoalOptions = []string{
		"Weight Loss", "Weight Gain", "Maintenance", "Muscle Building",
		"Better Energy", "Improved Athletic Performance",
		"Disease Management", "General Health",
	}

	ActivityLevels = []string{
		"Sedentary", "Lightly Active", "Moderately Active",
		"Very Active", "Extremely Active",
	}

	Budgets = []string{
		"Very Limited", "Budget Conscious", "Moderate",
		"Flexible", "No Constraints",
	}
)

// Fallback literals substituted for blank optional fields.
const (
	FallbackNoneReported = "None reported"
	FallbackNoLocation   = "No specific factors"
	FallbackGoals        = "General health improvement"
)

// ErrNoGoals is returned by Validate when the goals selection is empty.
var ErrNoGoals = errors.New("at least one nutrition goal is required")

// UserProfile is the flat set of form-collected fields describing one
// person's nutrition request. Height and weight are free text with mixed
// units; no unit normalization is attempted.
type UserProfile struct {
	Age               int
	Gender            string
	Height            string
	Weight            string
	ActivityLevel     string
	Goals             []string
	MedicalConditions string
	Allergies         string
	Location          string
	Budget            string
}

// Validate rejects profiles that must not reach the pipeline. The only
// hard requirement is a non-empty goals selection; every other field
// accepts blank values and is covered by Normalize.
func (p *UserProfile) Validate() error {
	if len(p.Goals) == 0 {
		return ErrNoGoals
	}
	return nil
}

// Normalize replaces blank or whitespace-only optional fields with their
// fallback literals. Call it once, after Validate and before the profile
// is interpolated into prompts.
func (p *UserProfile) Normalize() {
	p.MedicalConditions = orFallback(p.MedicalConditions, FallbackNoneReported)
	p.Allergies = orFallback(p.Allergies, FallbackNoneReported)
	p.Location = orFallback(p.Location, FallbackNoLocation)
}

// GoalsLine joins the selected goals for prompt interpolation. An empty
// selection yields the generic fallback, though the form's validation
// keeps that case from reaching the pipeline.
func (p *UserProfile) GoalsLine() string {
	if len(p.Goals) == 0 {
		return FallbackGoals
	}
	return strings.Join(p.Goals, ", ")
}

func orFallback(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
