// Package humanize defines the request and result shapes exchanged with the
// humanize endpoint, plus the pure helpers that build them from UI controls.
package humanize

import (
	"fmt"
	"strings"
)

// Mode selects the transformation strategy on the server.
// Values outside the known set are passed through unvalidated.
type Mode string

// Known modes.
const (
	ModeBalanced Mode = "balanced"
	ModeNLPOnly  Mode = "nlp_only"
	ModeAIOnly   Mode = "ai_only"
)

// Modes lists the modes offered by the front ends, in display order.
var Modes = []Mode{ModeBalanced, ModeNLPOnly, ModeAIOnly}

// Intensity controls how aggressively the server rewrites text.
type Intensity string

// Intensity levels, ordered by position on the three-step control.
const (
	IntensityLight  Intensity = "light"
	IntensityMedium Intensity = "medium"
	IntensityHeavy  Intensity = "heavy"
)

var intensityByPosition = [...]Intensity{IntensityLight, IntensityMedium, IntensityHeavy}

// IntensityFromPosition maps a slider position (0, 1, 2) to an intensity.
// Out-of-range positions fall back to medium.
func IntensityFromPosition(pos int) Intensity {
	if pos < 0 || pos >= len(intensityByPosition) {
		return IntensityMedium
	}
	return intensityByPosition[pos]
}

// Position returns the slider position of the intensity (medium for unknown values).
func (i Intensity) Position() int {
	for pos, v := range intensityByPosition {
		if v == i {
			return pos
		}
	}
	return 1
}

// ParseIntensity parses a case-insensitive intensity name.
func ParseIntensity(s string) (Intensity, error) {
	switch Intensity(strings.ToLower(strings.TrimSpace(s))) {
	case IntensityLight:
		return IntensityLight, nil
	case IntensityMedium, "":
		return IntensityMedium, nil
	case IntensityHeavy:
		return IntensityHeavy, nil
	default:
		return "", fmt.Errorf("invalid intensity %q (want light, medium or heavy)", s)
	}
}

// Options holds the six technique toggles sent with every request.
type Options struct {
	Synonyms       bool `json:"synonyms" yaml:"synonyms"`
	Contractions   bool `json:"contractions" yaml:"contractions"`
	VaryLength     bool `json:"vary_length" yaml:"vary_length"`
	Informal       bool `json:"informal" yaml:"informal"`
	CasualStarters bool `json:"casual_starters" yaml:"casual_starters"`
	AIPolish       bool `json:"ai_polish" yaml:"ai_polish"`
}

// DefaultOptions matches the initial toggle state of the front ends:
// every technique on except the extra AI polish pass.
func DefaultOptions() Options {
	return Options{
		Synonyms:       true,
		Contractions:   true,
		VaryLength:     true,
		Informal:       true,
		CasualStarters: true,
	}
}

// Request is the body of POST /api/humanize.
type Request struct {
	Text      string    `json:"text"`
	Mode      Mode      `json:"mode"`
	Intensity Intensity `json:"intensity"`
	Options   Options   `json:"options"`
}

// Result is the decoded body of a humanize response.
// Humanized is set iff Success; Error is set iff not.
type Result struct {
	Success   bool     `json:"success" yaml:"success"`
	Humanized string   `json:"humanized,omitempty" yaml:"humanized,omitempty"`
	Steps     []string `json:"steps,omitempty" yaml:"steps,omitempty"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`

	// Echoed by the server on success.
	Original  string    `json:"original,omitempty" yaml:"original,omitempty"`
	Mode      Mode      `json:"mode,omitempty" yaml:"mode,omitempty"`
	Intensity Intensity `json:"intensity,omitempty" yaml:"intensity,omitempty"`
}
