package humanize

import "strings"

// Controls is the raw state of the option controls in a front end.
type Controls struct {
	// Mode is the selected mode; empty when nothing is selected.
	Mode string

	// IntensityPosition is the position of the three-step intensity control.
	IntensityPosition int

	Synonyms       bool
	Contractions   bool
	VaryLength     bool
	Informal       bool
	CasualStarters bool
	AIPolish       bool
}

// DefaultControls returns the controls as a fresh page shows them.
func DefaultControls() Controls {
	o := DefaultOptions()
	return Controls{
		Mode:              string(ModeBalanced),
		IntensityPosition: IntensityMedium.Position(),
		Synonyms:          o.Synonyms,
		Contractions:      o.Contractions,
		VaryLength:        o.VaryLength,
		Informal:          o.Informal,
		CasualStarters:    o.CasualStarters,
		AIPolish:          o.AIPolish,
	}
}

// Settings is everything a submission needs besides the text.
type Settings struct {
	Mode      Mode
	Intensity Intensity
	Options   Options
}

// ReadSettings converts control values into settings. It has no side effects.
func ReadSettings(c Controls) Settings {
	mode := Mode(strings.TrimSpace(c.Mode))
	if mode == "" {
		mode = ModeBalanced
	}
	return Settings{
		Mode:      mode,
		Intensity: IntensityFromPosition(c.IntensityPosition),
		Options: Options{
			Synonyms:       c.Synonyms,
			Contractions:   c.Contractions,
			VaryLength:     c.VaryLength,
			Informal:       c.Informal,
			CasualStarters: c.CasualStarters,
			AIPolish:       c.AIPolish,
		},
	}
}

// Request builds the request payload for text. The text is sent as given;
// trimming is the orchestrator's job.
func (s Settings) Request(text string) Request {
	return Request{
		Text:      text,
		Mode:      s.Mode,
		Intensity: s.Intensity,
		Options:   s.Options,
	}
}
