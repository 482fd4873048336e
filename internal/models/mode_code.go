package models

import "strings"

// TrainingModeCode is the stable identity of a training mode.
type TrainingModeCode string

const (
	ModeStrength     TrainingModeCode = "strength"
	ModeHypertrophy  TrainingModeCode = "hypertrophy"
	ModeCutting      TrainingModeCode = "cutting"
	ModeEndurance    TrainingModeCode = "endurance"
	ModePowerlifting TrainingModeCode = "powerlifting"
)

func (c TrainingModeCode) IsValid() bool {
	switch c {
	case ModeStrength, ModeHypertrophy, ModeCutting, ModeEndurance, ModePowerlifting:
		return true
	}
	return false
}

// modeCodeMap maps lowercased mode names, as found in exports and older
// clients, to their canonical code.
var modeCodeMap = map[string]TrainingModeCode{
	// canonical
	"strength":     ModeStrength,
	"hypertrophy":  ModeHypertrophy,
	"cutting":      ModeCutting,
	"endurance":    ModeEndurance,
	"powerlifting": ModePowerlifting,

	// English display names
	"muscle gain": ModeHypertrophy,
	"bulk":        ModeHypertrophy,
	"bulking":     ModeHypertrophy,
	"cut":         ModeCutting,
	"power":       ModePowerlifting,

	// French
	"force":          ModeStrength,
	"prise_masse":    ModeHypertrophy,
	"prise masse":    ModeHypertrophy,
	"prise de masse": ModeHypertrophy,
	"seche":          ModeCutting,
	"sèche":          ModeCutting,
}

// NormalizeModeCode maps a possibly-localized mode name to its canonical code.
// Returns the code and true if recognized, or the raw string and false.
func NormalizeModeCode(raw string) (TrainingModeCode, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if code, ok := modeCodeMap[lower]; ok {
		return code, true
	}
	return TrainingModeCode(raw), false
}
