// Package reading implements the client-side reading session core: a
// pausable active-time timer, an image navigator, and the controller that
// drives the diagnose/pause/quit lifecycle against the MedRead API. It has no
// rendering dependencies; a UI calls into it and observes state.
package reading

import (
	"errors"
	"strings"
)

// DiagnosisKind tags a Diagnosis as a preset choice or free text.
type DiagnosisKind int

const (
	KindFixed DiagnosisKind = iota
	KindCustom
)

// Diagnosis is the user's guess for an image's category: one of the fixed
// presets or a free-text entry.
type Diagnosis struct {
	Kind  DiagnosisKind
	Value string
}

// ErrEmptyDiagnosis rejects a blank custom diagnosis before any network call.
var ErrEmptyDiagnosis = errors.New("diagnosis must not be empty")

// FixedDiagnosis builds a Diagnosis from a preset category value.
func FixedDiagnosis(category string) Diagnosis {
	return Diagnosis{Kind: KindFixed, Value: strings.ToLower(category)}
}

// CustomDiagnosis builds a free-text Diagnosis.
func CustomDiagnosis(text string) Diagnosis {
	return Diagnosis{Kind: KindCustom, Value: strings.ToLower(strings.TrimSpace(text))}
}

// Validate reports whether the diagnosis can be submitted.
func (d Diagnosis) Validate() error {
	if d.Value == "" {
		return ErrEmptyDiagnosis
	}
	return nil
}
