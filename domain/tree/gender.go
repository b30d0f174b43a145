package tree

import (
	"strings"

	pkgerrors "familytree-backend/pkg/errors"
)

// Gender is the fixed classification tag for a person. The zero value means
// unset.
type Gender string

const (
	GenderUnspecified Gender = ""
	GenderMale        Gender = "MALE"
	GenderFemale      Gender = "FEMALE"
)

var genderLabels = map[Gender]string{
	GenderMale:   "Male",
	GenderFemale: "Female",
}

// genderLookup is built once from the fixed set and matches both the
// canonical name and the display label, lowercased.
var genderLookup = func() map[string]Gender {
	m := make(map[string]Gender, len(genderLabels)*2)
	for g, label := range genderLabels {
		m[strings.ToLower(string(g))] = g
		m[strings.ToLower(label)] = g
	}
	return m
}()

// ParseGender resolves a gender from its canonical name or display label,
// case-insensitively. Empty or blank input yields GenderUnspecified. An
// unrecognized value is a validation error, never a silent default.
func ParseGender(value string) (Gender, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return GenderUnspecified, nil
	}

	if g, ok := genderLookup[strings.ToLower(trimmed)]; ok {
		return g, nil
	}

	return GenderUnspecified, pkgerrors.NewValidationError("unknown gender: " + value + " (valid values: Male, Female)")
}

// Label returns the human-readable form used on the wire, or "" when unset.
func (g Gender) Label() string {
	return genderLabels[g]
}
