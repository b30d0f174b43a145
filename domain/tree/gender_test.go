package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "familytree-backend/pkg/errors"
)

func TestParseGender_ByName(t *testing.T) {
	g, err := ParseGender("MALE")
	assert.NoError(t, err)
	assert.Equal(t, GenderMale, g)

	g, err = ParseGender("female")
	assert.NoError(t, err)
	assert.Equal(t, GenderFemale, g)
}

func TestParseGender_ByLabel(t *testing.T) {
	g, err := ParseGender("Male")
	assert.NoError(t, err)
	assert.Equal(t, GenderMale, g)

	g, err = ParseGender("  Female  ")
	assert.NoError(t, err)
	assert.Equal(t, GenderFemale, g)
}

func TestParseGender_Empty(t *testing.T) {
	g, err := ParseGender("")
	assert.NoError(t, err)
	assert.Equal(t, GenderUnspecified, g)
}

func TestParseGender_Unknown(t *testing.T) {
	_, err := ParseGender("OTHER")
	assert.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestGenderLabel(t *testing.T) {
	assert.Equal(t, "Male", GenderMale.Label())
	assert.Equal(t, "Female", GenderFemale.Label())
	assert.Equal(t, "", GenderUnspecified.Label())
}
