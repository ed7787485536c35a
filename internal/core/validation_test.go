// AngelaMos | 2026
// validation_test.go

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSlug(t *testing.T) {
	assert.True(t, IsSlug("acme"))
	assert.True(t, IsSlug("acme-corp-2"))
	assert.False(t, IsSlug("Acme"))
	assert.False(t, IsSlug("acme corp"))
	assert.False(t, IsSlug("acme_corp"))
	assert.False(t, IsSlug(""))
}

func TestParseID(t *testing.T) {
	id, err := ParseID("userID", "1B4E28BA-2FA1-11D2-883F-0016D3CCA427")
	require.NoError(t, err)
	assert.Equal(t, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", id)

	_, err = ParseID("userID", "not-a-uuid")
	appErr := ToAppError(err)
	assert.Equal(t, 400, appErr.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, appErr.Message, "userID")
}

func TestIsStrongPassword(t *testing.T) {
	assert.True(t, IsStrongPassword("P@ss1234"))
	assert.False(t, IsStrongPassword("P@ss12"), "too short")
	assert.False(t, IsStrongPassword("p@ss1234"), "no upper")
	assert.False(t, IsStrongPassword("P@SS1234"), "no lower")
	assert.False(t, IsStrongPassword("P@ssword"), "no digit")
	assert.False(t, IsStrongPassword("Pass1234"), "no symbol")
}

type signupInput struct {
	Email           string `json:"email"           validate:"required,email"`
	Password        string `json:"password"        validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Slug            string `json:"slug"            validate:"omitempty,slug"`
}

func TestNewValidator(t *testing.T) {
	v := NewValidator()

	err := v.Struct(signupInput{
		Email:           "a@a.com",
		Password:        "P@ss1234",
		ConfirmPassword: "P@ss1234",
		Slug:            "acme",
	})
	require.NoError(t, err)

	err = v.Struct(signupInput{
		Email:           "a@a.com",
		Password:        "P@ss1234",
		ConfirmPassword: "P@ss12345",
	})
	require.Error(t, err)
	assert.Equal(t, "passwords do not match", FormatValidationError(err))

	err = v.Struct(signupInput{
		Email:           "not-an-email",
		Password:        "P@ss1234",
		ConfirmPassword: "P@ss1234",
		Slug:            "Bad Slug",
	})
	require.Error(t, err)
	msg := FormatValidationError(err)
	assert.Contains(t, msg, "email must be a valid email address")
	assert.Contains(t, msg, "slug must contain only lowercase letters")
}
