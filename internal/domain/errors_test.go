package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"invalid input", InvalidInput("city", "City is required"), CodeInvalidInput},
		{"wrapped invalid input", fmt.Errorf("schedule: %w", InvalidInput("time", "bad time")), CodeInvalidInput},
		{"no news", NoNewsFound("Austin"), CodeNoNewsFound},
		{"collaborator", CollaboratorFailure("fetch news", errors.New("boom")), CodeCollaboratorFailure},
		{"other", errors.New("disk full"), CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Code(tc.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "No local news found for El Paso", NoNewsFound("El Paso").Error())
	assert.Equal(t, "City is required", InvalidInput("city", "City is required").Error())

	inner := errors.New("quota exceeded")
	err := CollaboratorFailure("synthesize audio", inner)
	assert.Equal(t, "synthesize audio: quota exceeded", err.Error())
	assert.ErrorIs(t, err, inner)
}
