package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewUserError("import of extrato.csv failed", cause)

	assert.Equal(t, "import of extrato.csv failed: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "import of extrato.csv failed", ue.UserMessage)

	bare := &UserError{UserMessage: "nothing to import"}
	assert.Equal(t, "nothing to import", bare.Error())
}

func TestErrSessionTerminalIsConflict(t *testing.T) {
	err := fmt.Errorf("session abc: %w", ErrSessionTerminal)

	assert.ErrorIs(t, err, ErrSessionTerminal)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
}
