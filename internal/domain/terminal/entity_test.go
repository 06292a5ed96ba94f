package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTerminal(t *testing.T) {
	term, err := NewTerminal("tenant-1", "branch-1", "Caixa 01", "CX01")
	require.NoError(t, err)

	assert.NotEmpty(t, term.ID)
	assert.True(t, term.Active)
	assert.Equal(t, "CX01", term.Code)

	_, err = NewTerminal("tenant-1", "", "Caixa 01", "CX01")
	assert.ErrorIs(t, err, ErrEmptyBranchID)

	_, err = NewTerminal("tenant-1", "branch-1", "", "CX01")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestTerminalActivation(t *testing.T) {
	term, err := NewTerminal("tenant-1", "branch-1", "Caixa 01", "CX01")
	require.NoError(t, err)

	term.Deactivate()
	assert.False(t, term.Active)

	term.Activate()
	assert.True(t, term.Active)
}
