package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessageFallsBackToCode(t *testing.T) {
	err := New(CodeNotFound, "")
	assert.Equal(t, "not_found", err.Error())

	err = New(CodeNotFound, "session missing")
	assert.Equal(t, "session missing", err.Error())
}

func TestIsMatchesByCode(t *testing.T) {
	err := New(CodeInvalidTransition, "session already completed")
	assert.True(t, errors.Is(err, New(CodeInvalidTransition, "other message")))
	assert.False(t, errors.Is(err, New(CodeNotFound, "")))
}

func TestWrapPreservesExistingCode(t *testing.T) {
	inner := NewWithState(CodeNotFound, "session not found", "expired")
	wrapped := Wrap(inner, CodeInternal, "scan failed")

	assert.True(t, HasCode(wrapped, CodeNotFound))
	assert.Equal(t, "expired", StateOf(wrapped))
	assert.ErrorIs(t, wrapped, inner)
}

func TestWrapPlainError(t *testing.T) {
	inner := fmt.Errorf("dial tcp: connection refused")
	wrapped := Wrap(inner, CodeUpstreamUnavailable, "unlock command failed")

	require.True(t, HasCode(wrapped, CodeUpstreamUnavailable))
	assert.ErrorIs(t, wrapped, inner)
	assert.Empty(t, StateOf(wrapped))
}

func TestStateOfNonDomainError(t *testing.T) {
	assert.Empty(t, StateOf(errors.New("plain")))
}
