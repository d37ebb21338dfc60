package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	err := New(CodeDuplicateClaim, "already claimed")
	assert.True(t, HasCode(err, CodeDuplicateClaim))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(nil, CodeDuplicateClaim))
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to persist claim")

	assert.True(t, HasCode(err, CodeInternal))
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Wrap(nil, CodeInternal, "no-op"))
}

func TestHasCode_SurvivesFurtherWrapping(t *testing.T) {
	err := New(CodeInvalidTransition, "claim is already CLAIMED")
	wrapped := fmt.Errorf("handling request: %w", err)

	assert.True(t, HasCode(wrapped, CodeInvalidTransition))
	assert.Equal(t, CodeInvalidTransition, CodeOf(wrapped))
}

func TestCodeOf_DefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}
