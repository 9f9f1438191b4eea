package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSentinels(t *testing.T) {
	err := Conflict("book %d is not available for loan, current state: %s", 2, "on-loan")

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "book 2 is not available for loan, current state: on-loan", err.Error())
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("create loan: %w", NotFound("member %d not found", 7))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "member 7 not found", Message(err))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestKindOf_Plain(t *testing.T) {
	err := errors.New("connection reset")

	assert.Equal(t, KindUnknown, KindOf(err))
	assert.Empty(t, Message(err))
}

func TestIntegrity_KeepsCause(t *testing.T) {
	cause := errors.New("no rows")
	err := Integrity(cause, "loan %d references missing book %d", 3, 999)

	assert.True(t, errors.Is(err, ErrIntegrity))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "integrity", KindOf(err).String())
}
