package dat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesOnKindOnly(t *testing.T) {
	err := &Error{Kind: KindNotFound, Op: "Find", Err: errors.New("boom")}
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrDuplicateKey))
}

func TestErrorUnwrapExposesCause(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Kind: KindInternal, Op: "New", Err: cause}
	assert.ErrorIs(t, err, cause)
}
