package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartialWriteError_MatchesSentinelAndCause(t *testing.T) {
	cause := errors.New("network")
	err := fmt.Errorf("record payment: %w", NewPartialWriteError("delete cart items", cause))

	assert.ErrorIs(t, err, ErrPartialWrite)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "record payment: delete cart items: network", err.Error())

	var pw *PartialWriteError
	assert.True(t, errors.As(err, &pw))
	assert.Equal(t, "delete cart items", pw.Step)
}

func TestPartialWriteError_PlainErrorsDoNotMatch(t *testing.T) {
	assert.NotErrorIs(t, errors.New("insert payment: timeout"), ErrPartialWrite)
}
