package txerr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jamesaphoenix/tx/internal/txerr"
)

func TestIsNotFound_MatchesKindOrEmpty(t *testing.T) {
	err := txerr.TaskNotFound("tx-1")
	assert.True(t, txerr.IsNotFound(err, "task"))
	assert.True(t, txerr.IsNotFound(err, ""))
	assert.False(t, txerr.IsNotFound(err, "worker"))
}

func TestIsNotFound_FalseForOtherErrorTypes(t *testing.T) {
	assert.False(t, txerr.IsNotFound(errors.New("boom"), ""))
}

func TestDatabase_NilCauseReturnsNil(t *testing.T) {
	assert.Nil(t, txerr.Database(nil))
}

func TestDatabase_WrapsAndUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := txerr.Database(cause)
	assert.ErrorIs(t, wrapped, cause)
}
