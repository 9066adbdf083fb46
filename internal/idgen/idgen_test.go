package idgen_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jamesaphoenix/tx/internal/idgen"
)

func TestTaskFromSeed_DeterministicForSameInputs(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := idgen.TaskFromSeed("title", "desc", created, "seed1")
	b := idgen.TaskFromSeed("title", "desc", created, "seed1")
	assert.Equal(t, a, b)
}

func TestTaskFromSeed_DiffersByAnyInput(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	base := idgen.TaskFromSeed("title", "desc", created, "seed1")
	assert.NotEqual(t, base, idgen.TaskFromSeed("other", "desc", created, "seed1"))
	assert.NotEqual(t, base, idgen.TaskFromSeed("title", "desc", created, "seed2"))
}

func TestTask_HasExpectedShape(t *testing.T) {
	id := idgen.Task()
	assert.Regexp(t, `^tx-[0-9a-f]{8}$`, id)
}

func TestWorker_HasExpectedShape(t *testing.T) {
	id := idgen.Worker()
	assert.Regexp(t, `^worker-[0-9a-f]{8}$`, id)
}
