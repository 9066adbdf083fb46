package export_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesaphoenix/tx/internal/export"
)

func TestDispatch_WritesJSONLRecord(t *testing.T) {
	dir := t.TempDir()
	d := export.New(dir, export.PolicyBestEffort, func(context.Context) bool { return true }, nil)

	d.Dispatch(context.Background(), export.EntityTask, map[string]string{"id": "tx-1"})
	d.Wait()

	b, err := os.ReadFile(filepath.Join(dir, "task.jsonl"))
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal(b[:len(b)-1], &got))
	assert.Equal(t, "tx-1", got["id"])
}

func TestDispatch_SkipsWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	d := export.New(dir, export.PolicyBestEffort, func(context.Context) bool { return false }, nil)

	d.Dispatch(context.Background(), export.EntityLearning, map[string]string{"id": "l-1"})
	d.Wait()

	_, err := os.Stat(filepath.Join(dir, "learning.jsonl"))
	assert.True(t, os.IsNotExist(err))
}
