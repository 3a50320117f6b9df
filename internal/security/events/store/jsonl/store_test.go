package jsonl

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgate/internal/security/events/models"
)

func TestAppendAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "security.jsonl")
	store, err := New(path)
	require.NoError(t, err)

	first := models.NewEvent(models.TypeRateLimitExceeded, time.Now(), map[string]any{"endpoint": "send-devis"})
	second := models.NewEvent(models.TypeSlowRequest, time.Now(), map[string]any{"duration_ms": 1500})

	require.NoError(t, store.Append(context.Background(), []models.Event{first}))
	require.NoError(t, store.Append(context.Background(), []models.Event{second}))

	got, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, models.TypeRateLimitExceeded, got[0].Type)
	assert.Equal(t, "send-devis", got[0].Metadata["endpoint"])
	assert.Equal(t, models.TypeSlowRequest, got[1].Type)
	// JSON numbers decode as float64.
	assert.InDelta(t, 1500, got[1].Metadata["duration_ms"], 0)
}

func TestReadAllMissingFile(t *testing.T) {
	got, err := ReadAll(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, got)
}
