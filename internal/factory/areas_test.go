package factory

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepstack/keepstack/internal/config"
	"github.com/keepstack/keepstack/internal/logger"
)

func TestNewAreasMemoryDriver(t *testing.T) {
	cfg := config.NewForTesting()
	areas, err := NewAreas(cfg, nil, logger.New("factory-test"))
	require.NoError(t, err)
	defer areas.Close()

	assert.Equal(t, cfg.SyncQuotaBytes, areas.Sync.Capacity())
	assert.Equal(t, cfg.LocalQuotaBytes, areas.Local.Capacity())
	assert.Zero(t, areas.Documents.Capacity(), "document area is unbounded")
}

func TestNewAreasSQLiteIsolatesTables(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewForTesting()
	cfg.DocDriver = "sqlite"
	cfg.SQLitePath = filepath.Join(t.TempDir(), "areas.db")

	areas, err := NewAreas(cfg, nil, logger.New("factory-test"))
	require.NoError(t, err)
	defer areas.Close()

	require.NoError(t, areas.Sync.Set(ctx, "shared-key", json.RawMessage(`"sync"`)))
	require.NoError(t, areas.Documents.Set(ctx, "shared-key", json.RawMessage(`"doc"`)))

	got, err := areas.Sync.Get(ctx, "shared-key")
	require.NoError(t, err)
	assert.JSONEq(t, `"sync"`, string(got))

	got, err = areas.Documents.Get(ctx, "shared-key")
	require.NoError(t, err)
	assert.JSONEq(t, `"doc"`, string(got))
}

func TestNewAreasRejectsUnknownDriver(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.DocDriver = "cloud"
	_, err := NewAreas(cfg, nil, logger.New("factory-test"))
	assert.Error(t, err)
}
