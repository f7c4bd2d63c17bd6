package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuneatelier/fortune-backend/pkg/config"
)

func TestOnDemandArtifactsPointAtDownloadRoute(t *testing.T) {
	a := NewOnDemandArtifacts(config.AppConfig{BaseURL: "https://fortune.example.com"})

	loc, err := a.Store(context.Background(), "ord_1", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "https://fortune.example.com/api/v1/reports/ord_1", loc)

	_, ok, err := a.Load(context.Background(), "ord_1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, a.Durable())
}

func TestLocalArtifactsRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	a := NewLocalArtifacts(dir)
	ctx := context.Background()

	_, ok, err := a.Load(ctx, "ord_1")
	require.NoError(t, err)
	assert.False(t, ok)

	loc, err := a.Store(ctx, "ord_1", []byte("%PDF-1.3 body"))
	require.NoError(t, err)
	assert.Equal(t, "/reports/ord_1.pdf", loc)

	data, ok, err := a.Load(ctx, "ord_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "%PDF-1.3 body", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not be left behind")

	_, err = a.Store(ctx, "ord_2", nil)
	assert.Error(t, err)
}

func TestNewArtifactsSelectsStrategy(t *testing.T) {
	cfg := &config.Config{Reports: config.ReportsConfig{Storage: config.ReportsStorageLocal, Dir: t.TempDir()}}
	a, err := NewArtifacts(cfg)
	require.NoError(t, err)
	assert.IsType(t, &LocalArtifacts{}, a)

	cfg.Reports.Storage = config.ReportsStorageOnDemand
	a, err = NewArtifacts(cfg)
	require.NoError(t, err)
	assert.IsType(t, &OnDemandArtifacts{}, a)

	cfg.Reports.Storage = "s3"
	_, err = NewArtifacts(cfg)
	assert.Error(t, err)
}
