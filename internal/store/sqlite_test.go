package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enviducate/enviducate/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleResult(id, token string) *model.EnvironmentalResult {
	return &model.EnvironmentalResult{
		ID:            id,
		OriginalQuery: "forest loss",
		Category:      model.CategoryDeforestation,
		Summary:       "summary",
		Sources:       []string{"Hansen Global Forest Change 2024"},
		Visualizations: []model.Visualization{
			{Type: model.VizPinpoints, Pinpoints: &model.PinpointsData{TotalPoints: 10}},
			{Type: model.VizHeatmap, Heatmap: &model.HeatmapData{GridSize: 10}},
			{Type: model.VizNumbers, Numbers: &model.NumbersData{TotalArea: "1 km²"}},
		},
		ShareableURL: "https://enviducate.org/result/" + token,
		GeneratedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	want := sampleResult("id-1", "tok1")
	require.NoError(t, s.SaveResult(ctx, want))

	got, err := s.GetResult(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Category, got.Category)
	assert.Len(t, got.Visualizations, 3)
	assert.Equal(t, want.ShareableURL, got.ShareableURL)
}

func TestSQLiteStore_GetByShareToken(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveResult(ctx, sampleResult("id-2", "tok2")))

	got, err := s.GetResultByShareToken(ctx, "tok2")
	require.NoError(t, err)
	assert.Equal(t, "id-2", got.ID)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.GetResult(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetResultByShareToken(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_SaveIsUpsert(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	first := sampleResult("id-3", "tok3")
	require.NoError(t, s.SaveResult(ctx, first))

	updated := sampleResult("id-3", "tok3")
	updated.Summary = "revised summary"
	require.NoError(t, s.SaveResult(ctx, updated))

	got, err := s.GetResult(ctx, "id-3")
	require.NoError(t, err)
	assert.Equal(t, "revised summary", got.Summary)
}

func TestSQLiteStore_DeleteExpired(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	old := sampleResult("id-old", "tokold")
	old.GeneratedAt = time.Now().Add(-48 * time.Hour).UTC()
	require.NoError(t, s.SaveResult(ctx, old))
	require.NoError(t, s.SaveResult(ctx, sampleResult("id-new", "toknew")))

	n, err := s.DeleteExpired(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetResult(ctx, "id-old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetResult(ctx, "id-new")
	assert.NoError(t, err)
}

func TestShareToken(t *testing.T) {
	r := sampleResult("id", "deadbeef")
	assert.Equal(t, "deadbeef", ShareToken(r))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
