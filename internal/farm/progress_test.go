package farm

import (
	"testing"
	"time"

	"github.com/krishisakhi/krishisakhi/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressDerivesFromSowingEntries(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, fs := newTestFarmService(now)

	// Stored newest-first, like the SQLite ordering.
	fs.entries = []store.DiaryEntry{
		{UserID: 1, Date: "2026-07-25", Activity: "Weeding", Crop: "Rice"},
		{UserID: 1, Date: "2026-07-12", Activity: "Seed Sowing", Crop: "Tomato"},
		{UserID: 1, Date: "2026-06-27", Activity: "Seed Sowing", Crop: "Rice"},
	}

	progress, err := svc.Progress(1)
	require.NoError(t, err)
	require.Len(t, progress, 2)

	// 20 days since sowing.
	assert.Equal(t, "Tomato", progress[0].Crop)
	assert.Equal(t, 20, progress[0].DaysSinceSowing)
	assert.Equal(t, "Seedling", progress[0].Stage)
	assert.Equal(t, 22, progress[0].PercentComplete)

	// 35 days since sowing.
	assert.Equal(t, "Rice", progress[1].Crop)
	assert.Equal(t, 35, progress[1].DaysSinceSowing)
	assert.Equal(t, "Vegetative", progress[1].Stage)
}

func TestProgressUsesLatestSowingPerCrop(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, fs := newTestFarmService(now)

	fs.entries = []store.DiaryEntry{
		{UserID: 1, Date: "2026-07-30", Activity: "Seed Sowing", Crop: "Rice"},
		{UserID: 1, Date: "2026-04-01", Activity: "Seed Sowing", Crop: "Rice"},
	}

	progress, err := svc.Progress(1)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, 2, progress[0].DaysSinceSowing)
	assert.Equal(t, "Sown", progress[0].Stage)
}

func TestProgressCapsAtHarvest(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc, fs := newTestFarmService(now)

	fs.entries = []store.DiaryEntry{
		{UserID: 1, Date: "2026-01-01", Activity: "വിത്ത് വിതക്കൽ", Crop: "നെല്ല്"},
	}

	progress, err := svc.Progress(1)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, "Ready for harvest", progress[0].Stage)
	assert.Equal(t, 100, progress[0].PercentComplete)
}

func TestProgressEmptyDiary(t *testing.T) {
	svc, _ := newTestFarmService(time.Now())

	progress, err := svc.Progress(1)
	require.NoError(t, err)
	assert.Empty(t, progress)
}
