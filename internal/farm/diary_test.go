package farm

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/krishisakhi/krishisakhi/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDiaryStore keeps entries and reminders in slices, newest entry first
// to match the SQLite ordering.
type fakeDiaryStore struct {
	entries   []store.DiaryEntry
	reminders []store.Reminder
}

func (f *fakeDiaryStore) CreateDiaryEntry(entry *store.DiaryEntry) error {
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	f.entries = append([]store.DiaryEntry{*entry}, f.entries...)
	return nil
}

func (f *fakeDiaryStore) GetDiaryEntries(userID int64) ([]store.DiaryEntry, error) {
	var out []store.DiaryEntry
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeDiaryStore) CreateReminder(r *store.Reminder) error {
	f.reminders = append(f.reminders, *r)
	return nil
}

func (f *fakeDiaryStore) GetReminders(userID int64) ([]store.Reminder, error) {
	var out []store.Reminder
	for _, r := range f.reminders {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeDiaryStore) CompleteReminder(reminderID string, userID int64) error {
	for i, r := range f.reminders {
		if r.ID == reminderID && r.UserID == userID {
			f.reminders[i].Completed = true
			return nil
		}
	}
	return assert.AnError
}

func newTestFarmService(now time.Time) (*Service, *fakeDiaryStore) {
	fs := &fakeDiaryStore{}
	svc := NewService(fs)
	svc.now = func() time.Time { return now }
	return svc, fs
}

func TestAddEntryCreatesSowingReminders(t *testing.T) {
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	svc, _ := newTestFarmService(now)

	entry := store.DiaryEntry{UserID: 1, Date: "2026-06-01", Activity: "Seed Sowing", Crop: "Rice"}
	reminders, err := svc.AddEntry(&entry)
	require.NoError(t, err)
	require.Len(t, reminders, 2)

	assert.Equal(t, "Check if Rice seeds have germinated", reminders[0].Message)
	assert.Equal(t, now.Add(72*time.Hour), reminders[0].ScheduledFor)
	assert.Equal(t, entry.ID+"_72", reminders[0].ID)

	assert.Equal(t, "Time to fertilize Rice plants", reminders[1].Message)
	assert.Equal(t, now.Add(168*time.Hour), reminders[1].ScheduledFor)
	assert.Equal(t, entry.ID+"_168", reminders[1].ID)
}

func TestAddEntryMalayalamActivity(t *testing.T) {
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	svc, _ := newTestFarmService(now)

	entry := store.DiaryEntry{UserID: 1, Date: "2026-06-01", Activity: "വള നൽകൽ", Crop: "നെല്ല്"}
	reminders, err := svc.AddEntry(&entry)
	require.NoError(t, err)
	require.Len(t, reminders, 1)

	assert.Equal(t, "നെല്ല് വിളയ്ക്ക് അടുത്ത വള പ്രയോഗം", reminders[0].Message)
	assert.Equal(t, now.Add(336*time.Hour), reminders[0].ScheduledFor)
}

func TestAddEntryUnknownActivityHasNoReminders(t *testing.T) {
	svc, fs := newTestFarmService(time.Now())

	entry := store.DiaryEntry{UserID: 1, Date: "2026-06-01", Activity: "Harvesting", Crop: "Rice"}
	reminders, err := svc.AddEntry(&entry)
	require.NoError(t, err)
	assert.Empty(t, reminders)
	assert.Len(t, fs.entries, 1)
}

func TestRemindersDueFilter(t *testing.T) {
	now := time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC)
	svc, fs := newTestFarmService(now)

	fs.reminders = []store.Reminder{
		{ID: "past", UserID: 1, ScheduledFor: now.Add(-time.Hour)},
		{ID: "exact", UserID: 1, ScheduledFor: now},
		{ID: "future", UserID: 1, ScheduledFor: now.Add(time.Hour)},
		{ID: "done", UserID: 1, ScheduledFor: now.Add(-2 * time.Hour), Completed: true},
		{ID: "other-user", UserID: 2, ScheduledFor: now.Add(-time.Hour)},
	}

	due, err := svc.Reminders(1, true)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "past", due[0].ID)
	assert.Equal(t, "exact", due[1].ID)

	all, err := svc.Reminders(1, false)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestCompleteReminder(t *testing.T) {
	now := time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC)
	svc, fs := newTestFarmService(now)

	fs.reminders = []store.Reminder{{ID: "r1", UserID: 1, ScheduledFor: now.Add(-time.Hour)}}

	require.NoError(t, svc.CompleteReminder("r1", 1))

	due, err := svc.Reminders(1, true)
	require.NoError(t, err)
	assert.Empty(t, due)

	// Completed reminders stay in the full list.
	all, err := svc.Reminders(1, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Completed)
}
