// Package farm implements the farm diary: activity entries, the automatic
// reminders derived from them, and the virtual farm progress view.
package farm

import (
	"fmt"
	"time"

	"github.com/krishisakhi/krishisakhi/internal/store"
)

// DiaryStore is the slice of the store the diary service needs.
type DiaryStore interface {
	CreateDiaryEntry(entry *store.DiaryEntry) error
	GetDiaryEntries(userID int64) ([]store.DiaryEntry, error)
	CreateReminder(r *store.Reminder) error
	GetReminders(userID int64) ([]store.Reminder, error)
	CompleteReminder(reminderID string, userID int64) error
}

// reminderTemplate schedules one follow-up a fixed number of hours after an
// entry. The message format takes the crop name.
type reminderTemplate struct {
	Hours  int
	Format string
}

// Reminder templates keyed by activity, both languages. scheduledFor is
// computed once at entry creation and never recomputed.
var remindersByActivity = map[string][]reminderTemplate{
	"വിത്ത് വിതക്കൽ": {
		{72, "%s വിത്ത് മുളച്ചിട്ടുണ്ടോ എന്ന് പരിശോധിക്കുക"},
		{168, "%s ചെടികൾക്ക് വള നൽകാനുള്ള സമയം"},
	},
	"Seed Sowing": {
		{72, "Check if %s seeds have germinated"},
		{168, "Time to fertilize %s plants"},
	},
	"വള നൽകൽ": {
		{336, "%s വിളയ്ക്ക് അടുത്ത വള പ്രയോഗം"},
	},
	"Fertilizer Application": {
		{336, "Next fertilizer application for %s"},
	},
	"കളയെടുക്കൽ": {
		{240, "%s വിളയിൽ വീണ്ടും കളയുണ്ടോ എന്ന് പരിശോധിക്കുക"},
	},
	"Weeding": {
		{240, "Check for weeds in %s field again"},
	},
}

// Service is the diary application service.
type Service struct {
	store DiaryStore
	now   func() time.Time
}

func NewService(s DiaryStore) *Service {
	return &Service{store: s, now: time.Now}
}

// AddEntry stores the entry and creates its automatic reminders. Unknown
// activities simply produce no reminders.
func (s *Service) AddEntry(entry *store.DiaryEntry) ([]store.Reminder, error) {
	if err := s.store.CreateDiaryEntry(entry); err != nil {
		return nil, fmt.Errorf("failed to store diary entry: %w", err)
	}

	now := s.now()
	var created []store.Reminder
	for _, tmpl := range remindersByActivity[entry.Activity] {
		r := store.Reminder{
			ID:           fmt.Sprintf("%s_%d", entry.ID, tmpl.Hours),
			EntryID:      entry.ID,
			UserID:       entry.UserID,
			Message:      fmt.Sprintf(tmpl.Format, entry.Crop),
			ScheduledFor: now.Add(time.Duration(tmpl.Hours) * time.Hour),
		}
		if err := s.store.CreateReminder(&r); err != nil {
			return created, fmt.Errorf("failed to store reminder: %w", err)
		}
		created = append(created, r)
	}
	return created, nil
}

// Entries lists the user's diary, newest first.
func (s *Service) Entries(userID int64) ([]store.DiaryEntry, error) {
	return s.store.GetDiaryEntries(userID)
}

// Reminders lists all reminders; when dueOnly is set, only uncompleted
// reminders whose time has arrived.
func (s *Service) Reminders(userID int64, dueOnly bool) ([]store.Reminder, error) {
	all, err := s.store.GetReminders(userID)
	if err != nil {
		return nil, err
	}
	if !dueOnly {
		return all, nil
	}
	now := s.now()
	var due []store.Reminder
	for _, r := range all {
		if !r.Completed && !r.ScheduledFor.After(now) {
			due = append(due, r)
		}
	}
	return due, nil
}

// CompleteReminder marks a reminder done. Reminders are never deleted.
func (s *Service) CompleteReminder(reminderID string, userID int64) error {
	return s.store.CompleteReminder(reminderID, userID)
}
