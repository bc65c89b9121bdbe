package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbb-digital/portal/pkg/logger"
	"github.com/tbb-digital/portal/pkg/models"
)

type fakeStore struct {
	due    []models.MeetingReminder
	dueErr error
	marked []int
}

func (f *fakeStore) DueReminders(context.Context, string) ([]models.MeetingReminder, error) {
	return f.due, f.dueErr
}

func (f *fakeStore) MarkReminderSent(_ context.Context, meetingID int) error {
	f.marked = append(f.marked, meetingID)
	return nil
}

type fakeNotifier struct {
	reminders []models.MeetingReminder
	err       error
}

func (f *fakeNotifier) MeetingInvitation(context.Context, string, string, models.Meeting) error {
	return nil
}

func (f *fakeNotifier) PortalInvitation(context.Context, string, string, string) error {
	return nil
}

func (f *fakeNotifier) MeetingReminder(_ context.Context, _, _ string, reminder models.MeetingReminder) error {
	f.reminders = append(f.reminders, reminder)
	return f.err
}

func TestSweep_SendsAndMarks(t *testing.T) {
	store := &fakeStore{due: []models.MeetingReminder{
		{MeetingID: 1, Title: "Kickoff", StartTime: time.Now().Add(30 * time.Minute), ClientEmail: "a@example.com"},
		{MeetingID: 2, Title: "Review", StartTime: time.Now().Add(45 * time.Minute), ClientEmail: "b@example.com"},
	}}
	notify := &fakeNotifier{}
	w := New(logger.New(), store, notify)

	require.NoError(t, w.sweep(context.Background()))
	assert.Len(t, notify.reminders, 2)
	assert.Equal(t, []int{1, 2}, store.marked)
}

func TestSweep_FailedSendLeavesReminderPending(t *testing.T) {
	store := &fakeStore{due: []models.MeetingReminder{
		{MeetingID: 1, Title: "Kickoff", ClientEmail: "a@example.com"},
	}}
	notify := &fakeNotifier{err: errors.New("smtp down")}
	w := New(logger.New(), store, notify)

	require.NoError(t, w.sweep(context.Background()))
	assert.Empty(t, store.marked)
}

func TestSweep_StoreErrorPropagates(t *testing.T) {
	store := &fakeStore{dueErr: errors.New("connection refused")}
	w := New(logger.New(), store, &fakeNotifier{})

	require.Error(t, w.sweep(context.Background()))
}
