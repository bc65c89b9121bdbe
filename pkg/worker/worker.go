// Package worker sweeps for meetings that start soon and sends one reminder
// per meeting. It is the only background loop in the service.
package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tbb-digital/portal/pkg/models"
	"github.com/tbb-digital/portal/pkg/notifier"
)

const (
	sweepInterval  = time.Minute
	reminderWindow = "1 hour"
)

type Store interface {
	DueReminders(ctx context.Context, window string) ([]models.MeetingReminder, error)
	MarkReminderSent(ctx context.Context, meetingID int) error
}

type Worker struct {
	log      *logrus.Entry
	store    Store
	notifier notifier.Notifier
}

func New(log *logrus.Logger, store Store, notifier notifier.Notifier) *Worker {
	return &Worker{
		log:      log.WithField("component", "worker"),
		store:    store,
		notifier: notifier,
	}
}

// Run sweeps until the context is cancelled. A failed sweep is logged and
// retried on the next tick rather than stopping the loop.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		if err := w.sweep(ctx); err != nil {
			w.log.Warnf("reminder sweep failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) sweep(ctx context.Context) error {
	due, err := w.store.DueReminders(ctx, reminderWindow)
	if err != nil {
		return err
	}
	for _, reminder := range due {
		if err = w.notifier.MeetingReminder(ctx, reminder.ClientEmail, reminder.ClientName, reminder); err != nil {
			w.log.Warnf("err reminding meeting %d: %v", reminder.MeetingID, err)
			continue
		}
		// Flip the flag only after a successful send so a dropped reminder
		// gets another chance on the next sweep.
		if err = w.store.MarkReminderSent(ctx, reminder.MeetingID); err != nil {
			w.log.Warnf("err marking reminder sent for meeting %d: %v", reminder.MeetingID, err)
		}
	}
	return nil
}
