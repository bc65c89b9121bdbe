package notifier

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/tbb-digital/portal/pkg/models"
)

// Notifier is the full notification surface; implementations may drop
// messages they have no channel for.
type Notifier interface {
	MeetingInvitation(ctx context.Context, email, name string, meeting models.Meeting) error
	MeetingReminder(ctx context.Context, email, name string, reminder models.MeetingReminder) error
	PortalInvitation(ctx context.Context, email, name, tempPassword string) error
}

// Fanout delivers through every configured channel. The first error is
// returned after all channels were attempted.
type Fanout struct {
	channels []Notifier
}

func NewFanout(channels ...Notifier) *Fanout {
	return &Fanout{channels: channels}
}

func (f *Fanout) MeetingInvitation(ctx context.Context, email, name string, meeting models.Meeting) error {
	return f.each(func(n Notifier) error { return n.MeetingInvitation(ctx, email, name, meeting) })
}

func (f *Fanout) MeetingReminder(ctx context.Context, email, name string, reminder models.MeetingReminder) error {
	return f.each(func(n Notifier) error { return n.MeetingReminder(ctx, email, name, reminder) })
}

func (f *Fanout) PortalInvitation(ctx context.Context, email, name, tempPassword string) error {
	return f.each(func(n Notifier) error { return n.PortalInvitation(ctx, email, name, tempPassword) })
}

func (f *Fanout) each(send func(Notifier) error) error {
	var first error
	for _, n := range f.channels {
		if err := send(n); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Dummy logs instead of delivering; used in development and tests.
type Dummy struct {
	log *logrus.Entry
}

func NewDummy(log *logrus.Logger) *Dummy {
	return &Dummy{log: log.WithField("component", "notifier")}
}

func (d *Dummy) MeetingInvitation(_ context.Context, email, _ string, meeting models.Meeting) error {
	d.log.Infof("meeting invitation for %s: %s", email, meeting.Title)
	return nil
}

func (d *Dummy) MeetingReminder(_ context.Context, email, _ string, reminder models.MeetingReminder) error {
	d.log.Infof("meeting reminder for %s: %s", email, reminder.Title)
	return nil
}

func (d *Dummy) PortalInvitation(_ context.Context, email, _, _ string) error {
	d.log.Infof("portal invitation for %s", email)
	return nil
}
