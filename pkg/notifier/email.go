// Package notifier delivers portal notifications. Every send is best-effort:
// callers log failures and move on, a failed notification never fails the
// operation that triggered it.
package notifier

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"

	"github.com/tbb-digital/portal/pkg/models"
)

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Email struct {
	log    *logrus.Entry
	dialer *gomail.Dialer
	from   string
}

func NewEmail(log *logrus.Logger, config EmailConfig) *Email {
	return &Email{
		log:    log.WithField("component", "notifier"),
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		from:   config.From,
	}
}

func (e *Email) MeetingInvitation(_ context.Context, email, name string, meeting models.Meeting) error {
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your meeting has been scheduled.</p>"+
			"<p><strong>%s</strong><br>%s &ndash; %s</p>",
		name, meeting.Title,
		meeting.StartTime.Format("Mon Jan 2 2006 3:04 PM"),
		meeting.EndTime.Format("3:04 PM"),
	)
	if meeting.GoogleMeetLink != "" {
		body += fmt.Sprintf(`<p><a href="%s">Join with Google Meet</a></p>`, meeting.GoogleMeetLink)
	}
	return e.send(email, "Meeting confirmed: "+meeting.Title, body)
}

func (e *Email) MeetingReminder(_ context.Context, email, name string, reminder models.MeetingReminder) error {
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Reminder: <strong>%s</strong> starts at %s.</p>",
		name, reminder.Title, reminder.StartTime.Format("3:04 PM"),
	)
	if reminder.MeetLink != "" {
		body += fmt.Sprintf(`<p><a href="%s">Join with Google Meet</a></p>`, reminder.MeetLink)
	}
	return e.send(email, "Upcoming meeting: "+reminder.Title, body)
}

func (e *Email) PortalInvitation(_ context.Context, email, name, tempPassword string) error {
	body := fmt.Sprintf("<p>Hello %s,</p><p>You have been invited to the TBB client portal.</p>", name)
	if tempPassword != "" {
		body += fmt.Sprintf("<p>Your temporary password is <code>%s</code>. "+
			"You will be asked to change it on first login.</p>", tempPassword)
	}
	return e.send(email, "Welcome to the TBB client portal", body)
}

func (e *Email) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("err sending mail to %s: %w", to, err)
	}
	e.log.Debugf("sent %q to %s", subject, to)
	return nil
}
