package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"

	"github.com/tbb-digital/portal/pkg/models"
)

// Telegram mirrors portal notifications into a staff chat so the team sees
// bookings without watching their inbox.
type Telegram struct {
	log  *logrus.Entry
	bot  *tele.Bot
	chat *tele.Chat
}

func NewTelegram(log *logrus.Logger, token string, chatID int64) (*Telegram, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("err creating telegram bot: %w", err)
	}
	return &Telegram{
		log:  log.WithField("component", "telegram"),
		bot:  bot,
		chat: &tele.Chat{ID: chatID},
	}, nil
}

func (t *Telegram) MeetingInvitation(_ context.Context, email, name string, meeting models.Meeting) error {
	msg := fmt.Sprintf("New booking: %s with %s (%s) at %s",
		meeting.Title, name, email, meeting.StartTime.Format("Mon Jan 2 15:04"))
	return t.send(msg)
}

func (t *Telegram) MeetingReminder(_ context.Context, _, name string, reminder models.MeetingReminder) error {
	msg := fmt.Sprintf("Upcoming: %s with %s at %s",
		reminder.Title, name, reminder.StartTime.Format("15:04"))
	return t.send(msg)
}

func (t *Telegram) PortalInvitation(_ context.Context, email, name, _ string) error {
	return t.send(fmt.Sprintf("Client invited to the portal: %s (%s)", name, email))
}

func (t *Telegram) send(msg string) error {
	if _, err := t.bot.Send(t.chat, msg); err != nil {
		return fmt.Errorf("err sending telegram message: %w", err)
	}
	return nil
}
