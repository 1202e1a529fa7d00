package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"finance_tracker_bot/internal/domain/obligation"
	"finance_tracker_bot/internal/domain/reminder"
)

// Callback button uniques shared between the presenter and the action
// handlers.
const (
	btnUniqueMarkPaid = "remind_pay"
	btnUniqueSnooze   = "remind_snooze"
)

// ReminderPresenter renders fired reminder events as Telegram messages with
// "Mark Paid" and "Snooze" inline buttons. It owns no business logic; button
// presses come back through the reminder action handlers.
type ReminderPresenter struct {
	bot    *telebot.Bot
	chatID int64
	loc    *time.Location
	logger *logrus.Entry
}

func NewReminderPresenter(b *telebot.Bot, chatID int64, loc *time.Location, logger *logrus.Entry) *ReminderPresenter {
	return &ReminderPresenter{bot: b, chatID: chatID, loc: loc, logger: logger}
}

func (p *ReminderPresenter) PresentReminder(_ context.Context, ob *obligation.Obligation, ev reminder.Event) error {
	due := obligation.ResolveDueDate(ev.Month, ob.DueRule, p.loc)
	amount := FormatAmount(ob.AmountMinor)

	var text string
	switch ev.Kind {
	case reminder.KindLead:
		text = fmt.Sprintf("📅 Upcoming: %s (%s) is due on %s.", ob.Title, amount, due.Format("Mon, 2 Jan"))
	case reminder.KindDue:
		text = fmt.Sprintf("💰 Due today: %s — %s.", ob.Title, amount)
	case reminder.KindOverdue:
		text = fmt.Sprintf("⚠️ Overdue: %s — %s was due on %s.", ob.Title, amount, due.Format("Mon, 2 Jan"))
	case reminder.KindSnoozed:
		text = fmt.Sprintf("⏰ Snoozed reminder: %s — %s is still unpaid.", ob.Title, amount)
	default:
		return fmt.Errorf("unknown reminder kind: %s", ev.Kind)
	}

	idArg := strconv.FormatInt(ob.ID, 10)
	monthArg := ev.Month.String()

	markup := &telebot.ReplyMarkup{}
	btnPaid := markup.Data("✅ Mark Paid", btnUniqueMarkPaid, idArg, monthArg)
	btnSnooze1 := markup.Data("Snooze 1d", btnUniqueSnooze, idArg, monthArg, "1")
	btnSnooze3 := markup.Data("Snooze 3d", btnUniqueSnooze, idArg, monthArg, "3")
	markup.Inline(markup.Row(btnPaid), markup.Row(btnSnooze1, btnSnooze3))

	_, err := p.bot.Send(&telebot.User{ID: p.chatID}, text, &telebot.SendOptions{ReplyMarkup: markup})
	if err != nil {
		return fmt.Errorf("failed to send reminder message: %w", err)
	}
	p.logger.WithFields(logrus.Fields{
		"obligation_id": ob.ID,
		"kind":          string(ev.Kind),
		"month":         monthArg,
	}).Info("Reminder presented")
	return nil
}

// FormatAmount renders integer minor currency units with two decimal places.
func FormatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
