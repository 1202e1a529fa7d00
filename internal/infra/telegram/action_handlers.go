package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"finance_tracker_bot/internal/app"
	"finance_tracker_bot/internal/domain/obligation"
)

// actionTimeout bounds a reminder action: it runs to completion within this
// window or fails whole and is retried from the next reminder.
const actionTimeout = 30 * time.Second

// RegisterReminderActionHandlers wires the inline-button callbacks attached
// to reminder messages into the action service.
func RegisterReminderActionHandlers(b *telebot.Bot, actions *app.ActionService, baseLogger *logrus.Entry) {
	log := baseLogger.WithField("handler_group", "reminder_actions")

	b.Handle(&telebot.Btn{Unique: btnUniqueMarkPaid}, func(c telebot.Context) error {
		obligationID, m, _, err := parseActionData(c.Data(), 2)
		if err != nil {
			log.WithError(err).Warn("Malformed mark-paid callback data")
			return c.Respond(&telebot.CallbackResponse{Text: "Could not process this action."})
		}

		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if _, err := actions.OnMarkPaid(ctx, obligationID, m); err != nil {
			log.WithError(err).WithField("obligation_id", obligationID).Error("Mark-paid action failed")
			return c.Respond(&telebot.CallbackResponse{Text: "Something went wrong, please try again."})
		}
		log.WithField("obligation_id", obligationID).WithField("month", m.String()).Info("Marked paid from reminder")
		return c.Respond(&telebot.CallbackResponse{Text: "Marked as paid ✅"})
	})

	b.Handle(&telebot.Btn{Unique: btnUniqueSnooze}, func(c telebot.Context) error {
		obligationID, m, days, err := parseActionData(c.Data(), 3)
		if err != nil {
			log.WithError(err).Warn("Malformed snooze callback data")
			return c.Respond(&telebot.CallbackResponse{Text: "Could not process this action."})
		}

		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := actions.OnSnooze(ctx, obligationID, m, days); err != nil {
			log.WithError(err).WithField("obligation_id", obligationID).Error("Snooze action failed")
			return c.Respond(&telebot.CallbackResponse{Text: "Something went wrong, please try again."})
		}
		log.WithField("obligation_id", obligationID).WithField("days", days).Info("Snoozed from reminder")
		return c.Respond(&telebot.CallbackResponse{Text: fmt.Sprintf("Snoozed for %dd ⏰", days)})
	})
}

// parseActionData unpacks "obligationID|month[|days]" callback payloads.
// days is returned as 0 when wantParts is 2.
func parseActionData(data string, wantParts int) (int64, obligation.Month, int, error) {
	parts := strings.Split(data, "|")
	if len(parts) != wantParts {
		return 0, obligation.Month{}, 0, fmt.Errorf("expected %d callback data parts, got %d", wantParts, len(parts))
	}
	obligationID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, obligation.Month{}, 0, fmt.Errorf("invalid obligation ID %q: %w", parts[0], err)
	}
	m, err := obligation.ParseMonth(parts[1])
	if err != nil {
		return 0, obligation.Month{}, 0, err
	}
	days := 0
	if wantParts == 3 {
		days, err = strconv.Atoi(parts[2])
		if err != nil || days < 1 {
			return 0, obligation.Month{}, 0, fmt.Errorf("invalid snooze days %q", parts[2])
		}
	}
	return obligationID, m, days, nil
}
