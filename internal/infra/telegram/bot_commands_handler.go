package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"finance_tracker_bot/internal/app"
	"finance_tracker_bot/internal/domain/obligation"
	"finance_tracker_bot/internal/infra/config"
)

// Defaults applied to obligations created over chat; the account/category
// references live in the external ledger stores and can be re-pointed there.
const (
	defaultAccount  = "Main"
	defaultCategory = "Bills & Utilities"
	defaultLeadDays = 3
)

func RegisterBotCommands(
	b *telebot.Bot,
	cfg *config.AppConfig,
	admin *app.AdminService,
	posting *app.PostingService,
	actions *app.ActionService,
	reminders *app.ReminderService,
	ticks *app.TickService,
	clock app.Clock,
	baseLogger *logrus.Entry,
) {
	log := baseLogger.WithField("handler_group", "bot_commands")

	authorized := func(c telebot.Context) bool {
		if c.Sender().ID == cfg.UserChatID {
			return true
		}
		log.WithField("sender_id", c.Sender().ID).Warn("Command from unknown chat ignored")
		return false
	}

	b.Handle("/start", func(c telebot.Context) error {
		if !authorized(c) {
			return c.Send("This bot tracks someone else's bills. Sorry!")
		}
		return c.Send(fmt.Sprintf("Hi %s! I track your recurring bills, post them to the ledger when they fall due, and remind you before. Use /help for commands.", c.Sender().FirstName))
	})

	b.Handle("/help", func(c telebot.Context) error {
		if !authorized(c) {
			return nil
		}
		var help strings.Builder
		help.WriteString("Available commands:\n\n")
		help.WriteString("`/add <amount> <day|last> <title>`\n - Add a recurring obligation (e.g. `/add 1500.00 5 Rent`).\n\n")
		help.WriteString("`/obligations [all]`\n - List obligations (active by default).\n\n")
		help.WriteString("`/due`\n - Show this month's due dates and statuses.\n\n")
		help.WriteString("`/paid <id>`\n - Record this month's payment now.\n\n")
		help.WriteString("`/undo <id> <entryId>`\n - Delete a just-posted entry and repair the cache.\n\n")
		help.WriteString("`/skip <id> [YYYY-MM]`\n - Skip auto-posting and reminders for one month.\n\n")
		help.WriteString("`/unskip <id> [YYYY-MM]`\n - Remove a skip.\n\n")
		help.WriteString("`/snooze <id> <days>`\n - Defer this month's reminders.\n\n")
		help.WriteString("`/pause <id>` / `/resume <id>`\n - Pause or resume an obligation.\n\n")
		help.WriteString("`/sync <id>`\n - Recompute the last-posted cache from the ledger.\n\n")
		help.WriteString("`/check`\n - Run the auto-post and reminder pass right now.")
		return c.Send(help.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/add", func(c telebot.Context) error {
		if !authorized(c) {
			return nil
		}
		args := strings.Fields(c.Message().Payload)
		if len(args) < 3 {
			return c.Send("Usage: /add <amount> <day|last> <title>")
		}

		amount, err := decimal.NewFromString(args[0])
		if err != nil || !amount.IsPositive() {
			return c.Send(fmt.Sprintf("Invalid amount: %q", args[0]))
		}
		amountMinor := amount.Shift(2).Round(0).IntPart()

		rule := obligation.DueLastDay
		if args[1] != "last" {
			day, err := strconv.Atoi(args[1])
			if err != nil {
				return c.Send(fmt.Sprintf("Invalid due day: %q (use 1-31 or 'last')", args[1]))
			}
			rule = obligation.DueRule(day)
		}
		title := strings.Join(args[2:], " ")

		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		ob, err := admin.CreateObligation(ctx, title, amountMinor, defaultAccount, defaultCategory, rule, defaultLeadDays, true)
		if err != nil {
			log.WithError(err).Error("Failed to create obligation")
			return c.Send(fmt.Sprintf("Could not add obligation: %v", err))
		}
		if err := reminders.ScheduleReminders(ctx, ob, obligation.MonthOf(clock.Now())); err != nil {
			log.WithError(err).WithField("obligation_id", ob.ID).Warn("Failed to arm reminders for new obligation")
		}
		return c.Send(fmt.Sprintf("Added #%d %s — %s, due %s, auto-post on.", ob.ID, ob.Title, FormatAmount(ob.AmountMinor), describeRule(ob.DueRule)))
	})

	b.Handle("/obligations", func(c telebot.Context) error {
		if !authorized(c) {
			return nil
		}
		includeInactive := strings.TrimSpace(c.Message().Payload) == "all"

		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		obs, err := admin.List(ctx, includeInactive)
		if err != nil {
			log.WithError(err).Error("Failed to list obligations")
			return c.Send("Could not list obligations, please try again.")
		}
		if len(obs) == 0 {
			return c.Send("No obligations yet. Add one with /add.")
		}

		var sb strings.Builder
		for _, ob := range obs {
			sb.WriteString(fmt.Sprintf("#%d %s — %s, due %s", ob.ID, ob.Title, FormatAmount(ob.AmountMinor), describeRule(ob.DueRule)))
			if ob.State == obligation.StatePaused {
				sb.WriteString(" (paused)")
			}
			if ob.LastPostedMonth != nil {
				sb.WriteString(fmt.Sprintf(", last posted %s", ob.LastPostedMonth))
			}
			sb.WriteString("\n")
		}
		return c.Send(sb.String())
	})

	b.Handle("/due", func(c telebot.Context) error {
		if !authorized(c) {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		overview, err := admin.Overview(ctx)
		if err != nil {
			log.WithError(err).Error("Failed to build due overview")
			return c.Send("Could not build the overview, please try again.")
		}
		if len(overview) == 0 {
			return c.Send("Nothing is due this month.")
		}

		var sb strings.Builder
		for _, line := range overview {
			sb.WriteString(fmt.Sprintf("%s #%d %s — %s, due %s [%s]\n",
				statusIcon(line.Status), line.Obligation.ID, line.Obligation.Title,
				FormatAmount(line.Obligation.AmountMinor), line.DueDate.Format("2 Jan"), line.Status))
		}
		return c.Send(sb.String())
	})

	b.Handle("/paid", func(c telebot.Context) error {
		if !authorized(c) {
			return nil
		}
		id, err := parseIDArg(c.Message().Payload)
		if err != nil {
			return c.Send("Usage: /paid <id>")
		}

		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		entry, err := actions.OnMarkPaid(ctx, id, obligation.MonthOf(clock.Now()))
		if err != nil {
			log.WithError(err).WithField("obligation_id", id).Error("Manual mark-paid failed")
			return c.Send("Could not record the payment, please try again.")
		}
		if entry == nil {
			return c.Send("Already recorded for this month — nothing posted.")
		}
		return c.Send(fmt.Sprintf("Recorded %s. Entry `%s` — undo with /undo %d %s",
			FormatAmount(entry.AmountMinor), entry.ID, id, entry.ID),
			&telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/undo", func(c telebot.Context) error {
		if !authorized(c) {
			return nil
		}
		args := strings.Fields(c.Message().Payload)
		if len(args) != 2 {
			return c.Send("Usage: /undo <id> <entryId>")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send(fmt.Sprintf("Invalid obligation ID: %q", args[0]))
		}

		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := posting.Undo(ctx, args[1], id); err != nil {
			if err == app.ErrStaleEntryReference {
				return c.Send("That entry is no longer the latest one for this obligation — nothing deleted.")
			}
			log.WithError(err).WithField("obligation_id", id).Error("Undo failed")
			return c.Send("Could not undo, please try again.")
		}
		return c.Send("Entry deleted and cache re-synced.")
	})

	b.Handle("/skip", func(c telebot.Context) error {
		if !authorized(c) {
			return nil
		}
		id, m, err := parseIDMonthArgs(c.Message().Payload, clock)
		if err != nil {
			return c.Send("Usage: /skip <id> [YYYY-MM]")
		}

		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := actions.SetSkip(ctx, id, m); err != nil {
			log.WithError(err).WithField("obligation_id", id).Error("Skip failed")
			return c.Send("Could not set the skip, please try again.")
		}
		return c.Send(fmt.Sprintf("Skipping #%d for %s — no auto-post, no reminders. /paid still works.", id, m))
	})

	b.Handle("/unskip", func(c telebot.Context) error {
		if !authorized(c) {
			return nil
		}
		id, m, err := parseIDMonthArgs(c.Message().Payload, clock)
		if err != nil {
			return c.Send("Usage: /unskip <id> [YYYY-MM]")
		}

		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := actions.ClearSkip(ctx, id, m); err != nil {
			log.WithError(err).WithField("obligation_id", id).Error("Unskip failed")
			return c.Send("Could not remove the skip, please try again.")
		}
		return c.Send(fmt.Sprintf("Skip removed for #%d in %s.", id, m))
	})

	b.Handle("/snooze", func(c telebot.Context) error {
		if !authorized(c) {
			return nil
		}
		args := strings.Fields(c.Message().Payload)
		if len(args) != 2 {
			return c.Send("Usage: /snooze <id> <days>")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send(fmt.Sprintf("Invalid obligation ID: %q", args[0]))
		}
		days, err := strconv.Atoi(args[1])
		if err != nil || days < 1 {
			return c.Send(fmt.Sprintf("Invalid number of days: %q", args[1]))
		}

		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := actions.OnSnooze(ctx, id, obligation.MonthOf(clock.Now()), days); err != nil {
			log.WithError(err).WithField("obligation_id", id).Error("Snooze failed")
			return c.Send("Could not snooze, please try again.")
		}
		return c.Send(fmt.Sprintf("Snoozed #%d for %d day(s).", id, days))
	})

	b.Handle("/pause", func(c telebot.Context) error {
		if !authorized(c) {
			return nil
		}
		id, err := parseIDArg(c.Message().Payload)
		if err != nil {
			return c.Send("Usage: /pause <id>")
		}

		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		ob, err := admin.Pause(ctx, id)
		if err != nil {
			if err == app.ErrObligationAlreadyPaused {
				return c.Send(fmt.Sprintf("#%d %s is already paused.", ob.ID, ob.Title))
			}
			log.WithError(err).WithField("obligation_id", id).Error("Pause failed")
			return c.Send("Could not pause, please try again.")
		}
		reminders.CancelReminders(id)
		return c.Send(fmt.Sprintf("Paused #%d %s — no auto-posting or reminders until /resume.", ob.ID, ob.Title))
	})

	b.Handle("/resume", func(c telebot.Context) error {
		if !authorized(c) {
			return nil
		}
		id, err := parseIDArg(c.Message().Payload)
		if err != nil {
			return c.Send("Usage: /resume <id>")
		}

		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		ob, err := admin.Resume(ctx, id)
		if err != nil {
			if err == app.ErrObligationAlreadyActive {
				return c.Send(fmt.Sprintf("#%d %s is already active.", ob.ID, ob.Title))
			}
			log.WithError(err).WithField("obligation_id", id).Error("Resume failed")
			return c.Send("Could not resume, please try again.")
		}
		if err := reminders.ScheduleReminders(ctx, ob, obligation.MonthOf(clock.Now())); err != nil {
			log.WithError(err).WithField("obligation_id", id).Warn("Failed to re-arm reminders after resume")
		}
		return c.Send(fmt.Sprintf("Resumed #%d %s.", ob.ID, ob.Title))
	})

	b.Handle("/sync", func(c telebot.Context) error {
		if !authorized(c) {
			return nil
		}
		id, err := parseIDArg(c.Message().Payload)
		if err != nil {
			return c.Send("Usage: /sync <id>")
		}

		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := posting.Sync(ctx, id); err != nil {
			log.WithError(err).WithField("obligation_id", id).Error("Sync failed")
			return c.Send("Could not sync, please try again.")
		}
		return c.Send(fmt.Sprintf("Cache for #%d recomputed from the ledger.", id))
	})

	b.Handle("/check", func(c telebot.Context) error {
		if !authorized(c) {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		res, err := ticks.RunTick(ctx)
		if err != nil {
			log.WithError(err).Error("Manual tick reported failures")
			return c.Send(fmt.Sprintf("Check finished with failures: %d posted, %d already satisfied, %d failed. Will retry on the next tick.",
				res.Posted, res.Reconciled, res.Failed))
		}
		return c.Send(fmt.Sprintf("Check done: %d posted, %d already satisfied, %d skipped.",
			res.Posted, res.Reconciled, res.Skipped))
	})
}

func parseIDArg(payload string) (int64, error) {
	args := strings.Fields(payload)
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one argument")
	}
	return strconv.ParseInt(args[0], 10, 64)
}

// parseIDMonthArgs parses "<id> [YYYY-MM]", defaulting to the current month.
func parseIDMonthArgs(payload string, clock app.Clock) (int64, obligation.Month, error) {
	args := strings.Fields(payload)
	if len(args) < 1 || len(args) > 2 {
		return 0, obligation.Month{}, fmt.Errorf("expected one or two arguments")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, obligation.Month{}, err
	}
	m := obligation.MonthOf(clock.Now())
	if len(args) == 2 {
		if m, err = obligation.ParseMonth(args[1]); err != nil {
			return 0, obligation.Month{}, err
		}
	}
	return id, m, nil
}

func describeRule(rule obligation.DueRule) string {
	if rule == obligation.DueLastDay {
		return "last day of month"
	}
	return fmt.Sprintf("day %d", int(rule))
}

func statusIcon(s obligation.Status) string {
	switch s {
	case obligation.StatusPaid:
		return "✅"
	case obligation.StatusDueToday:
		return "💰"
	case obligation.StatusOverdue:
		return "⚠️"
	case obligation.StatusSkipped:
		return "⏭"
	default:
		return "📅"
	}
}
