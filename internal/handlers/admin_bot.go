package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/ad/go-workshop-core/internal/db"
	"github.com/ad/go-workshop-core/internal/models"
	"github.com/ad/go-workshop-core/internal/services"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// operator is the actor for commands typed by the admin chat.
var operator = models.Actor{Role: models.RoleAdmin}

// AdminBot serves operator commands from the admin Telegram chat.
type AdminBot struct {
	adminID  int64
	reset    *services.ResetEngine
	users    *db.UserRepository
	settings *db.SettingsRepository
	notifier services.AdminNotifier
}

func NewAdminBot(adminID int64, reset *services.ResetEngine, users *db.UserRepository, settings *db.SettingsRepository, notifier services.AdminNotifier) *AdminBot {
	return &AdminBot{
		adminID:  adminID,
		reset:    reset,
		users:    users,
		settings: settings,
		notifier: notifier,
	}
}

func (h *AdminBot) HandleUpdate(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
	defer h.recoverPanic(ctx, update)

	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.ID != h.adminID {
		return
	}

	command, args, _ := strings.Cut(strings.TrimSpace(msg.Text), " ")
	var reply string
	switch command {
	case "/reset":
		reply = h.handleReset(ctx, args)
	case "/testuser":
		reply = h.handleTestUser(ctx, args)
	case "/lockmsg":
		reply = h.handleLockMessage(ctx, args)
	case "/messages":
		reply = h.handleMessages(ctx)
	case "/help", "/start":
		reply = "Commands:\n/reset <userId> [full_wipe|holistic_reports_only]\n/testuser <userId> on|off\n/lockmsg <text>\n/messages"
	default:
		return
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: msg.Chat.ID, Text: reply}); err != nil {
		log.Printf("[ADMIN_BOT] Failed to reply to %s: %v", command, err)
	}
}

func (h *AdminBot) recoverPanic(ctx context.Context, update *tgmodels.Update) {
	if r := recover(); r != nil {
		request := "update"
		if update.Message != nil {
			request = fmt.Sprintf("message %q", update.Message.Text)
		}
		h.notifier.NotifyPanic(ctx, r, request)
	}
}

func (h *AdminBot) handleReset(ctx context.Context, args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		return "Usage: /reset <userId> [full_wipe|holistic_reports_only]"
	}
	userID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || userID <= 0 {
		return fmt.Sprintf("Invalid user id %q", fields[0])
	}
	scope := models.ScopeFullWipe
	if len(fields) == 2 {
		if scope, err = models.ParseResetScope(fields[1]); err != nil {
			return err.Error()
		}
	}

	report, err := h.reset.ResetUser(ctx, operator, userID, scope)
	if err != nil {
		return fmt.Sprintf("Reset of user %d failed: %v", userID, err)
	}
	return formatResetReport(report)
}

// handleTestUser marks an account whose data a reset hard-deletes.
func (h *AdminBot) handleTestUser(ctx context.Context, args string) string {
	fields := strings.Fields(args)
	if len(fields) != 2 || (fields[1] != "on" && fields[1] != "off") {
		return "Usage: /testuser <userId> on|off"
	}
	userID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || userID <= 0 {
		return fmt.Sprintf("Invalid user id %q", fields[0])
	}
	isTest := fields[1] == "on"

	err = h.users.SetTestUser(ctx, userID, isTest)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Sprintf("User %d not found", userID)
	}
	if err != nil {
		log.Printf("[ADMIN_BOT] Failed to flag user %d as test account: %v", userID, err)
		return "Failed to update the account"
	}
	log.Printf("[ADMIN_BOT] User %d test account: %t", userID, isTest)
	if isTest {
		return fmt.Sprintf("User %d is now a test account; resets hard-delete its data", userID)
	}
	return fmt.Sprintf("User %d is a regular account again", userID)
}

func formatResetReport(report *models.ResetReport) string {
	var b strings.Builder
	status := "✅"
	if report.Err() != nil {
		status = "⚠️"
	}
	fmt.Fprintf(&b, "%s Reset of user %d (%s)\n", status, report.UserID, report.Scope)
	if report.TestAccount {
		b.WriteString("Test account: all data hard-deleted\n")
	}
	for _, category := range report.Order {
		outcome := report.Outcomes[category]
		if outcome.Success {
			fmt.Fprintf(&b, "• %s %s: %d\n", category, outcome.Mode, outcome.RowsAffected)
		} else {
			fmt.Fprintf(&b, "• %s %s: failed (%s)\n", category, outcome.Mode, outcome.Error)
		}
	}
	fmt.Fprintf(&b, "Total rows: %d", report.TotalRowsAffected())
	return b.String()
}

func (h *AdminBot) handleLockMessage(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "Usage: /lockmsg <text>"
	}
	if err := h.settings.SetWorkshopLockedMessage(ctx, text); err != nil {
		log.Printf("[ADMIN_BOT] Failed to update locked message: %v", err)
		return "Failed to save the message"
	}
	return "Workshop locked message updated"
}

func (h *AdminBot) handleMessages(ctx context.Context) string {
	settings, err := h.settings.GetAll(ctx)
	if err != nil {
		log.Printf("[ADMIN_BOT] Failed to load settings: %v", err)
		return "Failed to load messages"
	}
	return fmt.Sprintf("Workshop locked: %s\nInvite not found: %s\nInvite expired: %s\nInvite used: %s",
		settings.WorkshopLockedMessage, settings.InviteNotFoundMessage,
		settings.InviteExpiredMessage, settings.InviteUsedMessage)
}
