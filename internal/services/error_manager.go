package services

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strings"

	"github.com/ad/go-workshop-core/internal/models"
	"github.com/go-telegram/bot"
)

// AdminNotifier reports conditions an operator has to act on.
type AdminNotifier interface {
	NotifyPanic(ctx context.Context, panicValue interface{}, request string)
	NotifyResetFailure(ctx context.Context, report *models.ResetReport)
}

// ErrorManager sends admin notifications to a Telegram chat.
type ErrorManager struct {
	bot     *bot.Bot
	adminID int64
}

func NewErrorManager(b *bot.Bot, adminID int64) *ErrorManager {
	return &ErrorManager{
		bot:     b,
		adminID: adminID,
	}
}

func (e *ErrorManager) NotifyPanic(ctx context.Context, panicValue interface{}, request string) {
	msg := fmt.Sprintf("🚨 Panic in handler\nRequest: %s\nError: %v\n\nStack trace:\n%s",
		request, panicValue, string(debug.Stack()))
	e.send(ctx, msg)
}

func (e *ErrorManager) NotifyResetFailure(ctx context.Context, report *models.ResetReport) {
	var b strings.Builder
	fmt.Fprintf(&b, "❌ Reset of user [%d] partially failed\nScope: %s\n", report.UserID, report.Scope)
	for _, category := range report.FailedCategories() {
		outcome := report.Outcomes[category]
		fmt.Fprintf(&b, "• %s (%s): %s\n", category, outcome.Mode, outcome.Error)
	}
	b.WriteString("\nRe-run the reset once the cause is fixed.")
	e.send(ctx, b.String())
}

func (e *ErrorManager) send(ctx context.Context, msg string) {
	if len(msg) > 4000 {
		msg = msg[:4000] + "\n... (truncated)"
	}

	_, err := e.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: e.adminID,
		Text:   msg,
	})
	if err != nil {
		log.Printf("[ERROR_MANAGER] Failed to notify admin: %v", err)
	}
}

// LogNotifier is used when no Telegram bot is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyPanic(_ context.Context, panicValue interface{}, request string) {
	log.Printf("[ERROR_MANAGER] Panic in %s: %v\n%s", request, panicValue, debug.Stack())
}

func (LogNotifier) NotifyResetFailure(_ context.Context, report *models.ResetReport) {
	log.Printf("[ERROR_MANAGER] Reset of user %d: %v", report.UserID, report.Err())
}
