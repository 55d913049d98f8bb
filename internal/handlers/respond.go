package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ad/go-workshop-core/internal/db"
	"github.com/ad/go-workshop-core/internal/models"
	"github.com/ad/go-workshop-core/internal/services"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: ErrStoreUnavailable wraps its cause and is checked last.
var errorMappings = []errorMapping{
	{services.ErrUnknownApp, http.StatusNotFound, "unknown_app"},
	{services.ErrUnknownStep, http.StatusBadRequest, "unknown_step"},
	{services.ErrCriterionNotMet, http.StatusBadRequest, "criterion_not_met"},
	{services.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{services.ErrStepLocked, http.StatusForbidden, "step_locked"},
	{services.ErrForbidden, http.StatusForbidden, "forbidden"},
	{services.ErrWorkshopLocked, http.StatusConflict, "workshop_locked"},
	{services.ErrInviteAlreadyUsed, http.StatusConflict, "invite_already_used"},
	{services.ErrInviteExpired, http.StatusGone, "invite_expired"},
	{services.ErrInviteNotFound, http.StatusNotFound, "invite_not_found"},
	{services.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{services.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
}

// statusFor maps a service error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, "store_unavailable"
	}
	return http.StatusInternalServerError, "server_error"
}

// MessageSource yields the admin-editable texts shown to users.
type MessageSource interface {
	GetAll(ctx context.Context) (*models.Settings, error)
}

var defaultMessages = models.Settings{
	WorkshopLockedMessage: "This workshop is complete and read-only.",
	InviteNotFoundMessage: "This invite code does not exist.",
	InviteExpiredMessage:  "This invite code has expired. Ask your facilitator for a new one.",
	InviteUsedMessage:     "This invite code has already been used.",
}

func (s *Server) userMessage(ctx context.Context, code string, err error) string {
	switch code {
	case "workshop_locked", "invite_not_found", "invite_expired", "invite_already_used":
	case "store_unavailable", "server_error":
		return "The service is temporarily unavailable."
	default:
		return err.Error()
	}

	if s.messages != nil {
		settings, loadErr := s.messages.GetAll(ctx)
		if loadErr != nil {
			log.Printf("[HTTP] Failed to load messages from settings: %v", loadErr)
		} else if msg := messageFor(settings, code); msg != "" {
			return msg
		}
	}
	return messageFor(&defaultMessages, code)
}

func messageFor(settings *models.Settings, code string) string {
	switch code {
	case "workshop_locked":
		return settings.WorkshopLockedMessage
	case "invite_not_found":
		return settings.InviteNotFoundMessage
	case "invite_expired":
		return settings.InviteExpiredMessage
	case "invite_already_used":
		return settings.InviteUsedMessage
	}
	return ""
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s failed: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorBody{Error: code, Message: s.userMessage(r.Context(), code, err)})
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorBody{Error: code})
}

var _ MessageSource = (*db.SettingsRepository)(nil)
