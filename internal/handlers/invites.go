package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ad/go-workshop-core/internal/models"
	"github.com/ad/go-workshop-core/internal/services"
	"github.com/go-chi/chi/v5"
)

type issueInviteRequest struct {
	Email          string      `json:"email"`
	Role           models.Role `json:"role"`
	Name           *string     `json:"name,omitempty"`
	CohortID       *string     `json:"cohortId,omitempty"`
	OrganizationID *string     `json:"organizationId,omitempty"`
	ExpiresAt      *time.Time  `json:"expiresAt,omitempty"`
	TTLSeconds     int64       `json:"ttlSeconds,omitempty"`
}

type redeemInviteRequest struct {
	UserID int64 `json:"userId"`
}

type inviteResponse struct {
	*models.InviteToken
	DisplayCode string `json:"displayCode"`
}

func newInviteResponse(token *models.InviteToken) inviteResponse {
	return inviteResponse{InviteToken: token, DisplayCode: token.DisplayCode()}
}

func (s *Server) handleIssueInvite(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var req issueInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.TTLSeconds < 0 {
		s.writeServiceError(w, r, fmt.Errorf("%w: ttlSeconds must not be negative", services.ErrInvalidInput))
		return
	}

	token, err := s.invites.Issue(r.Context(), actor, services.IssueRequest{
		Email:          req.Email,
		Role:           req.Role,
		Name:           req.Name,
		CohortID:       req.CohortID,
		OrganizationID: req.OrganizationID,
		ExpiresAt:      req.ExpiresAt,
		TTL:            time.Duration(req.TTLSeconds) * time.Second,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newInviteResponse(token))
}

func (s *Server) handleListInvites(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	tokens, err := s.invites.ListByIssuer(r.Context(), actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	resp := make([]inviteResponse, 0, len(tokens))
	for _, token := range tokens {
		resp = append(resp, newInviteResponse(token))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifyInvite(w http.ResponseWriter, r *http.Request) {
	token, err := s.invites.Verify(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":       true,
		"email":       token.Email,
		"role":        token.Role,
		"used":        token.IsUsed(),
		"displayCode": token.DisplayCode(),
	})
}

func (s *Server) handleRevokeInvite(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	if err := s.invites.Revoke(r.Context(), actor, chi.URLParam(r, "code")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRedeemInvite consumes a code for the caller. Managers may redeem on
// behalf of another account by naming userId.
func (s *Server) handleRedeemInvite(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var req redeemInviteRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	userID := req.UserID
	if userID == 0 {
		userID = actor.UserID
	}
	if userID != actor.UserID && !actor.Role.CanManageUsers() {
		s.writeServiceError(w, r, fmt.Errorf("%w: cannot redeem for another user", services.ErrForbidden))
		return
	}

	token, err := s.invites.Redeem(r.Context(), chi.URLParam(r, "code"), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "redeemed",
		"invite": newInviteResponse(token),
	})
}
