package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/ad/go-workshop-core/internal/db"
	"github.com/ad/go-workshop-core/internal/fsm"
	"github.com/ad/go-workshop-core/internal/metrics"
	"github.com/ad/go-workshop-core/internal/models"
)

// InviteAlphabet leaves out I, O, 0 and 1. Its 32 symbols map one byte of
// randomness to one symbol without modulo bias.
const InviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const maxIssueAttempts = 5

type InviteStore interface {
	Create(ctx context.Context, token *models.InviteToken) error
	GetByCode(ctx context.Context, code string) (*models.InviteToken, error)
	Redeem(ctx context.Context, code string, userID int64, now time.Time) (*models.InviteToken, bool, error)
	DeleteUnused(ctx context.Context, code string) error
	ListByCreator(ctx context.Context, creatorID int64) ([]*models.InviteToken, error)
}

type IssueRequest struct {
	Email          string
	Role           models.Role
	Name           *string
	CohortID       *string
	OrganizationID *string
	// ExpiresAt wins over TTL; with neither set the engine default applies.
	ExpiresAt *time.Time
	TTL       time.Duration
}

type InviteEngine struct {
	store      InviteStore
	codeLength int
	defaultTTL time.Duration
	now        func() time.Time
	random     func([]byte) (int, error)
}

func NewInviteEngine(store InviteStore, codeLength int, defaultTTL time.Duration) *InviteEngine {
	return &InviteEngine{
		store:      store,
		codeLength: codeLength,
		defaultTTL: defaultTTL,
		now:        time.Now,
		random:     rand.Read,
	}
}

func (e *InviteEngine) Issue(ctx context.Context, actor models.Actor, req IssueRequest) (*models.InviteToken, error) {
	role := req.Role
	if role == "" {
		role = models.RoleParticipant
	}
	if !role.Valid() {
		return nil, invalidInput("unknown role %q", role)
	}
	if err := canIssue(actor, role); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(req.Email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, invalidInput("invalid email %q", req.Email)
	}

	now := e.now().UTC()
	token := &models.InviteToken{
		Email:          strings.ToLower(email),
		Role:           role,
		Name:           req.Name,
		CohortID:       req.CohortID,
		OrganizationID: req.OrganizationID,
		CreatedBy:      actor.UserID,
		CreatedAt:      now,
	}
	switch {
	case req.ExpiresAt != nil:
		at := req.ExpiresAt.UTC()
		token.ExpiresAt = &at
	case req.TTL > 0:
		at := now.Add(req.TTL)
		token.ExpiresAt = &at
	case e.defaultTTL > 0:
		at := now.Add(e.defaultTTL)
		token.ExpiresAt = &at
	}

	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		code, err := e.generateCode()
		if err != nil {
			return nil, err
		}
		token.Code = code
		err = e.store.Create(ctx, token)
		if err == nil {
			log.Printf("[INVITE] User %d issued %s invite %s for %s", actor.UserID, role, token.DisplayCode(), token.Email)
			return token, nil
		}
		if !errors.Is(err, db.ErrDuplicate) {
			return nil, unavailable(err)
		}
		log.Printf("[INVITE] Code collision on attempt %d, regenerating", attempt)
	}
	return nil, fmt.Errorf("%w: no free invite code after %d attempts", ErrStoreUnavailable, maxIssueAttempts)
}

func canIssue(actor models.Actor, role models.Role) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleFacilitator:
		if role == models.RoleParticipant {
			return nil
		}
		return fmt.Errorf("%w: facilitators may only invite participants", ErrForbidden)
	default:
		return fmt.Errorf("%w: role %q cannot issue invites", ErrForbidden, actor.Role)
	}
}

func (e *InviteEngine) generateCode() (string, error) {
	if e.codeLength <= 0 || e.codeLength > db.MaxInviteCodeLength {
		return "", fmt.Errorf("invite code length %d outside 1..%d", e.codeLength, db.MaxInviteCodeLength)
	}
	buf := make([]byte, e.codeLength)
	if _, err := e.random(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	code := make([]byte, e.codeLength)
	for i, b := range buf {
		code[i] = InviteAlphabet[int(b)%len(InviteAlphabet)]
	}
	return string(code), nil
}

// Verify is read-only: a redeemed token still verifies as valid.
func (e *InviteEngine) Verify(ctx context.Context, code string) (*models.InviteToken, error) {
	code = models.NormalizeInviteCode(code)
	token, err := e.store.GetByCode(ctx, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	if fsm.InviteStateOf(token, e.now().UTC()) == fsm.InviteExpired {
		return nil, ErrInviteExpired
	}
	return token, nil
}

// Redeem consumes the token for userID. Of concurrent callers exactly one
// succeeds; the others get ErrInviteAlreadyUsed.
func (e *InviteEngine) Redeem(ctx context.Context, code string, userID int64) (*models.InviteToken, error) {
	if userID <= 0 {
		return nil, invalidInput("user id %d", userID)
	}
	code = models.NormalizeInviteCode(code)
	now := e.now().UTC()

	token, redeemed, err := e.store.Redeem(ctx, code, userID, now)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = ErrInviteNotFound
	case err != nil:
		err = unavailable(err)
	case redeemed:
		metrics.RecordInviteRedemption("redeemed")
		log.Printf("[INVITE] Invite %s redeemed by user %d", token.DisplayCode(), userID)
		return token, nil
	case fsm.InviteStateOf(token, now) == fsm.InviteExpired:
		err = ErrInviteExpired
	default:
		err = ErrInviteAlreadyUsed
	}

	metrics.RecordInviteRedemption(redemptionOutcome(err))
	log.Printf("[INVITE] Redemption of %s by user %d rejected: %v", models.FormatInviteCode(code), userID, err)
	return nil, err
}

func redemptionOutcome(err error) string {
	switch {
	case errors.Is(err, ErrInviteNotFound):
		return "not_found"
	case errors.Is(err, ErrInviteExpired):
		return "expired"
	case errors.Is(err, ErrInviteAlreadyUsed):
		return "already_used"
	default:
		return "error"
	}
}

// Revoke deletes an unused invite. Only admins and the issuer may revoke.
func (e *InviteEngine) Revoke(ctx context.Context, actor models.Actor, code string) error {
	code = models.NormalizeInviteCode(code)
	token, err := e.store.GetByCode(ctx, code)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInviteNotFound
	}
	if err != nil {
		return unavailable(err)
	}
	if actor.Role != models.RoleAdmin && token.CreatedBy != actor.UserID {
		return fmt.Errorf("%w: invite belongs to user %d", ErrForbidden, token.CreatedBy)
	}
	if !fsm.CanTransition(fsm.InviteStateOf(token, e.now().UTC()), fsm.InviteRevoked) {
		if token.IsUsed() {
			return ErrInviteAlreadyUsed
		}
		return ErrInviteExpired
	}

	err = e.store.DeleteUnused(ctx, code)
	if errors.Is(err, sql.ErrNoRows) {
		// Redeemed between the read and the delete.
		return ErrInviteAlreadyUsed
	}
	if err != nil {
		return unavailable(err)
	}
	log.Printf("[INVITE] User %d revoked invite %s", actor.UserID, token.DisplayCode())
	return nil
}

func (e *InviteEngine) ListByIssuer(ctx context.Context, actor models.Actor) ([]*models.InviteToken, error) {
	if actor.Role == models.RoleParticipant {
		return nil, fmt.Errorf("%w: participants do not issue invites", ErrForbidden)
	}
	tokens, err := e.store.ListByCreator(ctx, actor.UserID)
	if err != nil {
		return nil, unavailable(err)
	}
	return tokens, nil
}
