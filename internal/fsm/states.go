package fsm

import (
	"time"

	"github.com/ad/go-workshop-core/internal/models"
)

type InviteState string

const (
	InviteIssued   InviteState = "issued"
	InviteRedeemed InviteState = "redeemed"
	InviteExpired  InviteState = "expired"
	InviteRevoked  InviteState = "revoked"
)

var inviteTransitions = map[InviteState][]InviteState{
	InviteIssued: {InviteRedeemed, InviteExpired, InviteRevoked},
}

// InviteStateOf derives the lifecycle state of a stored token. Revoked
// tokens are deleted, so a stored token is never revoked.
func InviteStateOf(token *models.InviteToken, now time.Time) InviteState {
	switch {
	case token.IsUsed():
		return InviteRedeemed
	case token.IsExpired(now):
		return InviteExpired
	default:
		return InviteIssued
	}
}

func (s InviteState) Terminal() bool {
	return len(inviteTransitions[s]) == 0
}

func CanTransition(from, to InviteState) bool {
	for _, next := range inviteTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
