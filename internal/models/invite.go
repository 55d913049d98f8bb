package models

import (
	"strings"
	"time"
)

// InviteToken is a single-use credential binding an email to a role.
type InviteToken struct {
	Code           string     `json:"code"`
	Email          string     `json:"email"`
	Role           Role       `json:"role"`
	Name           *string    `json:"name,omitempty"`
	CohortID       *string    `json:"cohortId,omitempty"`
	OrganizationID *string    `json:"organizationId,omitempty"`
	CreatedBy      int64      `json:"createdBy"`
	CreatedAt      time.Time  `json:"createdAt"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	UsedAt         *time.Time `json:"usedAt,omitempty"`
	UsedBy         *int64     `json:"usedBy,omitempty"`
}

func (t *InviteToken) IsUsed() bool {
	return t.UsedAt != nil
}

func (t *InviteToken) IsExpired(now time.Time) bool {
	return t.UsedAt == nil && t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// Redeemable reports whether the token can still be redeemed at now.
func (t *InviteToken) Redeemable(now time.Time) bool {
	return t.UsedAt == nil && (t.ExpiresAt == nil || t.ExpiresAt.After(now))
}

// DisplayCode groups the code in blocks of four joined by hyphens.
func (t *InviteToken) DisplayCode() string {
	return FormatInviteCode(t.Code)
}

func FormatInviteCode(code string) string {
	var b strings.Builder
	for i, r := range code {
		if i > 0 && i%4 == 0 {
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeInviteCode strips separators and upper-cases user input.
func NormalizeInviteCode(input string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(input) {
		if r == '-' || r == ' ' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
