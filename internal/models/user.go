package models

import (
	"fmt"
	"strings"
	"time"
)

type User struct {
	ID             int64
	Email          string
	Name           string
	Role           Role
	OrganizationID *string
	CohortID       *string
	IsTestUser     bool
	Completion     CompletionFlags
	CreatedAt      time.Time
}

// CompletionFlags is the per-user workshop completion state. It is set by
// the progression engine on the terminal step and cleared only by a reset.
type CompletionFlags struct {
	ASTCompleted   bool       `json:"astCompleted"`
	ASTCompletedAt *time.Time `json:"astCompletedAt,omitempty"`
	IACompleted    bool       `json:"iaCompleted"`
	IACompletedAt  *time.Time `json:"iaCompletedAt,omitempty"`
}

func (f CompletionFlags) IsCompleted(app AppType) bool {
	switch app {
	case AppAST:
		return f.ASTCompleted
	case AppIA:
		return f.IACompleted
	default:
		return false
	}
}

func (f CompletionFlags) CompletedAt(app AppType) *time.Time {
	switch app {
	case AppAST:
		return f.ASTCompletedAt
	case AppIA:
		return f.IACompletedAt
	default:
		return nil
	}
}

func (u *User) DisplayName() string {
	var parts []string
	if u.Name != "" {
		parts = append(parts, u.Name)
	}
	if u.Email != "" {
		parts = append(parts, fmt.Sprintf("<%s>", u.Email))
	}
	parts = append(parts, fmt.Sprintf("[%d]", u.ID))
	return strings.Join(parts, " ")
}
