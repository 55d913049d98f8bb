package models

import "fmt"

type AppType string

const (
	AppAST AppType = "ast"
	AppIA  AppType = "ia"
)

var AppTypes = []AppType{AppAST, AppIA}

func ParseAppType(s string) (AppType, error) {
	switch AppType(s) {
	case AppAST, AppIA:
		return AppType(s), nil
	default:
		return "", fmt.Errorf("unknown app type %q", s)
	}
}

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleFacilitator Role = "facilitator"
	RoleParticipant Role = "participant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFacilitator, RoleParticipant:
		return true
	default:
		return false
	}
}

// CanManageUsers reports whether the role may run administrative
// operations such as resets.
func (r Role) CanManageUsers() bool {
	return r == RoleAdmin || r == RoleFacilitator
}

type AssessmentKind string

const (
	KindAssessment AssessmentKind = "assessment"
	KindReflection AssessmentKind = "reflection"
)

func (k AssessmentKind) Valid() bool {
	return k == KindAssessment || k == KindReflection
}

// Actor is the identity resolved once per request by the session provider.
type Actor struct {
	UserID int64
	Role   Role
}
