package models

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestUserDisplayName_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		user := &User{
			ID:    rapid.Int64().Draw(t, "id"),
			Name:  rapid.String().Draw(t, "name"),
			Email: rapid.String().Draw(t, "email"),
		}

		result := user.DisplayName()

		idStr := fmt.Sprintf("[%d]", user.ID)
		if !strings.Contains(result, idStr) {
			t.Fatalf("DisplayName must always contain user id: got %q, expected to contain %q", result, idStr)
		}
		if user.Name != "" && !strings.Contains(result, user.Name) {
			t.Fatalf("DisplayName must contain name when non-empty: got %q", result)
		}
		if user.Email != "" && !strings.Contains(result, "<"+user.Email+">") {
			t.Fatalf("DisplayName must contain <email> when non-empty: got %q", result)
		}
	})
}

func TestCompletionFlagsPerApp(t *testing.T) {
	now := time.Now()
	flags := CompletionFlags{ASTCompleted: true, ASTCompletedAt: &now}

	if !flags.IsCompleted(AppAST) {
		t.Fatal("Expected ast to be completed")
	}
	if flags.IsCompleted(AppIA) {
		t.Fatal("Expected ia to be open")
	}
	if flags.CompletedAt(AppAST) != &now {
		t.Fatal("Expected ast completion time to be returned")
	}
	if flags.CompletedAt(AppIA) != nil {
		t.Fatal("Expected no ia completion time")
	}
	if flags.IsCompleted(AppType("other")) {
		t.Fatal("Unknown app must never report completed")
	}
}

func TestParseAppType(t *testing.T) {
	for _, app := range AppTypes {
		got, err := ParseAppType(string(app))
		if err != nil || got != app {
			t.Fatalf("Expected %s to parse, got %q err=%v", app, got, err)
		}
	}
	if _, err := ParseAppType("AST"); err == nil {
		t.Fatal("Expected app types to be case sensitive")
	}
}

func TestRolePolicy(t *testing.T) {
	if !RoleAdmin.CanManageUsers() || !RoleFacilitator.CanManageUsers() {
		t.Fatal("Expected admins and facilitators to manage users")
	}
	if RoleParticipant.CanManageUsers() {
		t.Fatal("Participants must not manage users")
	}
	if Role("").Valid() {
		t.Fatal("Empty role must be invalid at the data layer")
	}
}
