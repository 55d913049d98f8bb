package models

import (
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestProperty1_InviteCodeFormatRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := rapid.StringMatching(`[A-HJ-NP-Z2-9]{1,16}`).Draw(t, "code")

		display := FormatInviteCode(code)
		if got := NormalizeInviteCode(display); got != code {
			t.Fatalf("Normalize(Format(%q)) = %q", code, got)
		}

		groups := strings.Split(display, "-")
		for i, g := range groups {
			if i < len(groups)-1 && len(g) != 4 {
				t.Fatalf("Expected inner group of 4 chars, got %q in %q", g, display)
			}
			if len(g) == 0 || len(g) > 4 {
				t.Fatalf("Invalid group %q in %q", g, display)
			}
		}
	})
}

func TestNormalizeInviteCode(t *testing.T) {
	if got := NormalizeInviteCode(" abcd-efgh jk "); got != "ABCDEFGHJK" {
		t.Fatalf("Expected ABCDEFGHJK, got %q", got)
	}
}

func TestInviteRedeemable(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)
	userID := int64(7)

	cases := []struct {
		name       string
		token      InviteToken
		redeemable bool
		expired    bool
	}{
		{"no expiry", InviteToken{}, true, false},
		{"future expiry", InviteToken{ExpiresAt: &future}, true, false},
		{"past expiry", InviteToken{ExpiresAt: &past}, false, true},
		{"used", InviteToken{UsedAt: &past, UsedBy: &userID}, false, false},
		{"used and past expiry", InviteToken{UsedAt: &past, ExpiresAt: &past}, false, false},
	}

	for _, tc := range cases {
		if got := tc.token.Redeemable(now); got != tc.redeemable {
			t.Errorf("%s: Redeemable=%v, expected %v", tc.name, got, tc.redeemable)
		}
		if got := tc.token.IsExpired(now); got != tc.expired {
			t.Errorf("%s: IsExpired=%v, expected %v", tc.name, got, tc.expired)
		}
	}
}
