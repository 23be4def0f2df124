package utils

import "testing"

func TestBadgeDisplayName(t *testing.T) {
	tests := map[string]string{
		"LOGIN_STREAK_7": "Login Streak 7",
		"WEEKLY_WARRIOR": "Weekly Warrior",
		"LEVEL_10":       "Level 10",
	}
	for code, want := range tests {
		if got := BadgeDisplayName(code); got != want {
			t.Fatalf("BadgeDisplayName(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestDiscountCode(t *testing.T) {
	tests := []struct {
		category, id, want string
	}{
		{"groceries", "1a2b3c4d-5e6f", "GROCERIES-1A2B3C4D"},
		{"Dining Out", "abc", "DINING-OUT-ABC"},
		{"", "1a2b-3c4d-5e6f", "VPAY-1A2B3C4D"},
	}
	for _, tt := range tests {
		if got := DiscountCode(tt.category, tt.id); got != tt.want {
			t.Fatalf("DiscountCode(%q, %q) = %q, want %q", tt.category, tt.id, got, tt.want)
		}
	}
}

func TestBadgeMetadataKey(t *testing.T) {
	if got := BadgeMetadataKey("u1", "LOGIN_STREAK_7"); got != "badges/u1/login_streak_7.json" {
		t.Fatalf("key = %q", got)
	}
}

func TestR2ConfigEnabled(t *testing.T) {
	if (R2Config{}).Enabled() {
		t.Fatalf("empty config should be disabled")
	}
	if !(R2Config{Bucket: "b", AccessKeyID: "k", Endpoint: "http://localhost:9000"}).Enabled() {
		t.Fatalf("endpoint config should be enabled")
	}
}
