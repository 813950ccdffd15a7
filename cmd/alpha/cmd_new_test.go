package main

import (
	"testing"
	"time"
)

func TestVersionStamp(t *testing.T) {
	stamp := time.Date(2026, 8, 15, 14, 30, 0, 0, time.UTC)
	if got := versionStamp(stamp); got != 20260815143000 {
		t.Errorf("versionStamp() = %d, want 20260815143000", got)
	}
}

func TestGuessTable(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"add_users_table", "users"},
		{"create_orders", "orders"},
		{"drop_legacy_sessions", "sessions"},
		{"remove_email_from_accounts", "accounts"},
		{"create_table", "example"},
	}
	for _, tt := range tests {
		if got := guessTable(tt.name); got != tt.want {
			t.Errorf("guessTable(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestMigrationNamePattern(t *testing.T) {
	valid := []string{"add_users_table", "v2_schema", "a"}
	invalid := []string{"AddUsers", "2fast", "add-users", "", "café"}

	for _, name := range valid {
		if !migrationName.MatchString(name) {
			t.Errorf("MatchString(%q) = false, want valid", name)
		}
	}
	for _, name := range invalid {
		if migrationName.MatchString(name) {
			t.Errorf("MatchString(%q) = true, want rejected", name)
		}
	}
}
