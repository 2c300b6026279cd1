package main

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testAuthConfig() Config {
	return Config{
		AuthEnabled: true,
		AuthSecret:  "test-secret",
		TicketTTL:   time.Hour,
	}
}

func TestTicketRoundTrip(t *testing.T) {
	a, err := NewAuth(testAuthConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !a.Enabled() {
		t.Fatal("auth should be enabled")
	}

	ticket, err := a.IssueTicket("Alice", "", "1.2.3.4")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	name, err := a.ValidateTicket(ticket)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if name != "Alice" {
		t.Errorf("expected Alice, got %s", name)
	}
}

func TestTicketPassword(t *testing.T) {
	cfg := testAuthConfig()
	cfg.JoinPassword = "sekrit"
	a, err := NewAuth(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := a.IssueTicket("Bob", "wrong", "1.2.3.4"); err == nil {
		t.Error("wrong password should be refused")
	}
	if _, err := a.IssueTicket("Bob", "sekrit", "1.2.3.4"); err != nil {
		t.Errorf("correct password refused: %v", err)
	}
}

func TestTicketRejectsTampering(t *testing.T) {
	a, _ := NewAuth(testAuthConfig())

	other, _ := NewAuth(Config{AuthEnabled: true, AuthSecret: "other-secret", TicketTTL: time.Hour})
	foreign, err := other.IssueTicket("Eve", "", "5.6.7.8")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.ValidateTicket(foreign); err == nil {
		t.Error("a ticket signed with another secret must be rejected")
	}

	if _, err := a.ValidateTicket("not-a-ticket"); err == nil {
		t.Error("garbage must be rejected")
	}

	// Unsigned tokens must never pass
	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"usr": "Eve"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.ValidateTicket(unsigned); err == nil {
		t.Error("an unsigned token must be rejected")
	}
}

func TestTicketExpiry(t *testing.T) {
	cfg := testAuthConfig()
	cfg.TicketTTL = -time.Minute
	a, _ := NewAuth(cfg)

	ticket, err := a.IssueTicket("Old", "", "1.2.3.4")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.ValidateTicket(ticket); err == nil {
		t.Error("an expired ticket must be rejected")
	}
}

func TestJoinRateLimit(t *testing.T) {
	a, _ := NewAuth(testAuthConfig())

	for i := 0; i < maxJoinAttempts; i++ {
		if _, err := a.IssueTicket("Spam", "", "9.9.9.9"); err != nil {
			t.Fatalf("attempt %d unexpectedly refused: %v", i+1, err)
		}
	}
	if _, err := a.IssueTicket("Spam", "", "9.9.9.9"); err == nil {
		t.Error("attempts past the window limit must be refused")
	}

	// A different address is not affected
	if _, err := a.IssueTicket("Fresh", "", "10.0.0.1"); err != nil {
		t.Errorf("other addresses should not be throttled: %v", err)
	}
}

func TestCleanName(t *testing.T) {
	if got := CleanName("  Bob  "); got != "Bob" {
		t.Errorf("expected trimmed name, got %q", got)
	}
	if got := CleanName("abcdefghijklmnopqrstuvwx"); got != "abcdefghijklmnop" {
		t.Errorf("expected 16-char truncation, got %q", got)
	}
	if got := CleanName("exactly16chars!!"); got != "exactly16chars!!" {
		t.Errorf("a name at the limit stays intact, got %q", got)
	}

	for _, bad := range []string{"", " ", "x", "\t\n"} {
		got := CleanName(bad)
		if !strings.HasPrefix(got, "Guest_") {
			t.Errorf("%q should fall back to a guest name, got %q", bad, got)
		}
	}
}

func TestGenerateGuestName(t *testing.T) {
	name := GenerateGuestName()
	if !strings.HasPrefix(name, "Guest_") {
		t.Errorf("unexpected guest name %q", name)
	}
	if len(name) != len("Guest_")+6 {
		t.Errorf("guest suffix should be 3 hex bytes, got %q", name)
	}
}

func TestAuthDisabledByDefault(t *testing.T) {
	a, err := NewAuth(Config{TicketTTL: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	if a.Enabled() {
		t.Error("auth should be off unless configured")
	}
}
