package validate

import (
	"strings"
	"testing"
	"time"
)

// pin "today" so past/future assertions are stable
func pinNow(t *testing.T, day time.Time) {
	t.Helper()
	orig := now
	now = func() time.Time { return day }
	t.Cleanup(func() { now = orig })
}

func TestEmail_Valid(t *testing.T) {
	valid := []string{
		"john@example.com",
		"john.doe@example.com",
		"john+tag@example.co.uk",
		"j_d%x-1@sub.example.ie",
		"  padded@example.com  ",
	}
	for _, email := range valid {
		ok, msg := Email(email)
		if !ok {
			t.Errorf("Email(%q) invalid: %s", email, msg)
		}
		if msg != "Valid email" {
			t.Errorf("Email(%q) msg = %q", email, msg)
		}
	}
}

func TestEmail_Invalid(t *testing.T) {
	invalid := []string{
		"johnexample.com",      // missing @
		"john@",                // missing domain
		"john@example",         // missing TLD
		"john@example.c",       // TLD too short
		"john doe@example.com", // contains space
		"john#doe@example.com", // disallowed symbol
		"@example.com",         // empty local part
	}
	for _, email := range invalid {
		ok, msg := Email(email)
		if ok {
			t.Errorf("Email(%q) should be invalid", email)
			continue
		}
		if !strings.Contains(msg, "Invalid email format") {
			t.Errorf("Email(%q) msg = %q, want format hint", email, msg)
		}
	}
}

func TestEmail_Empty(t *testing.T) {
	ok, msg := Email("")
	if ok || msg != "Email is required" {
		t.Fatalf("Email(\"\") = %v, %q", ok, msg)
	}
}

func TestDate_FormatErrors(t *testing.T) {
	pinNow(t, time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC))

	invalid := []string{
		"20/02/2026", // wrong separators
		"02-20-2026", // wrong field order
		"2026-13-01", // out-of-range month
		"2026-02-30", // out-of-range day
		"tomorrow",
		"2026-02-20T10:00:00", // trailing time component
	}
	for _, date := range invalid {
		ok, msg := Date(date)
		if ok {
			t.Errorf("Date(%q) should be invalid", date)
			continue
		}
		if !strings.Contains(msg, "YYYY-MM-DD") {
			t.Errorf("Date(%q) msg = %q, want format hint", date, msg)
		}
	}
}

func TestDate_PastRejected(t *testing.T) {
	pinNow(t, time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC))

	ok, msg := Date("2026-02-14")
	if ok {
		t.Fatal("yesterday should be invalid")
	}
	if msg != "Date cannot be in the past" {
		t.Fatalf("msg = %q", msg)
	}

	ok, msg = Date("2020-01-01")
	if ok || msg != "Date cannot be in the past" {
		t.Fatalf("distant past: %v, %q", ok, msg)
	}
}

func TestDate_TodayAndFutureAccepted(t *testing.T) {
	pinNow(t, time.Date(2026, 2, 15, 23, 59, 0, 0, time.UTC))

	for _, date := range []string{"2026-02-15", "2026-02-16", "2027-01-01"} {
		ok, msg := Date(date)
		if !ok {
			t.Errorf("Date(%q) invalid: %s", date, msg)
		}
		if msg != "Valid date" {
			t.Errorf("Date(%q) msg = %q", date, msg)
		}
	}
}

func TestDate_Empty(t *testing.T) {
	ok, msg := Date("")
	if ok || msg != "Date is required" {
		t.Fatalf("Date(\"\") = %v, %q", ok, msg)
	}
}
