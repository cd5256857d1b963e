// Package validate holds stateless input checks for patient-supplied data.
package validate

import (
	"regexp"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// emailPattern is a practical subset of RFC 5322: ASCII local part with
// ._%+- allowed, dotted domain, top-level label of 2+ letters.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// now is swapped out in tests to pin the current day.
var now = time.Now

// Email checks email syntax. The message is a fixed human-readable hint on
// failure and "Valid email" on success. Purely syntactic, no network or
// locale awareness.
func Email(email string) (bool, string) {
	if email == "" {
		return false, "Email is required"
	}

	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return false, "Invalid email format. Please provide a valid email address (e.g., john@example.com)"
	}

	return true, "Valid email"
}

// Date requires exact YYYY-MM-DD format and rejects dates strictly before
// the current calendar day. Today is accepted.
func Date(dateStr string) (bool, string) {
	if dateStr == "" {
		return false, "Date is required"
	}

	parsed, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return false, "Invalid date format. Please use YYYY-MM-DD format (e.g., 2026-02-20)"
	}

	today := now()
	todayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if parsed.Before(todayStart) {
		return false, "Date cannot be in the past"
	}

	return true, "Valid date"
}
