package knowledge

import (
	"strings"
	"testing"
)

func TestSearchCategories(t *testing.T) {
	svc := NewService()

	tests := []struct {
		question     string
		wantCategory string
		wantContains string
	}{
		{"How much does a checkup cost?", "pricing", "€60"},
		{"How long is the appointment?", "duration", "30 minutes"},
		{"What should I bring?", "what_to_bring", "photo ID"},
		{"What is the cancellation policy?", "cancellation_policy", "€20"},
		{"Do you offer emergency dental treatment?", "emergency", "emergency"},
		{"Do you take insurance?", "insurance", "receipts"},
		{"Can I get a student discount?", "discounts", "€50"},
		{"Can I just walk in?", "walk_ins", "booked in advance"},
		{"Are X-rays included in the price?", "pricing", "€60"},
		{"Do I need an account?", "account", "full name and email"},
		{"Can I book on behalf of my mother?", "booking_others", "someone else"},
		{"I didn't receive my confirmation", "confirmation", "spam"},
		{"What if I'm running late?", "late_arrival", "ASAP"},
		{"How do I pay?", "payment", "contactless"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCategory+"/"+tt.question, func(t *testing.T) {
			got := svc.Search(tt.question)
			if !got.Success {
				t.Fatal("lookups always succeed")
			}
			if got.Category != tt.wantCategory {
				t.Fatalf("category = %q, want %q", got.Category, tt.wantCategory)
			}
			if !strings.Contains(strings.ToLower(got.Answer), strings.ToLower(tt.wantContains)) {
				t.Fatalf("answer %q does not mention %q", got.Answer, tt.wantContains)
			}
			if got.Source != "knowledge_base" {
				t.Fatalf("source = %q", got.Source)
			}
		})
	}
}

func TestSearchFirstMatchWins(t *testing.T) {
	svc := NewService()

	// "cost" and "included" both appear; pricing is scanned first.
	got := svc.Search("What is included in the cost?")
	if got.Category != "pricing" {
		t.Fatalf("category = %q, want pricing", got.Category)
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	svc := NewService()

	got := svc.Search("HOW MUCH IS A CHECKUP?")
	if got.Category != "pricing" {
		t.Fatalf("category = %q, want pricing", got.Category)
	}
}

func TestSearchFallbackToGeneral(t *testing.T) {
	svc := NewService()

	got := svc.Search("what is your favorite color?")
	if !got.Success {
		t.Fatal("fallback is still a successful answer")
	}
	if got.Category != "general" {
		t.Fatalf("category = %q, want general", got.Category)
	}
	if !strings.Contains(got.Answer, "€60") {
		t.Fatalf("general answer should summarise pricing: %q", got.Answer)
	}
}

func TestClinicInfo(t *testing.T) {
	svc := NewService()

	got := svc.ClinicInfo()
	if !got.Success {
		t.Fatal("clinic info lookup always succeeds")
	}
	if got.Clinic.Price != "€60" || got.Clinic.Duration != "30 minutes" {
		t.Fatalf("clinic = %+v", got.Clinic)
	}
	if !strings.Contains(got.Formatted, "Dublin") {
		t.Fatalf("formatted output missing location: %q", got.Formatted)
	}
	if !strings.Contains(got.Formatted, "info@acmedental.ie") {
		t.Fatalf("formatted output missing contact: %q", got.Formatted)
	}
}

func TestContactInfo(t *testing.T) {
	svc := NewService()

	got := svc.ContactInfo()
	if got.Email != "info@acmedental.ie" {
		t.Fatalf("email = %q", got.Email)
	}
	if got.Phone != "+353 1 234 5678" {
		t.Fatalf("phone = %q", got.Phone)
	}
	if !strings.Contains(got.Location, "Dublin") {
		t.Fatalf("location = %q", got.Location)
	}
}
