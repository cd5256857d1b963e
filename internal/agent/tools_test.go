package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/acmedental/booking-agent/internal/booking"
	"github.com/acmedental/booking-agent/internal/knowledge"
	"github.com/acmedental/booking-agent/internal/notify"
	"github.com/acmedental/booking-agent/pkg/logging"
)

// recordingSender captures sent emails and can be scripted to fail.
type recordingSender struct {
	sent []notify.EmailMessage
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msg notify.EmailMessage) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

// degradedToolbox runs against a nil scheduling client, so tool outputs are
// fully deterministic.
func degradedToolbox(email notify.EmailSender) *Toolbox {
	b := booking.NewService(nil, "https://calendly.com/acme-dental/checkup", logging.Default(), nil)
	return NewToolbox(b, knowledge.NewService(), email, logging.Default(), nil)
}

func TestInvoke_GetAvailableTimes(t *testing.T) {
	tb := degradedToolbox(nil)

	got := tb.Invoke(context.Background(), ToolGetAvailableTimes, map[string]string{"date": "2030-06-20"})

	if !strings.Contains(got, "Available times on 2030-06-20:") {
		t.Fatalf("observation = %q", got)
	}
	if !strings.Contains(got, "- 9:00 AM") || !strings.Contains(got, "- 4:00 PM") {
		t.Fatalf("fallback slots missing: %q", got)
	}
}

func TestInvoke_GetAvailableTimes_InvalidDate(t *testing.T) {
	tb := degradedToolbox(nil)

	got := tb.Invoke(context.Background(), ToolGetAvailableTimes, map[string]string{"date": "junk"})

	if !strings.Contains(got, "YYYY-MM-DD") {
		t.Fatalf("observation = %q", got)
	}
}

func TestInvoke_CreateBooking_DegradedRendersBookingURL(t *testing.T) {
	sender := &recordingSender{}
	tb := degradedToolbox(sender)

	got := tb.Invoke(context.Background(), ToolCreateBooking, map[string]string{
		"name": "John Doe", "email": "john@example.com", "date": "2030-06-20", "time": "2:00 PM",
	})

	if !strings.Contains(got, "Booking confirmation pending.") {
		t.Fatalf("observation = %q", got)
	}
	if !strings.Contains(got, "https://calendly.com/acme-dental/checkup?") {
		t.Fatalf("booking URL missing: %q", got)
	}
	if len(sender.sent) != 0 {
		t.Fatal("no confirmation email for a failed booking")
	}
}

func TestInvoke_SearchKnowledgeBase(t *testing.T) {
	tb := degradedToolbox(nil)

	got := tb.Invoke(context.Background(), ToolSearchKnowledgeBase, map[string]string{"question": "how much does it cost?"})

	if !strings.Contains(got, "€60") {
		t.Fatalf("observation = %q", got)
	}
}

func TestInvoke_GetClinicInfo(t *testing.T) {
	tb := degradedToolbox(nil)

	got := tb.Invoke(context.Background(), ToolGetClinicInfo, nil)

	if !strings.Contains(got, "Dublin") || !strings.Contains(got, "info@acmedental.ie") {
		t.Fatalf("observation = %q", got)
	}
}

func TestInvoke_UnknownTool(t *testing.T) {
	tb := degradedToolbox(nil)

	got := tb.Invoke(context.Background(), "summon_dentist", nil)

	if !strings.Contains(got, `Unknown tool "summon_dentist"`) {
		t.Fatalf("observation = %q", got)
	}
	if !strings.Contains(got, ToolCreateBooking) {
		t.Fatalf("observation should list available tools: %q", got)
	}
}

func TestRenderBooking_Success(t *testing.T) {
	got := renderBooking(booking.BookingResult{
		Success: true,
		Name:    "John Doe",
		Email:   "john@example.com",
		Date:    "2026-02-20",
		Time:    "2:00 PM",
		Message: "Booking confirmed successfully",
	}, "2026-02-20", "2:00 PM")

	for _, want := range []string{
		"**Booking Confirmed!**",
		"**Patient:** John Doe",
		"**Email:** john@example.com",
		"**Date:** 2026-02-20",
		"**Time:** 2:00 PM",
		"**Duration:** 30 minutes",
		"**Cost:** €60",
		"Valid photo ID",
		"arrive 5-10 minutes early",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("rendered booking missing %q", want)
		}
	}
}

func TestRenderBooking_NoBookingURLOmitsLink(t *testing.T) {
	// With no booking page configured the failure text must not render a
	// dangling "clicking:" sentence.
	got := renderBooking(booking.BookingResult{
		Success: false,
		Message: "API not available - please use booking URL",
	}, "2026-02-20", "2:00 PM")

	if strings.Contains(got, "clicking:") {
		t.Fatalf("rendered = %q", got)
	}
	if !strings.Contains(got, "Booking confirmation pending.") {
		t.Fatalf("rendered = %q", got)
	}
	if !strings.Contains(got, "- Date: 2026-02-20") || !strings.Contains(got, "- Time: 2:00 PM") {
		t.Fatalf("rendered = %q", got)
	}
}

func TestRenderBooking_ValidationErrorPassesMessageThrough(t *testing.T) {
	got := renderBooking(booking.BookingResult{
		Success:         false,
		Message:         "Name is required",
		ValidationError: true,
	}, "2026-02-20", "2:00 PM")

	if got != "Name is required" {
		t.Fatalf("rendered = %q", got)
	}
}

func TestRenderBookings(t *testing.T) {
	got := renderBookings(booking.BookingsResult{
		Success: true,
		Count:   2,
		Appointments: []booking.Appointment{
			{Name: "Dental Checkup", Date: "2026-02-20", Time: "02:00 PM"},
			{Name: "Dental Checkup", Date: "2026-03-01", Time: "10:30 AM"},
		},
	}, "john@example.com")

	if !strings.Contains(got, "Found 2 appointment(s) for john@example.com:") {
		t.Fatalf("rendered = %q", got)
	}
	if !strings.Contains(got, "1. Dental Checkup on 2026-02-20 at 02:00 PM") {
		t.Fatalf("rendered = %q", got)
	}
	if !strings.Contains(got, "2. Dental Checkup on 2026-03-01 at 10:30 AM") {
		t.Fatalf("rendered = %q", got)
	}
}

func TestRenderBookings_Empty(t *testing.T) {
	got := renderBookings(booking.BookingsResult{Success: true}, "john@example.com")

	if got != "No upcoming appointments found for john@example.com." {
		t.Fatalf("rendered = %q", got)
	}
}

func TestRenderCancellation_NoMatchIncludesPhone(t *testing.T) {
	contact := knowledge.NewService().ContactInfo()

	got := renderCancellation(booking.CancelResult{
		Success: false,
		Message: "No upcoming appointments found",
	}, "john@example.com", contact)

	if !strings.Contains(got, "No upcoming appointments found for john@example.com.") {
		t.Fatalf("rendered = %q", got)
	}
	if !strings.Contains(got, contact.Phone) {
		t.Fatalf("rendered should include the clinic phone: %q", got)
	}
}

func TestRenderReschedule_SuccessListsTimes(t *testing.T) {
	contact := knowledge.NewService().ContactInfo()

	got := renderReschedule(booking.RescheduleResult{
		Success:        true,
		OldCancelled:   true,
		NewDate:        "2026-03-01",
		AvailableTimes: []string{"09:00 AM", "10:00 AM"},
	}, contact)

	if !strings.Contains(got, "**Old Appointment Cancelled**") {
		t.Fatalf("rendered = %q", got)
	}
	if !strings.Contains(got, "Available times on 2026-03-01:") {
		t.Fatalf("rendered = %q", got)
	}
	if !strings.Contains(got, "- 09:00 AM") {
		t.Fatalf("rendered = %q", got)
	}
}

func TestRenderReschedule_FailurePointsToContact(t *testing.T) {
	contact := knowledge.NewService().ContactInfo()

	got := renderReschedule(booking.RescheduleResult{Success: false, Message: "Unable to cancel via API"}, contact)

	if !strings.Contains(got, "To reschedule, contact:") || !strings.Contains(got, contact.Email) {
		t.Fatalf("rendered = %q", got)
	}
}

func TestEmailFailureDoesNotChangeObservation(t *testing.T) {
	// A failing email sender must never leak into the patient-facing text.
	sender := &recordingSender{err: errors.New("smtp down")}
	tb := degradedToolbox(sender)

	got := tb.Invoke(context.Background(), ToolCancelAppointment, map[string]string{"email": "john@example.com"})

	if strings.Contains(got, "smtp down") {
		t.Fatalf("email error leaked: %q", got)
	}
}
