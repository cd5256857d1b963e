package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/acmedental/booking-agent/internal/booking"
	"github.com/acmedental/booking-agent/internal/knowledge"
	"github.com/acmedental/booking-agent/internal/notify"
	"github.com/acmedental/booking-agent/internal/observability/metrics"
	"github.com/acmedental/booking-agent/pkg/logging"
)

// Tool names the planner may request.
const (
	ToolGetAvailableTimes     = "get_available_times"
	ToolCreateBooking         = "create_booking"
	ToolFindUserBookings      = "find_user_bookings"
	ToolCancelAppointment     = "cancel_appointment"
	ToolRescheduleAppointment = "reschedule_appointment"
	ToolGetClinicInfo         = "get_clinic_info"
	ToolSearchKnowledgeBase   = "search_knowledge_base"
)

// toolSpec describes one tool for the planner's catalog.
type toolSpec struct {
	name        string
	description string
	args        string
}

var toolCatalog = []toolSpec{
	{ToolGetAvailableTimes, "Get available appointment times for a specific date.", `{"date": "YYYY-MM-DD"}`},
	{ToolCreateBooking, "Create a checkup booking.", `{"name": "full name", "email": "email address", "date": "YYYY-MM-DD", "time": "2:00 PM"}`},
	{ToolFindUserBookings, "Find scheduled appointments for a patient by email.", `{"email": "email address"}`},
	{ToolCancelAppointment, "Cancel a patient's upcoming appointment.", `{"email": "email address"}`},
	{ToolRescheduleAppointment, "Cancel the old appointment and show times for a new date.", `{"email": "email address", "new_date": "YYYY-MM-DD"}`},
	{ToolGetClinicInfo, "Get information about Acme Dental clinic.", `{}`},
	{ToolSearchKnowledgeBase, "Answer questions about pricing, policies, what to bring, and other clinic FAQs.", `{"question": "the patient's question"}`},
}

// Toolbox dispatches planner tool calls to the booking and knowledge
// services and renders their envelopes as patient-facing text.
type Toolbox struct {
	booking   *booking.Service
	knowledge *knowledge.Service
	email     notify.EmailSender
	logger    *logging.Logger
	metrics   *metrics.AgentMetrics
}

// NewToolbox wires the tool layer. email may be nil; confirmation emails
// are then skipped.
func NewToolbox(b *booking.Service, k *knowledge.Service, email notify.EmailSender, logger *logging.Logger, m *metrics.AgentMetrics) *Toolbox {
	if logger == nil {
		logger = logging.Default()
	}
	return &Toolbox{
		booking:   b,
		knowledge: k,
		email:     email,
		logger:    logger,
		metrics:   m,
	}
}

// Invoke runs the named tool with string args and returns the observation
// text. Unknown tools return an observation rather than an error so the
// planner can correct itself.
func (t *Toolbox) Invoke(ctx context.Context, name string, args map[string]string) string {
	t.metrics.ObserveToolInvocation(name)

	switch name {
	case ToolGetAvailableTimes:
		return t.getAvailableTimes(ctx, args["date"])
	case ToolCreateBooking:
		return t.createBooking(ctx, args["name"], args["email"], args["date"], args["time"])
	case ToolFindUserBookings:
		return t.findUserBookings(ctx, args["email"])
	case ToolCancelAppointment:
		return t.cancelAppointment(ctx, args["email"])
	case ToolRescheduleAppointment:
		return t.rescheduleAppointment(ctx, args["email"], args["new_date"])
	case ToolGetClinicInfo:
		return t.knowledge.ClinicInfo().Formatted
	case ToolSearchKnowledgeBase:
		return t.knowledge.Search(args["question"]).Answer
	default:
		return fmt.Sprintf("Unknown tool %q. Available tools: %s", name, strings.Join(toolNames(), ", "))
	}
}

func (t *Toolbox) getAvailableTimes(ctx context.Context, date string) string {
	result := t.booking.AvailableTimes(ctx, date)
	return renderAvailability(result)
}

func (t *Toolbox) createBooking(ctx context.Context, name, email, date, timeStr string) string {
	result := t.booking.CreateBooking(ctx, name, email, date, timeStr)

	if result.Success && t.email != nil {
		// Confirmation email is best effort.
		msg := notify.BookingConfirmation(result.Name, result.Email, result.Date, result.Time)
		if err := t.email.Send(ctx, msg); err != nil {
			t.logger.Warn("booking confirmation email failed", "error", err, "email", result.Email)
		}
	}

	return renderBooking(result, date, timeStr)
}

func (t *Toolbox) findUserBookings(ctx context.Context, email string) string {
	result := t.booking.FindBookings(ctx, email)
	return renderBookings(result, email)
}

func (t *Toolbox) cancelAppointment(ctx context.Context, email string) string {
	result := t.booking.CancelAppointment(ctx, email)

	if result.Success && t.email != nil {
		msg := notify.CancellationNotice(result.Email, result.Date, result.Time)
		if err := t.email.Send(ctx, msg); err != nil {
			t.logger.Warn("cancellation email failed", "error", err, "email", result.Email)
		}
	}

	return renderCancellation(result, email, t.knowledge.ContactInfo())
}

func (t *Toolbox) rescheduleAppointment(ctx context.Context, email, newDate string) string {
	result := t.booking.Reschedule(ctx, email, newDate)
	return renderReschedule(result, t.knowledge.ContactInfo())
}

func toolNames() []string {
	names := make([]string, 0, len(toolCatalog))
	for _, spec := range toolCatalog {
		names = append(names, spec.name)
	}
	sort.Strings(names)
	return names
}

// renderAvailability formats an availability envelope. Fallback slot lists
// render exactly like live ones; patients are never shown degraded-mode
// internals.
func renderAvailability(result booking.AvailabilityResult) string {
	if len(result.Times) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Available times on %s:\n", result.Date)
		for _, t := range result.Times {
			fmt.Fprintf(&b, "- %s\n", t)
		}
		return strings.TrimRight(b.String(), "\n")
	}
	if result.ValidationError {
		return result.Message
	}
	return fmt.Sprintf("No available slots for %s. Please try another date.", result.Date)
}

func renderBooking(result booking.BookingResult, date, timeStr string) string {
	if result.Success {
		return fmt.Sprintf(`✅ **Booking Confirmed!**

**Patient:** %s
**Email:** %s
**Date:** %s
**Time:** %s
**Duration:** 30 minutes
**Cost:** €60

Your appointment has been successfully booked! You'll receive a confirmation email shortly with all the details.

**What to bring:**
- Valid photo ID
- Medical information (if applicable)
- Insurance details

**Arrival:** Please arrive 5-10 minutes early.

See you soon! 😊`, result.Name, result.Email, result.Date, result.Time)
	}

	if result.ValidationError {
		return result.Message
	}

	var b strings.Builder
	b.WriteString("Booking confirmation pending.\n")
	if result.BookingURL != "" {
		fmt.Fprintf(&b, "\nPlease complete your booking by clicking: %s\n", result.BookingURL)
	}
	fmt.Fprintf(&b, `
**Appointment Details:**
- Date: %s
- Time: %s
- Duration: 30 minutes
- Cost: €60`, date, timeStr)
	return b.String()
}

func renderBookings(result booking.BookingsResult, email string) string {
	if result.Success && result.Count > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Found %d appointment(s) for %s:\n\n", result.Count, email)
		for i, apt := range result.Appointments {
			fmt.Fprintf(&b, "%d. %s on %s at %s\n", i+1, apt.Name, apt.Date, apt.Time)
		}
		return strings.TrimRight(b.String(), "\n")
	}
	if result.Success {
		return fmt.Sprintf("No upcoming appointments found for %s.", email)
	}
	msg := result.Message
	if msg == "" {
		msg = "Unknown error"
	}
	return fmt.Sprintf("Unable to retrieve bookings: %s", msg)
}

func renderCancellation(result booking.CancelResult, email string, contact knowledge.ContactInfo) string {
	if result.Success {
		return fmt.Sprintf(`✅ **Appointment Cancelled**

Your appointment on %s at %s has been cancelled.

⚠️ Cancellation within 24 hours may incur a €20 fee.

You'll receive a confirmation email shortly.`, result.Date, result.Time)
	}

	if strings.Contains(strings.ToLower(result.Message), "no upcoming") {
		return fmt.Sprintf("No upcoming appointments found for %s. If you have an appointment, please contact us at %s.", email, contact.Phone)
	}
	if result.ValidationError {
		return result.Message
	}
	return fmt.Sprintf("Unable to cancel via API. Please contact us at %s or %s", contact.Phone, contact.Email)
}

func renderReschedule(result booking.RescheduleResult, contact knowledge.ContactInfo) string {
	if result.Success && result.OldCancelled {
		if len(result.AvailableTimes) > 0 {
			var b strings.Builder
			b.WriteString("✅ **Old Appointment Cancelled**\n\n")
			fmt.Fprintf(&b, "Available times on %s:\n", result.NewDate)
			for _, t := range result.AvailableTimes {
				fmt.Fprintf(&b, "- %s\n", t)
			}
			fmt.Fprintf(&b, "\nPlease tell me which time you'd like for %s, and I'll create your new booking.\n\n", result.NewDate)
			b.WriteString(`Example: "I'd like 2:00 PM"`)
			return b.String()
		}
		return fmt.Sprintf("✅ **Old Appointment Cancelled**\n\nNo available slots for %s. Please try another date.", result.NewDate)
	}

	if result.ValidationError {
		return result.Message
	}
	return fmt.Sprintf("To reschedule, contact: %s or %s", contact.Phone, contact.Email)
}
