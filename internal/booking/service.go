// Package booking holds the business logic for checkup scheduling:
// validation, provider orchestration, and the fallback policy applied when
// Calendly is unavailable.
package booking

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/acmedental/booking-agent/internal/calendly"
	"github.com/acmedental/booking-agent/internal/observability/metrics"
	"github.com/acmedental/booking-agent/internal/validate"
	"github.com/acmedental/booking-agent/pkg/logging"
)

const cancelReason = "Cancelled by patient"

// fallbackTimes is the fixed slot list shown whenever live availability
// cannot be fetched.
var fallbackTimes = []string{"9:00 AM", "10:00 AM", "11:00 AM", "2:00 PM", "3:00 PM", "4:00 PM"}

// SchedulingAPI is the slice of the Calendly client the service depends
// on. Tests substitute fakes; a nil value puts the service in degraded
// mode for its lifetime.
type SchedulingAPI interface {
	EventTypes(ctx context.Context) ([]calendly.EventType, error)
	AvailableTimes(ctx context.Context, eventTypeURI, startTime, endTime string) ([]calendly.TimeSlot, error)
	CreateInvitee(ctx context.Context, eventTypeURI, startTime, email, name string) (*calendly.Invitee, error)
	ScheduledEvents(ctx context.Context, status, minStartTime string, count int) ([]calendly.Event, error)
	EventInvitees(ctx context.Context, eventUUID string) ([]calendly.Invitee, error)
	CancelEvent(ctx context.Context, eventUUID, reason string) error
}

// Service orchestrates input validation, the Calendly client, and the
// fallback policy. Every operation returns an envelope and never an error.
type Service struct {
	api            SchedulingAPI
	bookingPageURL string
	logger         *logging.Logger
	metrics        *metrics.BookingMetrics

	// eventTypeURI is resolved lazily and kept for the service lifetime.
	// Provider-side changes (e.g. the event type being recreated) require
	// a restart. mu guards the memo; one Service is shared across
	// concurrent chat requests.
	mu           sync.Mutex
	eventTypeURI string

	now func() time.Time
}

// NewService creates the booking service. api may be nil, in which case
// the service runs permanently degraded and answers from fallback data.
func NewService(api SchedulingAPI, bookingPageURL string, logger *logging.Logger, m *metrics.BookingMetrics) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		api:            api,
		bookingPageURL: bookingPageURL,
		logger:         logger,
		metrics:        m,
		now:            time.Now,
	}
}

// Degraded reports whether the service has no usable provider client.
func (s *Service) Degraded() bool {
	return s.api == nil
}

// resolveEventTypeURI returns the checkup event type URI, querying the
// provider once and keeping the first entry. Calendly returns the
// clinic's single active event type first, so first-wins is the contract
// here.
func (s *Service) resolveEventTypeURI(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.eventTypeURI != "" {
		return s.eventTypeURI
	}
	if s.api == nil {
		return ""
	}

	eventTypes, err := s.api.EventTypes(ctx)
	if err != nil {
		s.logger.Warn("event type lookup failed", "error", err)
		return ""
	}
	if len(eventTypes) == 0 {
		return ""
	}

	s.eventTypeURI = eventTypes[0].URI
	return s.eventTypeURI
}

// AvailableTimes returns bookable times for a YYYY-MM-DD date. Provider
// failures degrade to the fixed fallback slots; an empty live result is a
// successful answer, not an error.
func (s *Service) AvailableTimes(ctx context.Context, date string) (result AvailabilityResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("availability lookup panicked", "panic", r)
			result = AvailabilityResult{
				Success:  false,
				Times:    fallbackSlots(),
				Date:     date,
				Message:  "Unexpected error - using fallback times",
				Fallback: true,
				Err:      fmt.Sprint(r),
			}
		}
		s.observe("available_times", outcomeOf(result.Success, result.ValidationError, result.Fallback))
	}()

	if ok, msg := validate.Date(date); !ok {
		return AvailabilityResult{
			Success:         false,
			Times:           []string{},
			Date:            date,
			Message:         msg,
			ValidationError: true,
		}
	}

	if s.api == nil {
		return AvailabilityResult{
			Success:  false,
			Times:    fallbackSlots(),
			Date:     date,
			Message:  "API not available - using fallback times",
			Fallback: true,
		}
	}

	eventTypeURI := s.resolveEventTypeURI(ctx)
	if eventTypeURI == "" {
		return AvailabilityResult{
			Success:  false,
			Times:    fallbackSlots(),
			Date:     date,
			Message:  "Event type not found - using fallback times",
			Fallback: true,
		}
	}

	// Provider expects timezone-naive local-day boundaries as ISO stamps.
	target, _ := time.Parse("2006-01-02", date)
	minTime := target.Format("2006-01-02T15:04:05")
	maxTime := target.AddDate(0, 0, 1).Format("2006-01-02T15:04:05")

	slots, err := s.api.AvailableTimes(ctx, eventTypeURI, minTime, maxTime)
	if err != nil {
		s.observeProviderError(err)
		switch {
		case calendly.IsKind(err, calendly.KindRateLimited):
			return AvailabilityResult{
				Success:  false,
				Times:    fallbackSlots(),
				Date:     date,
				Message:  "Rate limit exceeded - using fallback times",
				Fallback: true,
			}
		case calendly.IsAPIError(err):
			return AvailabilityResult{
				Success:  false,
				Times:    fallbackSlots(),
				Date:     date,
				Message:  "API error - using fallback times",
				Fallback: true,
				Err:      err.Error(),
			}
		default:
			return AvailabilityResult{
				Success:  false,
				Times:    fallbackSlots(),
				Date:     date,
				Message:  "Unexpected error - using fallback times",
				Fallback: true,
				Err:      err.Error(),
			}
		}
	}

	if len(slots) == 0 {
		return AvailabilityResult{
			Success: true,
			Times:   []string{},
			Date:    date,
			Message: fmt.Sprintf("No available slots for %s", date),
		}
	}

	if len(slots) > 10 {
		slots = slots[:10]
	}
	times := make([]string, 0, len(slots))
	for _, slot := range slots {
		start, err := time.Parse(time.RFC3339, slot.StartTime)
		if err != nil {
			s.logger.Warn("skipping slot with unparsable start time", "start_time", slot.StartTime)
			continue
		}
		times = append(times, formatClock(start))
	}

	return AvailabilityResult{
		Success: true,
		Times:   times,
		Date:    date,
		Message: fmt.Sprintf("Found %d available slots", len(times)),
	}
}

// CreateBooking books a checkup. Validation order is email, date, name;
// each short-circuits before any provider call. Every failure path carries
// the direct booking-page URL so the patient always has a way forward.
func (s *Service) CreateBooking(ctx context.Context, name, email, date, timeStr string) (result BookingResult) {
	bookingURL := s.buildBookingURL(name, email, date)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("create booking panicked", "panic", r)
			result = BookingResult{
				Success:    false,
				BookingURL: bookingURL,
				Message:    "Unexpected error - please use booking URL",
				Err:        fmt.Sprint(r),
			}
		}
		s.observe("create_booking", outcomeOf(result.Success, result.ValidationError, false))
	}()

	if ok, msg := validate.Email(email); !ok {
		return BookingResult{Success: false, Message: msg, ValidationError: true}
	}
	if ok, msg := validate.Date(date); !ok {
		return BookingResult{Success: false, Message: msg, ValidationError: true}
	}
	if strings.TrimSpace(name) == "" {
		return BookingResult{Success: false, Message: "Name is required", ValidationError: true}
	}

	if s.api == nil {
		return BookingResult{
			Success:    false,
			BookingURL: bookingURL,
			Message:    "API not available - please use booking URL",
		}
	}

	eventTypeURI := s.resolveEventTypeURI(ctx)
	if eventTypeURI == "" {
		return BookingResult{
			Success:    false,
			BookingURL: bookingURL,
			Message:    "Event type not found - please use booking URL",
		}
	}

	startUTC, err := toProviderTimestamp(date, timeStr)
	if err != nil {
		return BookingResult{
			Success:    false,
			BookingURL: bookingURL,
			Message:    "Unexpected error - please use booking URL",
			Err:        err.Error(),
		}
	}

	invitee, err := s.api.CreateInvitee(ctx, eventTypeURI, startUTC, email, name)
	if err != nil {
		s.observeProviderError(err)
		switch {
		case calendly.IsKind(err, calendly.KindAuthentication):
			return BookingResult{
				Success:    false,
				BookingURL: bookingURL,
				Message:    "Authentication failed - please use booking URL",
				Err:        "Authentication error",
			}
		case calendly.IsKind(err, calendly.KindRateLimited):
			return BookingResult{
				Success:    false,
				BookingURL: bookingURL,
				Message:    "Service busy - please try again or use booking URL",
				Err:        "Rate limit exceeded",
			}
		case calendly.IsAPIError(err):
			return BookingResult{
				Success:    false,
				BookingURL: bookingURL,
				Message:    "Booking failed - please use booking URL",
				Err:        err.Error(),
			}
		default:
			return BookingResult{
				Success:    false,
				BookingURL: bookingURL,
				Message:    "Unexpected error - please use booking URL",
				Err:        err.Error(),
			}
		}
	}

	return BookingResult{
		Success:  true,
		Name:     name,
		Email:    email,
		Date:     date,
		Time:     timeStr,
		EventURI: invitee.URI,
		Message:  "Booking confirmed successfully",
	}
}

// FindBookings lists upcoming appointments whose invitee email matches
// case-insensitively. Events whose invitee lookup fails are skipped;
// partial results are acceptable. A failing top-level event listing is
// not tolerated and fails the whole query.
func (s *Service) FindBookings(ctx context.Context, email string) (result BookingsResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("find bookings panicked", "panic", r)
			result = BookingsResult{
				Success:      false,
				Email:        email,
				Appointments: []Appointment{},
				Message:      "Unexpected error retrieving bookings",
				Err:          fmt.Sprint(r),
			}
		}
		s.observe("find_bookings", outcomeOf(result.Success, result.ValidationError, false))
	}()

	if ok, msg := validate.Email(email); !ok {
		return BookingsResult{
			Success:         false,
			Email:           email,
			Appointments:    []Appointment{},
			Message:         msg,
			ValidationError: true,
		}
	}

	if s.api == nil {
		return BookingsResult{
			Success:      false,
			Email:        email,
			Appointments: []Appointment{},
			Message:      "API not available",
		}
	}

	events, err := s.api.ScheduledEvents(ctx, "active", s.now().Format("2006-01-02T15:04:05"), 100)
	if err != nil {
		s.observeProviderError(err)
		return BookingsResult{
			Success:      false,
			Email:        email,
			Appointments: []Appointment{},
			Message:      "Unable to retrieve bookings",
			Err:          err.Error(),
		}
	}

	appointments := []Appointment{}
	for _, event := range events {
		invitees, err := s.api.EventInvitees(ctx, eventUUID(event.URI))
		if err != nil {
			// One failing sub-lookup must not fail the whole query.
			continue
		}

		for _, invitee := range invitees {
			if !strings.EqualFold(invitee.Email, email) {
				continue
			}
			start, err := time.Parse(time.RFC3339, event.StartTime)
			if err != nil {
				s.logger.Warn("skipping event with unparsable start time", "uri", event.URI)
				break
			}
			name := event.Name
			if name == "" {
				name = "Dental Checkup"
			}
			appointments = append(appointments, Appointment{
				URI:  event.URI,
				Date: start.UTC().Format("2006-01-02"),
				Time: formatClock(start),
				Name: name,
			})
			break
		}
	}

	return BookingsResult{
		Success:      true,
		Email:        email,
		Appointments: appointments,
		Count:        len(appointments),
	}
}

// CancelAppointment cancels the first upcoming event whose invitee email
// matches.
func (s *Service) CancelAppointment(ctx context.Context, email string) (result CancelResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("cancel appointment panicked", "panic", r)
			result = CancelResult{
				Success: false,
				Email:   email,
				Message: "Unexpected error cancelling appointment",
				Err:     fmt.Sprint(r),
			}
		}
		s.observe("cancel_appointment", outcomeOf(result.Success, result.ValidationError, false))
	}()

	if ok, msg := validate.Email(email); !ok {
		return CancelResult{Success: false, Email: email, Message: msg, ValidationError: true}
	}

	if s.api == nil {
		return CancelResult{Success: false, Email: email, Message: "API not available"}
	}

	events, err := s.api.ScheduledEvents(ctx, "active", s.now().Format("2006-01-02T15:04:05"), 100)
	if err != nil {
		s.observeProviderError(err)
		return CancelResult{
			Success: false,
			Email:   email,
			Message: "Unable to cancel via API",
			Err:     err.Error(),
		}
	}

	var toCancel *calendly.Event
	for i := range events {
		invitees, err := s.api.EventInvitees(ctx, eventUUID(events[i].URI))
		if err != nil {
			continue
		}
		for _, invitee := range invitees {
			if strings.EqualFold(invitee.Email, email) {
				toCancel = &events[i]
				break
			}
		}
		if toCancel != nil {
			break
		}
	}

	if toCancel == nil {
		return CancelResult{Success: false, Email: email, Message: "No upcoming appointments found"}
	}

	if err := s.api.CancelEvent(ctx, eventUUID(toCancel.URI), cancelReason); err != nil {
		s.observeProviderError(err)
		return CancelResult{
			Success: false,
			Email:   email,
			Message: "Unable to cancel via API",
			Err:     err.Error(),
		}
	}

	start, err := time.Parse(time.RFC3339, toCancel.StartTime)
	if err != nil {
		return CancelResult{
			Success: true,
			Email:   email,
			Message: "Appointment cancelled successfully",
		}
	}

	return CancelResult{
		Success: true,
		Email:   email,
		Date:    start.UTC().Format("January 2, 2006"),
		Time:    formatClock(start),
		Message: "Appointment cancelled successfully",
	}
}

// Reschedule validates both inputs up front, cancels the existing
// appointment, and on success returns availability for the new date. It
// never creates the new booking itself.
func (s *Service) Reschedule(ctx context.Context, email, newDate string) (result RescheduleResult) {
	defer func() {
		s.observe("reschedule", outcomeOf(result.Success, result.ValidationError, false))
	}()

	if ok, msg := validate.Email(email); !ok {
		return RescheduleResult{Success: false, Message: msg, ValidationError: true}
	}
	if ok, msg := validate.Date(newDate); !ok {
		return RescheduleResult{Success: false, Message: msg, ValidationError: true}
	}

	cancelResult := s.CancelAppointment(ctx, email)
	if !cancelResult.Success {
		return RescheduleResult{
			Success:         false,
			Email:           email,
			Message:         cancelResult.Message,
			ValidationError: cancelResult.ValidationError,
			Err:             cancelResult.Err,
		}
	}

	availability := s.AvailableTimes(ctx, newDate)

	return RescheduleResult{
		Success:        true,
		Email:          email,
		OldCancelled:   true,
		NewDate:        newDate,
		AvailableTimes: availability.Times,
		Message:        "Old appointment cancelled. Select new time.",
	}
}

// buildBookingURL produces the direct booking-page fallback link.
func (s *Service) buildBookingURL(name, email, date string) string {
	if s.bookingPageURL == "" {
		return ""
	}
	q := url.Values{}
	q.Set("name", name)
	q.Set("email", email)
	q.Set("date", date)
	return s.bookingPageURL + "?" + q.Encode()
}

// toProviderTimestamp converts a date and a 12-hour clock string into the
// UTC instant Calendly expects. Wall-clock times are sent as-is with a Z
// suffix, matching the provider account's configuration.
func toProviderTimestamp(date, timeStr string) (string, error) {
	parsed, err := time.Parse("3:04 PM", strings.TrimSpace(timeStr))
	if err != nil {
		return "", fmt.Errorf("booking: parse time %q: %w", timeStr, err)
	}
	return fmt.Sprintf("%sT%s:00Z", date, parsed.Format("15:04")), nil
}

// formatClock renders a provider instant as a 12-hour wall-clock string.
func formatClock(t time.Time) string {
	return t.UTC().Format("03:04 PM")
}

// eventUUID extracts the trailing identifier from an event URI.
func eventUUID(uri string) string {
	idx := strings.LastIndex(uri, "/")
	if idx < 0 {
		return uri
	}
	return uri[idx+1:]
}

func fallbackSlots() []string {
	out := make([]string, len(fallbackTimes))
	copy(out, fallbackTimes)
	return out
}

func outcomeOf(success, validationError, fallback bool) string {
	switch {
	case success:
		return "success"
	case validationError:
		return "validation_error"
	case fallback:
		return "fallback"
	default:
		return "error"
	}
}

func (s *Service) observe(operation, outcome string) {
	s.metrics.ObserveOperation(operation, outcome)
}

func (s *Service) observeProviderError(err error) {
	var apiErr *calendly.APIError
	if errors.As(err, &apiErr) {
		s.metrics.ObserveProviderError(string(apiErr.Kind))
		return
	}
	s.metrics.ObserveProviderError("unknown")
}
