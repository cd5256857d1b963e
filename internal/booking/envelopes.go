package booking

// Every service operation returns a structured envelope rather than an
// error: success=false always carries a message explaining why, and
// validation_error marks failures caused by malformed caller input rather
// than the scheduling provider.

// AvailabilityResult reports bookable times for one date.
type AvailabilityResult struct {
	Success         bool     `json:"success"`
	Times           []string `json:"times"`
	Date            string   `json:"date"`
	Message         string   `json:"message"`
	ValidationError bool     `json:"validation_error,omitempty"`
	Fallback        bool     `json:"fallback,omitempty"`
	Err             string   `json:"error,omitempty"`
}

// BookingResult reports the outcome of a booking attempt. BookingURL is the
// direct booking-page fallback, populated on every failure path.
type BookingResult struct {
	Success         bool   `json:"success"`
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	Date            string `json:"date,omitempty"`
	Time            string `json:"time,omitempty"`
	EventURI        string `json:"event_uri,omitempty"`
	BookingURL      string `json:"booking_url,omitempty"`
	Message         string `json:"message"`
	ValidationError bool   `json:"validation_error,omitempty"`
	Err             string `json:"error,omitempty"`
}

// Appointment is a display-shaped view of a scheduled provider event.
type Appointment struct {
	URI  string `json:"uri"`
	Date string `json:"date"`
	Time string `json:"time"`
	Name string `json:"name"`
}

// BookingsResult lists a patient's upcoming appointments.
type BookingsResult struct {
	Success         bool          `json:"success"`
	Email           string        `json:"email"`
	Appointments    []Appointment `json:"appointments"`
	Count           int           `json:"count"`
	Message         string        `json:"message,omitempty"`
	ValidationError bool          `json:"validation_error,omitempty"`
	Err             string        `json:"error,omitempty"`
}

// CancelResult reports the outcome of a cancellation.
type CancelResult struct {
	Success         bool   `json:"success"`
	Email           string `json:"email"`
	Date            string `json:"date,omitempty"`
	Time            string `json:"time,omitempty"`
	Message         string `json:"message"`
	ValidationError bool   `json:"validation_error,omitempty"`
	Err             string `json:"error,omitempty"`
}

// RescheduleResult reports a cancellation plus availability for the new
// date. The new booking itself is a separate follow-up CreateBooking call.
type RescheduleResult struct {
	Success         bool     `json:"success"`
	Email           string   `json:"email,omitempty"`
	OldCancelled    bool     `json:"old_cancelled,omitempty"`
	NewDate         string   `json:"new_date,omitempty"`
	AvailableTimes  []string `json:"available_times,omitempty"`
	Message         string   `json:"message"`
	ValidationError bool     `json:"validation_error,omitempty"`
	Err             string   `json:"error,omitempty"`
}
