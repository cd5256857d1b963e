package calendly

// User is the authenticated Calendly account owner.
type User struct {
	URI   string `json:"uri"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EventType is Calendly's template for a bookable meeting kind. The clinic
// account has exactly one, the dental checkup.
type EventType struct {
	URI      string `json:"uri"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
	Duration int    `json:"duration"`
}

// TimeSlot is one bookable start time returned by the availability endpoint.
type TimeSlot struct {
	StartTime     string `json:"start_time"`
	Status        string `json:"status"`
	SchedulingURL string `json:"scheduling_url"`
}

// Invitee is a person registered as attending a scheduled event.
type Invitee struct {
	URI   string `json:"uri"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Event is a scheduled appointment owned by Calendly.
type Event struct {
	URI       string `json:"uri"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// resourceEnvelope and collectionEnvelope mirror Calendly's response
// wrapping; every payload arrives under "resource" or "collection".
type resourceEnvelope[T any] struct {
	Resource T `json:"resource"`
}

type collectionEnvelope[T any] struct {
	Collection []T `json:"collection"`
}

type createInviteeRequest struct {
	EventTypeURI string        `json:"event_type_uri"`
	StartTime    string        `json:"start_time"`
	Invitee      inviteeFields `json:"invitee"`
}

type inviteeFields struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type cancellationRequest struct {
	Reason string `json:"reason"`
}
