// Package calendly wraps the Calendly REST API used for checkup scheduling.
// All HTTP communication, authentication, and error classification for the
// scheduling provider is centralized here.
package calendly

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/acmedental/booking-agent/pkg/logging"
)

const (
	defaultBaseURL = "https://api.calendly.com"
	defaultTimeout = 10 * time.Second
)

// Config holds client construction options. Zero values fall back to the
// CALENDLY_API_TOKEN environment variable and library defaults.
type Config struct {
	APIToken string
	BaseURL  string
	Timeout  time.Duration
}

// Client is a Calendly REST API client. Each method performs exactly one
// authenticated HTTP call and unwraps the provider's resource/collection
// envelope.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	logger     *logging.Logger

	// userURI is memoized on first successful lookup and never refreshed.
	// mu guards the memo; one Client is shared across concurrent chat
	// requests.
	mu      sync.Mutex
	userURI string
}

// NewClient constructs a Calendly client. Construction fails fast when no
// API token is available from config or environment.
func NewClient(cfg Config, logger *logging.Logger) (*Client, error) {
	token := strings.TrimSpace(cfg.APIToken)
	if token == "" {
		token = strings.TrimSpace(os.Getenv("CALENDLY_API_TOKEN"))
	}
	if token == "" {
		return nil, newError(KindConfiguration, "API token not provided")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiToken:   token,
		logger:     logger,
	}, nil
}

// CurrentUser fetches the authenticated user's record.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	body, err := c.do(ctx, http.MethodGet, "/users/me", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeResource[User](body)
}

// UserURI returns the current user's URI, memoized for the lifetime of the
// client.
func (c *Client) UserURI(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userURI != "" {
		return c.userURI, nil
	}

	user, err := c.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	if user.URI == "" {
		return "", newError(KindAPI, "user URI not found in response")
	}

	c.userURI = user.URI
	return c.userURI, nil
}

// EventTypes lists the current user's active event types.
func (c *Client) EventTypes(ctx context.Context) ([]EventType, error) {
	userURI, err := c.UserURI(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("user", userURI)
	q.Set("active", "true")

	body, err := c.do(ctx, http.MethodGet, "/event_types", q, nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[EventType](body)
}

// AvailableTimes lists bookable slots for an event type between two ISO
// timestamps.
func (c *Client) AvailableTimes(ctx context.Context, eventTypeURI, startTime, endTime string) ([]TimeSlot, error) {
	q := url.Values{}
	q.Set("event_type", eventTypeURI)
	q.Set("start_time", startTime)
	q.Set("end_time", endTime)

	body, err := c.do(ctx, http.MethodGet, "/event_type_available_times", q, nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[TimeSlot](body)
}

// CreateInvitee books the given slot for a patient.
func (c *Client) CreateInvitee(ctx context.Context, eventTypeURI, startTime, email, name string) (*Invitee, error) {
	payload := createInviteeRequest{
		EventTypeURI: eventTypeURI,
		StartTime:    startTime,
		Invitee:      inviteeFields{Email: email, Name: name},
	}

	body, err := c.do(ctx, http.MethodPost, "/scheduling/invitees", nil, payload)
	if err != nil {
		return nil, err
	}
	return decodeResource[Invitee](body)
}

// ScheduledEvents lists the current user's scheduled events. minStartTime
// may be empty to list all.
func (c *Client) ScheduledEvents(ctx context.Context, status, minStartTime string, count int) ([]Event, error) {
	userURI, err := c.UserURI(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("user", userURI)
	q.Set("status", status)
	q.Set("count", strconv.Itoa(count))
	if minStartTime != "" {
		q.Set("min_start_time", minStartTime)
	}

	body, err := c.do(ctx, http.MethodGet, "/scheduled_events", q, nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[Event](body)
}

// EventInvitees lists invitees for a scheduled event.
func (c *Client) EventInvitees(ctx context.Context, eventUUID string) ([]Invitee, error) {
	path := fmt.Sprintf("/scheduled_events/%s/invitees", url.PathEscape(eventUUID))

	body, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[Invitee](body)
}

// CancelEvent cancels a scheduled event with the given reason.
func (c *Client) CancelEvent(ctx context.Context, eventUUID, reason string) error {
	path := fmt.Sprintf("/scheduled_events/%s/cancellation", url.PathEscape(eventUUID))
	_, err := c.do(ctx, http.MethodPost, path, nil, cancellationRequest{Reason: reason})
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, wrapError(KindAPI, "marshal request", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, wrapError(KindAPI, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapError(KindConnection, "read response", err)
	}

	if apiErr := classifyStatus(resp.StatusCode, respBody); apiErr != nil {
		c.logger.Warn("calendly API error",
			"status", resp.StatusCode,
			"path", path,
			"kind", string(apiErr.Kind),
		)
		return nil, apiErr
	}

	return respBody, nil
}

func classifyTransportError(err error) *APIError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return wrapError(KindTimeout, "request timed out - Calendly may be slow or unavailable", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return wrapError(KindTimeout, "request timed out - Calendly may be slow or unavailable", err)
	}
	return wrapError(KindConnection, "connection failed - check internet connection", err)
}

func classifyStatus(status int, body []byte) *APIError {
	switch {
	case status == http.StatusUnauthorized:
		e := newError(KindAuthentication, "invalid or expired API token")
		e.StatusCode = status
		return e
	case status == http.StatusNotFound:
		e := newError(KindNotFound, "resource not found")
		e.StatusCode = status
		return e
	case status == http.StatusTooManyRequests:
		e := newError(KindRateLimited, "rate limit exceeded")
		e.StatusCode = status
		return e
	case status >= 400:
		msg := fmt.Sprintf("API error %d", status)
		var parsed struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
			msg += ": " + parsed.Message
		}
		e := newError(KindAPI, msg)
		e.StatusCode = status
		return e
	}
	return nil
}

func decodeResource[T any](body []byte) (*T, error) {
	if len(body) == 0 {
		return new(T), nil
	}
	var env resourceEnvelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, wrapError(KindAPI, "invalid JSON response", err)
	}
	return &env.Resource, nil
}

func decodeCollection[T any](body []byte) ([]T, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var env collectionEnvelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, wrapError(KindAPI, "invalid JSON response", err)
	}
	return env.Collection, nil
}
