package calendly

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/acmedental/booking-agent/pkg/logging"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := NewClient(Config{APIToken: "test-token", BaseURL: ts.URL}, logging.Default())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClient_MissingToken(t *testing.T) {
	t.Setenv("CALENDLY_API_TOKEN", "")

	_, err := NewClient(Config{}, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !IsKind(err, KindConfiguration) {
		t.Fatalf("kind = %v, want configuration", err)
	}
}

func TestNewClient_TokenFromEnv(t *testing.T) {
	t.Setenv("CALENDLY_API_TOKEN", "env-token")

	client, err := NewClient(Config{}, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.apiToken != "env-token" {
		t.Fatalf("apiToken = %s", client.apiToken)
	}
}

func TestCurrentUser_Success(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/me" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("Authorization = %s", got)
		}
		_, _ = w.Write([]byte(`{"resource":{"uri":"https://api.calendly.com/users/u-1","name":"Acme Dental","email":"info@acmedental.ie"}}`))
	}))

	user, err := client.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if user.URI != "https://api.calendly.com/users/u-1" {
		t.Fatalf("URI = %s", user.URI)
	}
}

func TestUserURI_Memoized(t *testing.T) {
	calls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"resource":{"uri":"https://api.calendly.com/users/u-1"}}`))
	}))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		uri, err := client.UserURI(ctx)
		if err != nil {
			t.Fatalf("UserURI() error = %v", err)
		}
		if uri != "https://api.calendly.com/users/u-1" {
			t.Fatalf("uri = %s", uri)
		}
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (memoized)", calls)
	}
}

func TestUserURI_ResolvedOnceUnderConcurrency(t *testing.T) {
	// One Client is shared by concurrent chat requests; simultaneous
	// first lookups must not race on the memo or hit /users/me more than
	// once.
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"resource":{"uri":"https://api.calendly.com/users/u-1"}}`))
	}))

	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make([]error, 8)
	uris := make([]string, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uris[i], errs[i] = client.UserURI(ctx)
		}(i)
	}
	wg.Wait()

	for i := range errs {
		if errs[i] != nil {
			t.Fatalf("UserURI() %d error = %v", i, errs[i])
		}
		if uris[i] != "https://api.calendly.com/users/u-1" {
			t.Fatalf("uri %d = %s", i, uris[i])
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestUserURI_EmptyURI(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resource":{}}`))
	}))

	_, err := client.UserURI(context.Background())
	if !IsKind(err, KindAPI) {
		t.Fatalf("kind = %v, want api", err)
	}
}

func TestEventTypes_Success(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me":
			_, _ = w.Write([]byte(`{"resource":{"uri":"https://api.calendly.com/users/u-1"}}`))
		case "/event_types":
			if got := r.URL.Query().Get("user"); got != "https://api.calendly.com/users/u-1" {
				t.Fatalf("user param = %s", got)
			}
			if got := r.URL.Query().Get("active"); got != "true" {
				t.Fatalf("active param = %s", got)
			}
			_, _ = w.Write([]byte(`{"collection":[{"uri":"https://api.calendly.com/event_types/et-1","name":"Dental Checkup","active":true,"duration":30}]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	types, err := client.EventTypes(context.Background())
	if err != nil {
		t.Fatalf("EventTypes() error = %v", err)
	}
	if len(types) != 1 || types[0].Name != "Dental Checkup" {
		t.Fatalf("types = %+v", types)
	}
}

func TestAvailableTimes_Success(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("event_type") != "et-1" {
			t.Fatalf("event_type = %s", q.Get("event_type"))
		}
		if q.Get("start_time") != "2026-02-20T00:00:00" {
			t.Fatalf("start_time = %s", q.Get("start_time"))
		}
		_, _ = w.Write([]byte(`{"collection":[{"start_time":"2026-02-20T09:00:00Z","status":"available"}]}`))
	}))

	slots, err := client.AvailableTimes(context.Background(), "et-1", "2026-02-20T00:00:00", "2026-02-21T00:00:00")
	if err != nil {
		t.Fatalf("AvailableTimes() error = %v", err)
	}
	if len(slots) != 1 || slots[0].StartTime != "2026-02-20T09:00:00Z" {
		t.Fatalf("slots = %+v", slots)
	}
}

func TestCreateInvitee_SendsWirePayload(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s", r.Method)
		}
		if r.URL.Path != "/scheduling/invitees" {
			t.Fatalf("path = %s", r.URL.Path)
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if payload["event_type_uri"] != "et-1" {
			t.Fatalf("event_type_uri = %v", payload["event_type_uri"])
		}
		if payload["start_time"] != "2026-02-20T14:00:00Z" {
			t.Fatalf("start_time = %v", payload["start_time"])
		}
		invitee, _ := payload["invitee"].(map[string]any)
		if invitee["email"] != "john@example.com" || invitee["name"] != "John Doe" {
			t.Fatalf("invitee = %v", invitee)
		}

		_, _ = w.Write([]byte(`{"resource":{"uri":"https://api.calendly.com/invitees/i-1","email":"john@example.com","name":"John Doe"}}`))
	}))

	invitee, err := client.CreateInvitee(context.Background(), "et-1", "2026-02-20T14:00:00Z", "john@example.com", "John Doe")
	if err != nil {
		t.Fatalf("CreateInvitee() error = %v", err)
	}
	if invitee.URI != "https://api.calendly.com/invitees/i-1" {
		t.Fatalf("URI = %s", invitee.URI)
	}
}

func TestCancelEvent_Success(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scheduled_events/ev-1/cancellation" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if payload["reason"] != "Cancelled by patient" {
			t.Fatalf("reason = %s", payload["reason"])
		}
		_, _ = w.Write([]byte(`{"resource":{}}`))
	}))

	if err := client.CancelEvent(context.Background(), "ev-1", "Cancelled by patient"); err != nil {
		t.Fatalf("CancelEvent() error = %v", err)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   ErrorKind
	}{
		{"401 auth", http.StatusUnauthorized, "", KindAuthentication},
		{"404 not found", http.StatusNotFound, "", KindNotFound},
		{"429 rate limit", http.StatusTooManyRequests, "", KindRateLimited},
		{"500 generic", http.StatusInternalServerError, `{"message":"internal failure"}`, KindAPI},
		{"422 generic", http.StatusUnprocessableEntity, "not json at all", KindAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			_, err := client.CurrentUser(context.Background())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !IsKind(err, tt.kind) {
				t.Fatalf("kind of %v, want %s", err, tt.kind)
			}
		})
	}
}

func TestGenericErrorCarriesProviderMessage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"internal failure"}`))
	}))

	_, err := client.CurrentUser(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	want := "calendly: API error 500: internal failure (status=500)"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestMalformedJSONBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resource": not-json`))
	}))

	_, err := client.CurrentUser(context.Background())
	if !IsKind(err, KindAPI) {
		t.Fatalf("kind of %v, want api", err)
	}
}

func TestTimeoutMapsToTimeoutKind(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(ts.Close)

	client, err := NewClient(Config{APIToken: "test-token", BaseURL: ts.URL, Timeout: 20 * time.Millisecond}, logging.Default())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.CurrentUser(context.Background())
	if !IsKind(err, KindTimeout) {
		t.Fatalf("kind of %v, want timeout", err)
	}
}

func TestConnectionFailureMapsToConnectionKind(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // nothing listening anymore

	client, err := NewClient(Config{APIToken: "test-token", BaseURL: ts.URL}, logging.Default())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.CurrentUser(context.Background())
	if !IsKind(err, KindConnection) {
		t.Fatalf("kind of %v, want connection", err)
	}
}
