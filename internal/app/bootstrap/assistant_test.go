package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/acmedental/booking-agent/internal/agent"
	"github.com/acmedental/booking-agent/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:            "8080",
		Env:             "test",
		LogLevel:        "error",
		CalendlyTimeout: time.Second,
		GeminiModelID:   "gemini-2.5-flash",
		MaxToolRounds:   5,
	}
}

func TestNew_FailsWithoutLLMProvider(t *testing.T) {
	t.Setenv("CALENDLY_API_TOKEN", "")

	_, err := New(context.Background(), testConfig(), agent.NewMemoryHistoryStore(), prometheus.NewRegistry(), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no LLM provider configured")
}

func TestNew_GeminiOnlyRuntime(t *testing.T) {
	t.Setenv("CALENDLY_API_TOKEN", "")

	cfg := testConfig()
	cfg.GeminiAPIKey = "test-key"

	rt, err := New(context.Background(), cfg, agent.NewMemoryHistoryStore(), prometheus.NewRegistry(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })

	require.NotNil(t, rt.Agent)
	require.NotNil(t, rt.Knowledge)
	// No Calendly token configured, so booking runs degraded instead of
	// failing startup.
	require.True(t, rt.Booking.Degraded())
}

func TestNew_CalendlyTokenEnablesLiveBooking(t *testing.T) {
	cfg := testConfig()
	cfg.GeminiAPIKey = "test-key"
	cfg.CalendlyAPIToken = "calendly-token"

	rt, err := New(context.Background(), cfg, agent.NewMemoryHistoryStore(), prometheus.NewRegistry(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })

	require.False(t, rt.Booking.Degraded())
}
