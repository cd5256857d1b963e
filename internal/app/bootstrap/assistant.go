// Package bootstrap assembles the assistant's runtime from configuration.
// Both the CLI and the HTTP server build the same stack through it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/acmedental/booking-agent/internal/agent"
	"github.com/acmedental/booking-agent/internal/booking"
	"github.com/acmedental/booking-agent/internal/calendly"
	"github.com/acmedental/booking-agent/internal/config"
	"github.com/acmedental/booking-agent/internal/knowledge"
	"github.com/acmedental/booking-agent/internal/notify"
	"github.com/acmedental/booking-agent/internal/observability/metrics"
	"github.com/acmedental/booking-agent/pkg/logging"
)

// Runtime bundles the assembled services.
type Runtime struct {
	Agent     *agent.Agent
	Booking   *booking.Service
	Knowledge *knowledge.Service

	closers []func() error
}

// Close releases provider resources held by the runtime.
func (r *Runtime) Close() error {
	var errs []error
	for _, closeFn := range r.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New builds the full assistant runtime. A missing Calendly token degrades
// booking to fallback behavior rather than failing startup; a missing LLM
// provider is fatal since the assistant cannot converse without one.
func New(ctx context.Context, cfg *config.Config, history agent.HistoryStore, registry prometheus.Registerer, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}

	bookingMetrics := metrics.NewBookingMetrics(registry)
	agentMetrics := metrics.NewAgentMetrics(registry)

	var schedulingAPI booking.SchedulingAPI
	client, err := calendly.NewClient(calendly.Config{
		APIToken: cfg.CalendlyAPIToken,
		BaseURL:  cfg.CalendlyBaseURL,
		Timeout:  cfg.CalendlyTimeout,
	}, logger)
	if err != nil {
		logger.Warn("calendly client unavailable, booking runs degraded", "error", err)
	} else {
		schedulingAPI = client
	}

	bookingService := booking.NewService(schedulingAPI, cfg.CalendlyURL, logger, bookingMetrics)
	knowledgeService := knowledge.NewService()

	emailSender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)

	var sender notify.EmailSender
	if emailSender != nil {
		sender = emailSender
	} else {
		logger.Info("email disabled, confirmation emails will be skipped")
	}

	rt := &Runtime{
		Booking:   bookingService,
		Knowledge: knowledgeService,
	}

	llm, err := newLLMClient(ctx, cfg, logger, rt)
	if err != nil {
		return nil, err
	}

	toolbox := agent.NewToolbox(bookingService, knowledgeService, sender, logger, agentMetrics)
	rt.Agent = agent.New(llm, toolbox, history, logger, agent.Options{
		Model:         cfg.BedrockModelID,
		MaxToolRounds: cfg.MaxToolRounds,
	})

	return rt, nil
}

// newLLMClient builds the provider chain: Bedrock primary when a model id
// is configured, Gemini as fallback or standalone when an API key is set.
func newLLMClient(ctx context.Context, cfg *config.Config, logger *logging.Logger, rt *Runtime) (agent.LLMClient, error) {
	var primary, fallback agent.LLMClient

	if cfg.BedrockModelID != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load AWS config: %w", err)
		}
		primary = agent.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
	}

	if cfg.GeminiAPIKey != "" {
		gemini, err := agent.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: create gemini client: %w", err)
		}
		rt.closers = append(rt.closers, gemini.Close)
		if primary == nil {
			primary = gemini
		} else {
			fallback = gemini
		}
	}

	if primary == nil {
		return nil, errors.New("bootstrap: no LLM provider configured, set BEDROCK_MODEL_ID or GEMINI_API_KEY")
	}
	if fallback == nil {
		return primary, nil
	}
	return agent.NewFallbackLLMClient(primary, fallback, logger), nil
}
