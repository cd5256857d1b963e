package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/acmedental/booking-agent/pkg/logging"
)

const (
	defaultMaxToolRounds = 5
	defaultMaxTokens     = 1024
	defaultTemperature   = 0.7
)

// toolAction is the JSON shape the planner emits to request a tool call.
type toolAction struct {
	Tool string            `json:"tool"`
	Args map[string]string `json:"args"`
}

// Agent runs the conversation loop: it sends the history to the LLM,
// executes any tool the model requests, feeds the observation back, and
// repeats until the model answers in plain text or the round limit hits.
type Agent struct {
	llm           LLMClient
	tools         *Toolbox
	history       HistoryStore
	logger        *logging.Logger
	model         string
	maxToolRounds int
	now           func() time.Time
}

// Options tunes agent behavior beyond the required dependencies.
type Options struct {
	// Model is forwarded to the LLM client. Providers constructed around
	// a fixed model may ignore it.
	Model string

	// MaxToolRounds caps tool executions per user turn. Zero means the
	// default of 5.
	MaxToolRounds int
}

func New(llm LLMClient, tools *Toolbox, history HistoryStore, logger *logging.Logger, opts Options) *Agent {
	if logger == nil {
		logger = logging.Default()
	}
	rounds := opts.MaxToolRounds
	if rounds <= 0 {
		rounds = defaultMaxToolRounds
	}
	if history == nil {
		history = NewMemoryHistoryStore()
	}
	return &Agent{
		llm:           llm,
		tools:         tools,
		history:       history,
		logger:        logger,
		model:         opts.Model,
		maxToolRounds: rounds,
		now:           time.Now,
	}
}

// NewConversationID mints an identifier for a fresh conversation.
func NewConversationID() string {
	return uuid.NewString()
}

// Respond handles one user turn for the given conversation and returns the
// assistant's reply. History is loaded before and persisted after the turn;
// a history persistence failure is logged but does not fail the turn.
func (a *Agent) Respond(ctx context.Context, conversationID, userMessage string) (string, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return "", fmt.Errorf("agent: user message is empty")
	}

	history, err := a.history.Load(ctx, conversationID)
	if err != nil {
		a.logger.Warn("history load failed, starting fresh", "conversation_id", conversationID, "error", err)
		history = nil
	}

	history = append(history, ChatMessage{Role: ChatRoleUser, Content: userMessage})
	system := buildSystemPrompt(a.now())

	var reply string
	for round := 0; ; round++ {
		resp, err := a.llm.Complete(ctx, LLMRequest{
			Model:       a.model,
			System:      []string{system},
			Messages:    history,
			MaxTokens:   defaultMaxTokens,
			Temperature: defaultTemperature,
		})
		if err != nil {
			return "", fmt.Errorf("agent: completion failed: %w", err)
		}

		action, ok := extractToolAction(resp.Text)
		if !ok {
			reply = resp.Text
			history = append(history, ChatMessage{Role: ChatRoleAssistant, Content: reply})
			break
		}

		if round >= a.maxToolRounds {
			a.logger.Warn("tool round limit reached", "conversation_id", conversationID, "tool", action.Tool)
			reply = "I'm having trouble completing that right now. Could you rephrase your request, or contact the clinic directly at +353 1 234 5678?"
			history = append(history, ChatMessage{Role: ChatRoleAssistant, Content: reply})
			break
		}

		a.logger.Info("executing tool", "conversation_id", conversationID, "tool", action.Tool, "round", round)
		observation := a.tools.Invoke(ctx, action.Tool, action.Args)

		history = append(history,
			ChatMessage{Role: ChatRoleAssistant, Content: resp.Text},
			ChatMessage{Role: ChatRoleUser, Content: fmt.Sprintf("Tool result (%s):\n%s", action.Tool, observation)},
		)
	}

	if err := a.history.Save(ctx, conversationID, history); err != nil {
		a.logger.Warn("history save failed", "conversation_id", conversationID, "error", err)
	}

	return reply, nil
}

// extractToolAction pulls a tool call out of model output. Models sometimes
// wrap the JSON in prose or code fences, so the first balanced brace span
// is tried rather than the raw text.
func extractToolAction(text string) (toolAction, bool) {
	content := strings.TrimSpace(text)
	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx < 0 || endIdx <= startIdx {
		return toolAction{}, false
	}

	var action toolAction
	if err := json.Unmarshal([]byte(content[startIdx:endIdx+1]), &action); err != nil {
		return toolAction{}, false
	}
	if strings.TrimSpace(action.Tool) == "" {
		return toolAction{}, false
	}
	if action.Args == nil {
		action.Args = map[string]string{}
	}
	return action, true
}
