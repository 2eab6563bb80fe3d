package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/voyago-ai/flight-concierge/internal/llm"
	"github.com/voyago-ai/flight-concierge/internal/model"
	"github.com/voyago-ai/flight-concierge/pkg/logger"
)

const classifierSystemPrompt = `You are the intent classifier of a flight-booking assistant.
Analyze the user's message together with the conversation state and reply with ONE JSON object, nothing else.

Valid intents: flight_search, book_flight, view_booking, cancel_booking, view_passengers, view_preferences, ask_itinerary, profile_update, general_question, unknown.

Slot keys you may extract:
- origin, destination: IATA airport codes (convert city names: Ha Noi -> HAN, Sai Gon/TP HCM -> SGN, Da Nang -> DAD, Nha Trang -> CXR, Phu Quoc -> PQC)
- depart_date, return_date: YYYY-MM-DD
- adults: 1-9
- travel_class: ECONOMY or BUSINESS
- passenger_id, booking_id: UUIDs the user quoted
- selected_offer_index: 0-based index when the user picks a search result by number ("option 2", "chuyen so 2" -> "1"). Never put ordinals into origin or destination.

Output format:
{"intent":"flight_search","confidence":0.9,"slots":{"origin":"HAN","destination":"SGN","depart_date":"2026-12-20"}}

Only include slots the message actually states. Greetings and travel questions are general_question. Anything else is unknown.`

// LLMClassifier asks an LLM for a structured classification and degrades to
// the deterministic rule engine whenever the provider misbehaves. It never
// returns an error: that is the classifier contract.
type LLMClassifier struct {
	client   llm.Client
	fallback Classifier
	model    string
	log      *logger.Logger
}

// NewLLMClassifier wraps an LLM client. fallback must not be nil.
func NewLLMClassifier(client llm.Client, fallback Classifier, modelName string, log *logger.Logger) *LLMClassifier {
	return &LLMClassifier{client: client, fallback: fallback, model: modelName, log: log}
}

// Classify implements Classifier.
func (c *LLMClassifier) Classify(ctx context.Context, utterance string, state model.State) Result {
	if c.client == nil {
		return c.fallback.Classify(ctx, utterance, state)
	}

	resp, err := c.client.Complete(ctx, &llm.CompletionRequest{
		Model:     c.model,
		System:    classifierSystemPrompt,
		Messages:  []llm.ChatMessage{{Role: "user", Content: c.prompt(utterance, state)}},
		MaxTokens: 512,
	})
	if err != nil {
		c.log.Warn("llm classification failed, using rule fallback", "error", err)
		return c.fallback.Classify(ctx, utterance, state)
	}

	result, err := parseClassification(resp.Content)
	if err != nil {
		c.log.Warn("llm classification unparseable, using rule fallback", "error", err)
		return c.fallback.Classify(ctx, utterance, state)
	}
	return result
}

func (c *LLMClassifier) prompt(utterance string, state model.State) string {
	var b strings.Builder
	b.WriteString("Current state:\n")
	if state.CurrentIntent != "" {
		fmt.Fprintf(&b, "- previous intent: %s\n", state.CurrentIntent)
	}
	if len(state.Slots) > 0 {
		slots, _ := json.Marshal(state.Slots)
		fmt.Fprintf(&b, "- known slots: %s\n", slots)
	}
	if n := len(state.LastOfferIDs); n > 0 {
		fmt.Fprintf(&b, "- a previous search returned %d offers the user can pick by number\n", n)
	}
	if state.Step != "" {
		fmt.Fprintf(&b, "- awaiting answer for: %s\n", state.Step)
	}
	fmt.Fprintf(&b, "- today: %s\n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(&b, "\nUser message: %s", utterance)
	return b.String()
}

// parseClassification extracts the JSON object from an LLM reply, tolerating
// markdown code fences, and validates it against the intent enum.
func parseClassification(content string) (Result, error) {
	raw := strings.TrimSpace(content)
	if i := strings.Index(raw, "```json"); i >= 0 {
		raw = raw[i+len("```json"):]
	} else if i := strings.Index(raw, "```"); i >= 0 {
		raw = raw[i+3:]
	}
	if i := strings.Index(raw, "```"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimSpace(raw)

	var parsed struct {
		Intent     string            `json:"intent"`
		Confidence float64           `json:"confidence"`
		Slots      map[string]string `json:"slots"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Result{}, fmt.Errorf("decode classification: %w", err)
	}

	in := model.Intent(parsed.Intent)
	if !in.Valid() {
		return Result{}, fmt.Errorf("invalid intent %q", parsed.Intent)
	}
	if parsed.Confidence < 0 || parsed.Confidence > 1 {
		parsed.Confidence = 0.5
	}
	return Result{Intent: in, Slots: parsed.Slots, Confidence: parsed.Confidence}, nil
}
