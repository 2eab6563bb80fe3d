package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/voyago-ai/flight-concierge/internal/llm"
	"github.com/voyago-ai/flight-concierge/internal/model"
	"github.com/voyago-ai/flight-concierge/internal/tools"
	"github.com/voyago-ai/flight-concierge/pkg/logger"
	"github.com/voyago-ai/flight-concierge/pkg/metrics"
)

const assistantSystemPrompt = `You are a friendly travel assistant for a flight-booking service.
Answer travel questions briefly and helpfully. You can mention that you can search flights,
book them, and show the user's bookings, passengers, preferences and itinerary.
Do not invent bookings, prices or schedules.`

// historyWindow bounds how much prior conversation feeds the general
// question prompt.
const historyWindow = 6

// AssistantAgent owns the read-only informational sub-flow. None of its
// handlers mutate state outside the conversation document, and AnswerGeneral
// never fails closed.
type AssistantAgent struct {
	directory tools.TravelerDirectory
	llmClient llm.Client
	llmModel  string
	log       *logger.Logger
}

// NewAssistantAgent creates an assistant agent. llmClient may be nil; the
// agent then answers general questions with canned text.
func NewAssistantAgent(directory tools.TravelerDirectory, llmClient llm.Client, llmModel string, log *logger.Logger) *AssistantAgent {
	return &AssistantAgent{directory: directory, llmClient: llmClient, llmModel: llmModel, log: log}
}

// Name identifies this agent in message annotations.
func (a *AssistantAgent) Name() string { return "assistant_agent" }

// ListPassengers lists the user's registered passengers.
func (a *AssistantAgent) ListPassengers(ctx context.Context, userID string) Result {
	if userID == "" {
		return signInReply("see your passengers")
	}
	passengers, err := a.directory.Passengers(ctx, userID)
	if err != nil {
		return a.degraded("passenger list", err)
	}
	if len(passengers) == 0 {
		return Result{Text: "You have no passenger profiles yet. Add one to start booking flights."}
	}

	var b strings.Builder
	b.WriteString("Your passengers:\n")
	for i, p := range passengers {
		fmt.Fprintf(&b, "%d. %s", i+1, p.FullName)
		if p.Document != "" {
			fmt.Fprintf(&b, " (%s)", p.Document)
		}
		b.WriteByte('\n')
	}
	return Result{Text: b.String()}
}

// ListBookings lists the user's bookings, optionally filtered by status.
func (a *AssistantAgent) ListBookings(ctx context.Context, userID string, statusFilter model.BookingStatus) Result {
	if userID == "" {
		return signInReply("see your bookings")
	}
	bookings, err := a.directory.Bookings(ctx, userID, statusFilter)
	if err != nil {
		return a.degraded("booking list", err)
	}
	if len(bookings) == 0 {
		return Result{Text: "You have no bookings yet. Ask me to search for a flight to get started."}
	}

	var b strings.Builder
	b.WriteString("Your bookings:\n")
	for i, bk := range bookings {
		fmt.Fprintf(&b, "%d. %s — %s", i+1, bk.Reference, bk.Status)
		if len(bk.Flights) > 0 {
			f := bk.Flights[0]
			fmt.Fprintf(&b, ", %s → %s on %s", f.Origin, f.Destination, f.DepartureTime.Format("2 Jan 2006"))
		}
		b.WriteByte('\n')
	}
	return Result{Text: b.String()}
}

// GetPreferences shows the user's saved travel preferences.
func (a *AssistantAgent) GetPreferences(ctx context.Context, userID string) Result {
	if userID == "" {
		return signInReply("see your preferences")
	}
	prefs, err := a.directory.Preferences(ctx, userID)
	if err != nil {
		return a.degraded("preferences", err)
	}
	if prefs == nil {
		return Result{Text: "You haven't saved any travel preferences yet."}
	}

	var parts []string
	if prefs.PreferredClass != "" {
		parts = append(parts, fmt.Sprintf("preferred class %s", prefs.PreferredClass))
	}
	if prefs.PreferredAirline != "" {
		parts = append(parts, fmt.Sprintf("preferred airline %s", prefs.PreferredAirline))
	}
	if prefs.HomeAirport != "" {
		parts = append(parts, fmt.Sprintf("home airport %s", prefs.HomeAirport))
	}
	if len(parts) == 0 {
		return Result{Text: "Your preference profile exists but has nothing saved in it yet."}
	}
	return Result{Text: "Your travel preferences: " + strings.Join(parts, ", ") + "."}
}

// ListCalendarEvents shows the user's flight itinerary entries.
func (a *AssistantAgent) ListCalendarEvents(ctx context.Context, userID string) Result {
	if userID == "" {
		return signInReply("see your itinerary")
	}
	events, err := a.directory.CalendarEvents(ctx, userID)
	if err != nil {
		return a.degraded("itinerary", err)
	}
	if len(events) == 0 {
		return Result{Text: "Your itinerary is empty: no upcoming flights on your calendar."}
	}

	var b strings.Builder
	b.WriteString("Your upcoming itinerary:\n")
	for i, e := range events {
		fmt.Fprintf(&b, "%d. %s — %s\n", i+1, e.Title, e.StartsAt.Format("Mon 2 Jan 15:04"))
	}
	return Result{Text: b.String()}
}

// ProfileUpdate is informational: profile mutations go through account
// settings, not the chat surface.
func (a *AssistantAgent) ProfileUpdate(context.Context, string) Result {
	return Result{Text: "Profile changes are handled in your account settings. I can help with flights, bookings and travel questions here."}
}

// AnswerGeneral is the universal fallback; it always produces a reply. With
// an LLM configured it answers the question, otherwise it introduces the
// assistant's capabilities.
func (a *AssistantAgent) AnswerGeneral(ctx context.Context, utterance string, history []model.Message) Result {
	if a.llmClient == nil {
		return Result{Text: cannedGeneralReply}
	}

	messages := make([]llm.ChatMessage, 0, historyWindow+1)
	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}
	for _, msg := range history[start:] {
		if msg.Role != model.RoleUser && msg.Role != model.RoleAssistant {
			continue
		}
		messages = append(messages, llm.ChatMessage{Role: string(msg.Role), Content: msg.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: "user", Content: utterance})

	resp, err := a.llmClient.Complete(ctx, &llm.CompletionRequest{
		Model:     a.llmModel,
		System:    assistantSystemPrompt,
		Messages:  messages,
		MaxTokens: 1024,
	})
	if err != nil {
		a.log.Warn("general answer llm failed", "error", err)
		return Result{Text: cannedGeneralReply}
	}
	metrics.RecordLLMTokens(resp.Model, resp.TokensIn, resp.TokensOut)
	if strings.TrimSpace(resp.Content) == "" {
		return Result{Text: cannedGeneralReply}
	}
	return Result{Text: resp.Content}
}

const cannedGeneralReply = "Hi! I can search flights, book them, and show your bookings, passengers, preferences and itinerary. Try: \"find flights from HAN to SGN tomorrow\"."

func signInReply(what string) Result {
	return Result{Text: fmt.Sprintf("Please sign in to %s.", what)}
}

func (a *AssistantAgent) degraded(what string, err error) Result {
	a.log.Warn("assistant lookup failed", "what", what, "error", err)
	return Result{Text: fmt.Sprintf("Sorry, I couldn't load your %s right now. Please try again in a moment.", what)}
}
