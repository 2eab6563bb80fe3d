// Package router orchestrates one conversation turn: classify the
// utterance, merge validated slots into conversation state, either ask for
// the single next missing slot or delegate to a sub-agent, then persist the
// turn before replying.
package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voyago-ai/flight-concierge/internal/agent"
	"github.com/voyago-ai/flight-concierge/internal/intent"
	"github.com/voyago-ai/flight-concierge/internal/model"
	"github.com/voyago-ai/flight-concierge/internal/session"
	"github.com/voyago-ai/flight-concierge/pkg/logger"
	"github.com/voyago-ai/flight-concierge/pkg/metrics"
)

var (
	// ErrEmptyMessage rejects a turn whose message is blank.
	ErrEmptyMessage = errors.New("message must not be empty")
	// ErrConversationNotFound covers both a missing conversation and one
	// owned by a different user; callers cannot tell the two apart.
	ErrConversationNotFound = errors.New("conversation not found")
)

const (
	// routerAgentName annotates replies the router produced itself, i.e.
	// clarification questions that never reached a sub-agent.
	routerAgentName = "router"

	// stepAwaitingOfferChoice marks that the last reply presented offers and
	// a bare ordinal should be read as picking one.
	stepAwaitingOfferChoice = "awaiting_offer_choice"

	// historyWindow is how many prior messages general Q&A sees.
	historyWindow = 12

	// tokenChunkRunes sizes the text chunks of a streamed reply.
	tokenChunkRunes = 24

	defaultChannel  = "web"
	defaultCurrency = "USD"
)

// Router is the conversation orchestrator. It owns state transitions;
// sub-agents only propose changes through patches.
type Router struct {
	store      session.Store
	classifier intent.Classifier
	flight     *agent.FlightAgent
	assistant  *agent.AssistantAgent
	log        *logger.Logger
	locks      *convLocks
	now        func() time.Time
}

// New creates a router.
func New(store session.Store, classifier intent.Classifier, flight *agent.FlightAgent, assistant *agent.AssistantAgent, log *logger.Logger) *Router {
	return &Router{
		store:      store,
		classifier: classifier,
		flight:     flight,
		assistant:  assistant,
		log:        log,
		locks:      newConvLocks(),
		now:        time.Now,
	}
}

// turn is one fully committed conversation turn.
type turn struct {
	conv        *model.Conversation
	userMessage *model.Message
	reply       *model.Message
}

// HandleTurn processes one user message synchronously.
func (r *Router) HandleTurn(ctx context.Context, userID string, req model.ChatRequest) (*model.ChatResponse, error) {
	t, err := r.runTurn(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	return &model.ChatResponse{
		ConversationID:   t.conv.ID,
		MessageID:        t.reply.ID,
		Content:          t.reply.Content,
		Intent:           t.reply.Intent,
		AgentName:        t.reply.AgentName,
		State:            t.conv.State,
		Attachments:      t.reply.Attachments,
		SuggestedActions: t.reply.SuggestedActions,
		CreatedAt:        t.reply.CreatedAt,
	}, nil
}

// HandleTurnStream processes one user message and replays the committed
// reply through emit as an ordered event sequence. The turn is persisted
// before the first event goes out, so a dropped client never loses a turn:
// reconnecting and listing messages shows the full reply.
func (r *Router) HandleTurnStream(ctx context.Context, userID string, req model.ChatRequest, emit func(model.StreamEvent) error) error {
	t, err := r.runTurn(ctx, userID, req)
	if err != nil {
		code := "internal"
		switch {
		case errors.Is(err, ErrEmptyMessage):
			code = "invalid_request"
		case errors.Is(err, ErrConversationNotFound):
			code = "not_found"
		default:
			r.log.Error("turn failed", "error", err)
		}
		return emit(model.StreamEvent{Type: model.StreamEventError, Data: model.ErrorEvent{
			Code:    code,
			Message: publicErrorMessage(err),
		}})
	}

	if err := emit(model.StreamEvent{Type: model.StreamEventMeta, Data: model.MetaEvent{
		ConversationID: t.conv.ID,
		UserMessageID:  t.userMessage.ID,
	}}); err != nil {
		return err
	}

	for i, chunk := range chunkText(t.reply.Content, tokenChunkRunes) {
		if ctx.Err() != nil {
			// Client gone; the turn is already durable.
			return nil
		}
		if err := emit(model.StreamEvent{Type: model.StreamEventToken, Data: model.TokenEvent{Token: chunk, Index: i}}); err != nil {
			return err
		}
	}

	if len(t.reply.Attachments) > 0 {
		if err := emit(model.StreamEvent{Type: model.StreamEventAttachments, Data: model.AttachmentsEvent{Attachments: t.reply.Attachments}}); err != nil {
			return err
		}
	}
	if len(t.reply.SuggestedActions) > 0 {
		if err := emit(model.StreamEvent{Type: model.StreamEventSuggestedActions, Data: model.SuggestedActionsEvent{SuggestedActions: t.reply.SuggestedActions}}); err != nil {
			return err
		}
	}

	return emit(model.StreamEvent{Type: model.StreamEventDone, Data: model.DoneEvent{
		MessageID: t.reply.ID,
		Content:   t.reply.Content,
		Intent:    t.reply.Intent,
		AgentName: t.reply.AgentName,
		State:     t.conv.State,
	}})
}

// runTurn is the shared pipeline behind both entry points. It holds the
// per-conversation lock for the whole turn.
func (r *Router) runTurn(ctx context.Context, userID string, req model.ChatRequest) (*turn, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	convID := req.ConversationID
	fresh := convID == ""
	if fresh {
		convID = newID()
	}

	unlock := r.locks.Lock(convID)
	defer unlock()

	start := r.now()

	conv, err := r.loadOrCreate(ctx, userID, convID, fresh, req.Channel, start)
	if err != nil {
		return nil, err
	}

	res := r.classifier.Classify(ctx, text, conv.State)
	in := res.Intent
	if in == model.IntentUnknown && conv.State.Step != "" && conv.State.CurrentIntent.Valid() && conv.State.CurrentIntent != model.IntentUnknown {
		// An unparsed answer to a pending question stays in that flow so the
		// question can be re-asked, instead of derailing to unknown.
		in = conv.State.CurrentIntent
	}
	if in != model.IntentUnknown {
		conv.State.CurrentIntent = in
	}

	transient, invalidSlot := r.mergeSlots(&conv.State, res.Slots)

	// The pending question, if any, is either answered now or re-asked
	// below; either way the old step no longer applies.
	conv.State.Step = ""

	result, agentName := r.dispatch(ctx, conv, in, text, transient, invalidSlot)

	if result.StatePatch != nil {
		result.StatePatch.Apply(&conv.State)
		if result.StatePatch.LastOfferIDs != nil {
			// The offer list changed or was cleared; any remembered ordinal
			// refers to the old list.
			delete(conv.State.Slots, model.SlotSelectedOfferIndex)
		}
	}
	if result.FollowUpStep != "" {
		conv.State.Step = result.FollowUpStep
	} else if in == model.IntentFlightSearch && len(conv.State.LastOfferIDs) > 0 {
		conv.State.Step = stepAwaitingOfferChoice
	}

	t, err := r.commit(ctx, conv, in, agentName, text, result, start)

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case agentName == routerAgentName:
		outcome = "clarification"
	}
	metrics.RecordTurn(string(in), outcome, agentName, r.now().Sub(start).Seconds())

	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Router) loadOrCreate(ctx context.Context, userID, convID string, fresh bool, channel string, now time.Time) (*model.Conversation, error) {
	if fresh {
		if channel == "" {
			channel = defaultChannel
		}
		return &model.Conversation{
			ID:        convID,
			UserID:    userID,
			Channel:   channel,
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	}

	conv, err := r.store.LoadConversation(ctx, convID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conv.UserID != userID {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

// mergeSlots validates each extracted slot and writes the good ones into
// state, last write wins. The reserved selected_offer_index slot is returned
// separately: it binds to the current offer list and is only persisted while
// a booking follow-up is pending. The first invalid slot key, in sorted
// order, is returned for clarification; invalid values are discarded and
// never overwrite prior valid state.
func (r *Router) mergeSlots(state *model.State, slots map[string]string) (transient map[string]string, invalidSlot string) {
	transient = map[string]string{}

	keys := make([]string, 0, len(slots))
	for k := range slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		validated, err := intent.ValidateSlot(key, slots[key], r.now())
		if err != nil {
			if errors.Is(err, intent.ErrUnknownSlot) {
				continue
			}
			r.log.Debug("discarding invalid slot", "slot", key, "error", err)
			if invalidSlot == "" {
				invalidSlot = key
			}
			continue
		}
		if key == model.SlotSelectedOfferIndex {
			transient[key] = validated
			continue
		}
		state.SetSlot(key, validated)
	}
	return transient, invalidSlot
}

// dispatch runs the completeness check for the classified intent and either
// asks for the next missing piece or delegates to a sub-agent.
func (r *Router) dispatch(ctx context.Context, conv *model.Conversation, in model.Intent, text string, transient map[string]string, invalidSlot string) (agent.Result, string) {
	if invalidSlot != "" && invalidSlot != model.SlotSelectedOfferIndex {
		return r.clarify(&conv.State, invalidSlot, true), routerAgentName
	}

	switch in {
	case model.IntentFlightSearch:
		if missing := intent.MissingSlots(in, conv.State); len(missing) > 0 {
			return r.clarify(&conv.State, missing[0], false), routerAgentName
		}
		adults, _ := strconv.Atoi(conv.State.Slot(model.SlotAdults))
		return r.flight.Search(ctx, model.SearchRequest{
			Origin:      conv.State.Slot(model.SlotOrigin),
			Destination: conv.State.Slot(model.SlotDestination),
			DepartDate:  conv.State.Slot(model.SlotDepartDate),
			ReturnDate:  conv.State.Slot(model.SlotReturnDate),
			Adults:      adults,
			TravelClass: model.TravelClass(conv.State.Slot(model.SlotTravelClass)),
			Currency:    defaultCurrency,
		}), r.flight.Name()

	case model.IntentBookFlight:
		return r.dispatchBooking(ctx, conv, transient)

	case model.IntentCancelBooking:
		if conv.State.Slot(model.SlotBookingID) == "" {
			if conv.State.LastBookingID != "" {
				conv.State.SetSlot(model.SlotBookingID, conv.State.LastBookingID)
			} else {
				return r.clarify(&conv.State, model.SlotBookingID, false), routerAgentName
			}
		}
		bookingID := conv.State.Slot(model.SlotBookingID)
		res := r.flight.Cancel(ctx, conv.UserID, bookingID)
		// A repeated "cancel" should ask or re-resolve, not replay this id.
		delete(conv.State.Slots, model.SlotBookingID)
		return res, r.flight.Name()

	case model.IntentViewPassengers:
		return r.assistant.ListPassengers(ctx, conv.UserID), r.assistant.Name()
	case model.IntentViewBooking:
		return r.assistant.ListBookings(ctx, conv.UserID, ""), r.assistant.Name()
	case model.IntentViewPreferences:
		return r.assistant.GetPreferences(ctx, conv.UserID), r.assistant.Name()
	case model.IntentAskItinerary:
		return r.assistant.ListCalendarEvents(ctx, conv.UserID), r.assistant.Name()
	case model.IntentProfileUpdate:
		return r.assistant.ProfileUpdate(ctx, text), r.assistant.Name()
	default:
		history, err := r.store.Messages(ctx, conv.ID, historyWindow)
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			r.log.Warn("history load failed", "conversation_id", conv.ID, "error", err)
		}
		return r.assistant.AnswerGeneral(ctx, text, history), r.assistant.Name()
	}
}

// dispatchBooking resolves the ordinal against the last offer list. A bad
// or missing reference yields a clarification with offers and prior slots
// untouched, never a provider call.
func (r *Router) dispatchBooking(ctx context.Context, conv *model.Conversation, transient map[string]string) (agent.Result, string) {
	state := &conv.State

	if len(state.LastOfferIDs) == 0 {
		state.Step = ""
		return agent.Result{
			Text: "I don't have a current list of offers to book from. Tell me where you want to fly and I'll search first.",
		}, routerAgentName
	}

	idxStr := transient[model.SlotSelectedOfferIndex]
	if idxStr == "" {
		idxStr = state.Slot(model.SlotSelectedOfferIndex)
	}
	if idxStr == "" {
		state.Step = stepAwaitingOfferChoice
		metrics.ClarificationsTotal.WithLabelValues(model.SlotSelectedOfferIndex).Inc()
		return agent.Result{
			Text: fmt.Sprintf("Which option would you like to book? Reply with a number from 1 to %d.", len(state.LastOfferIDs)),
		}, routerAgentName
	}

	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 || idx >= len(state.LastOfferIDs) {
		state.Step = stepAwaitingOfferChoice
		metrics.ClarificationsTotal.WithLabelValues(model.SlotSelectedOfferIndex).Inc()
		return agent.Result{
			Text: fmt.Sprintf("That option doesn't exist. I showed %d options; reply with a number from 1 to %d.",
				len(state.LastOfferIDs), len(state.LastOfferIDs)),
		}, routerAgentName
	}

	offerID := state.LastOfferIDs[idx]
	passengerID := state.Slot(model.SlotPassengerID)
	if passengerID == "" {
		passengerID = state.SelectedPassengerID
	}

	res := r.flight.Book(ctx, conv.UserID, offerID, passengerID)
	if res.FollowUpStep != "" {
		// Remember the chosen offer so the follow-up answer can finish the
		// booking without the user repeating the ordinal.
		state.SetSlot(model.SlotSelectedOfferIndex, strconv.Itoa(idx))
	} else {
		delete(state.Slots, model.SlotSelectedOfferIndex)
		delete(state.Slots, model.SlotPassengerID)
	}
	return res, r.flight.Name()
}

// clarify asks for exactly one slot and records the pending question in
// state.step.
func (r *Router) clarify(state *model.State, slot string, invalid bool) agent.Result {
	state.Step = "awaiting_" + slot
	metrics.ClarificationsTotal.WithLabelValues(slot).Inc()

	question, actions := slotQuestion(slot)
	text := question
	if invalid {
		text = fmt.Sprintf("Sorry, I couldn't use that %s. %s", slotNoun(slot), question)
	}
	return agent.Result{Text: text, SuggestedActions: actions}
}

func slotQuestion(slot string) (string, []model.SuggestedAction) {
	switch slot {
	case model.SlotOrigin:
		return "Which city are you flying from?", nil
	case model.SlotDestination:
		return "Which city are you flying to?", nil
	case model.SlotDepartDate:
		return "What date would you like to depart? For example 2026-09-15 or 20/12.", nil
	case model.SlotReturnDate:
		return "What date would you like to return?", nil
	case model.SlotAdults:
		return "How many adult passengers (1-9)?", nil
	case model.SlotTravelClass:
		return "Which cabin class would you like?", []model.SuggestedAction{
			{Label: "Economy", Payload: "economy", Type: "quick_reply"},
			{Label: "Business", Payload: "business", Type: "quick_reply"},
		}
	case model.SlotBookingID:
		return "Which booking should I cancel? Paste the booking id, or say \"my bookings\" to see them.", nil
	case model.SlotPassengerID:
		return "Which passenger is this for?", nil
	default:
		return "Could you give me a bit more detail?", nil
	}
}

func slotNoun(slot string) string {
	switch slot {
	case model.SlotOrigin:
		return "departure city"
	case model.SlotDestination:
		return "destination city"
	case model.SlotDepartDate, model.SlotReturnDate:
		return "date"
	case model.SlotAdults:
		return "passenger count"
	case model.SlotTravelClass:
		return "cabin class"
	case model.SlotBookingID:
		return "booking id"
	case model.SlotPassengerID:
		return "passenger id"
	default:
		return "value"
	}
}

// commit appends both turn messages and saves the conversation. Nothing is
// sent to the caller until this succeeds.
func (r *Router) commit(ctx context.Context, conv *model.Conversation, in model.Intent, agentName, text string, result agent.Result, start time.Time) (*turn, error) {
	now := r.now()

	userMsg := &model.Message{
		ID:             newID(),
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        text,
		CreatedAt:      start,
	}
	reply := &model.Message{
		ID:               newID(),
		ConversationID:   conv.ID,
		Role:             model.RoleAssistant,
		Content:          result.Text,
		Intent:           in,
		AgentName:        agentName,
		Attachments:      result.Attachments,
		SuggestedActions: result.SuggestedActions,
		CreatedAt:        now,
	}
	conv.UpdatedAt = now

	if err := r.store.SaveConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}
	if err := r.store.AppendMessage(ctx, conv.ID, userMsg); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}
	if err := r.store.AppendMessage(ctx, conv.ID, reply); err != nil {
		return nil, fmt.Errorf("append reply: %w", err)
	}

	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser)).Inc()
	metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant)).Inc()

	return &turn{conv: conv, userMessage: userMsg, reply: reply}, nil
}

func publicErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyMessage):
		return "Message must not be empty."
	case errors.Is(err, ErrConversationNotFound):
		return "Conversation not found."
	default:
		return "Something went wrong processing your message. Please try again."
	}
}

// chunkText splits s into chunks of at most n runes.
func chunkText(s string, n int) []string {
	if s == "" {
		return nil
	}
	runes := []rune(s)
	chunks := make([]string, 0, (len(runes)+n-1)/n)
	for start := 0; start < len(runes); start += n {
		end := start + n
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
