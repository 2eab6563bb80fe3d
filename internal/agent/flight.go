package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/voyago-ai/flight-concierge/internal/model"
	"github.com/voyago-ai/flight-concierge/internal/tools"
	"github.com/voyago-ai/flight-concierge/pkg/logger"
	"github.com/voyago-ai/flight-concierge/pkg/metrics"
)

// maxOffersShown caps how many offers one reply presents and therefore how
// many ordinals a later "book option N" can reference.
const maxOffersShown = 5

// FlightAgent owns the search, booking and cancellation sub-flow. It is
// invoked only after the router has validated the required slots.
type FlightAgent struct {
	provider  tools.FlightProvider
	directory tools.TravelerDirectory
	log       *logger.Logger
}

// NewFlightAgent creates a flight agent.
func NewFlightAgent(provider tools.FlightProvider, directory tools.TravelerDirectory, log *logger.Logger) *FlightAgent {
	return &FlightAgent{provider: provider, directory: directory, log: log}
}

// Name identifies this agent in message annotations.
func (a *FlightAgent) Name() string { return "flight_agent" }

// Search runs a flight search and returns a numbered offer list. Provider
// failures become an apologetic zero-result reply, never an error: the user
// should always get a natural-language answer.
func (a *FlightAgent) Search(ctx context.Context, req model.SearchRequest) Result {
	offers, err := a.provider.SearchFlights(ctx, req)
	if err != nil {
		a.log.Warn("flight search failed", "origin", req.Origin, "destination", req.Destination, "error", err)
		metrics.OfferSearchesTotal.WithLabelValues("provider_error").Inc()
		return Result{
			Text: "Sorry, the flight search service is not responding right now. Please try again in a moment.",
			// Clear stale offers so old ordinals cannot bind to them.
			StatePatch: &StatePatch{LastOfferIDs: []string{}},
		}
	}
	if len(offers) == 0 {
		metrics.OfferSearchesTotal.WithLabelValues("empty").Inc()
		return Result{
			Text: fmt.Sprintf("I couldn't find any flights from %s to %s on %s. Try a different date or a nearby airport.",
				req.Origin, req.Destination, req.DepartDate),
			StatePatch: &StatePatch{LastOfferIDs: []string{}},
		}
	}
	metrics.OfferSearchesTotal.WithLabelValues("ok").Inc()

	if len(offers) > maxOffersShown {
		offers = offers[:maxOffersShown]
	}

	ids := make([]string, len(offers))
	summaries := make([]model.OfferSummary, len(offers))
	actions := make([]model.SuggestedAction, 0, len(offers))

	var b strings.Builder
	fmt.Fprintf(&b, "Here are the flights from %s to %s on %s:\n\n", req.Origin, req.Destination, req.DepartDate)
	for i, offer := range offers {
		ids[i] = offer.OfferID
		summaries[i] = model.OfferSummary{
			Index:           i,
			OfferID:         offer.OfferID,
			TotalPrice:      offer.TotalPrice,
			Currency:        offer.Currency,
			DurationMinutes: offer.DurationMinutes,
			Stops:           offer.Stops,
			Segments:        offer.Segments,
		}

		if len(offer.Segments) > 0 {
			seg := offer.Segments[0]
			fmt.Fprintf(&b, "%d. %s %s  %s → %s  %s–%s  %dm, %d stops, %.0f %s\n",
				i+1, seg.AirlineCode, seg.FlightNumber,
				seg.Origin, seg.Destination,
				seg.DepartureTime.Format("15:04"), seg.ArrivalTime.Format("15:04"),
				offer.DurationMinutes, offer.Stops, offer.TotalPrice, offer.Currency)
		} else {
			fmt.Fprintf(&b, "%d. %dm, %d stops, %.0f %s\n",
				i+1, offer.DurationMinutes, offer.Stops, offer.TotalPrice, offer.Currency)
		}

		actions = append(actions, model.SuggestedAction{
			Label:   fmt.Sprintf("Book option %d", i+1),
			Payload: fmt.Sprintf("book option %d", i+1),
			Type:    "quick_reply",
		})
	}
	b.WriteString("\nReply with an option number to book.")

	return Result{
		Text:             b.String(),
		Attachments:      []model.Attachment{{Type: model.AttachmentFlightOffers, Offers: summaries}},
		SuggestedActions: actions,
		StatePatch:       &StatePatch{LastOfferIDs: ids},
	}
}

// Book attempts a booking. When passengerID is empty the agent resolves one
// from the user's preferences or passenger list; if it cannot, it asks a
// follow-up instead of failing. Structured provider rejections are surfaced
// verbatim as clarification text; the agent never retries on its own since
// an expired offer stays expired.
func (a *FlightAgent) Book(ctx context.Context, userID, offerID, passengerID string) Result {
	if userID == "" {
		return Result{Text: "Booking requires a signed-in account. Please sign in and try again."}
	}

	if passengerID == "" {
		resolved, followUp := a.resolvePassenger(ctx, userID)
		if followUp != nil {
			return *followUp
		}
		passengerID = resolved
	}

	res, err := a.provider.CreateBooking(ctx, userID, offerID, passengerID)
	if err != nil {
		a.log.Error("booking call failed", "offer_id", offerID, "error", err)
		metrics.BookingsTotal.WithLabelValues("provider_error").Inc()
		return Result{Text: "Sorry, the booking service is not responding right now. Your flight has not been booked; please try again."}
	}

	if res.Failure != tools.BookingFailureNone {
		metrics.BookingsTotal.WithLabelValues(string(res.Failure)).Inc()
		switch res.Failure {
		case tools.BookingFailureOfferExpired, tools.BookingFailureOfferInvalid:
			return Result{
				Text: "That offer is no longer available. Fares change quickly; please run the search again and pick a fresh option.",
				// Invalidate stale ordinals.
				StatePatch: &StatePatch{LastOfferIDs: []string{}},
			}
		case tools.BookingFailurePassengerNotOwned, tools.BookingFailurePassengerInvalid:
			return Result{
				Text:         "I couldn't use that passenger profile. Which passenger should I book for?",
				FollowUpStep: "awaiting_" + model.SlotPassengerID,
			}
		default:
			return Result{Text: fmt.Sprintf("The booking was rejected (%s). Please check the details and try again.", res.Failure)}
		}
	}

	booking := res.Booking
	metrics.BookingsTotal.WithLabelValues("ok").Inc()
	a.log.Info("booking created", "booking_id", booking.ID, "reference", booking.Reference)

	var b strings.Builder
	fmt.Fprintf(&b, "Your booking is %s. Reference: %s.\n", strings.ToLower(string(booking.Status)), booking.Reference)
	for _, f := range booking.Flights {
		fmt.Fprintf(&b, "%s %s  %s → %s  departing %s\n",
			f.AirlineCode, f.FlightNumber, f.Origin, f.Destination,
			f.DepartureTime.Format("Mon 2 Jan 15:04"))
	}

	return Result{
		Text: b.String(),
		Attachments: []model.Attachment{{
			Type: model.AttachmentBookingSuccess,
			Booking: &model.BookingSummary{
				BookingID: booking.ID,
				Reference: booking.Reference,
				Status:    booking.Status,
				Flights:   booking.Flights,
			},
		}},
		SuggestedActions: []model.SuggestedAction{{
			Label:   "Add to itinerary",
			Payload: fmt.Sprintf("add booking %s to my itinerary", booking.ID),
			Type:    "calendar",
			Icon:    "calendar",
		}},
		StatePatch: &StatePatch{
			LastBookingID:       booking.ID,
			SelectedPassengerID: passengerID,
			// Offers are consumed by a successful booking.
			LastOfferIDs: []string{},
		},
	}
}

// Cancel cancels a booking. An already-terminal booking yields an
// informative reply, not an error.
func (a *FlightAgent) Cancel(ctx context.Context, userID, bookingID string) Result {
	if userID == "" {
		return Result{Text: "Cancelling a booking requires a signed-in account. Please sign in and try again."}
	}

	res, err := a.provider.CancelBooking(ctx, userID, bookingID)
	if err != nil {
		a.log.Error("cancel call failed", "booking_id", bookingID, "error", err)
		return Result{Text: "Sorry, I couldn't reach the booking service. The booking has not been changed; please try again."}
	}

	switch res.Failure {
	case tools.CancelFailureNone:
		return Result{Text: fmt.Sprintf("Done. The booking has been cancelled (status: %s).", res.Status)}
	case tools.CancelFailureAlreadyTerminal:
		return Result{Text: fmt.Sprintf("That booking is already %s, so there's nothing to cancel.", strings.ToLower(string(res.Status)))}
	case tools.CancelFailureNotFound, tools.CancelFailureNotOwned:
		return Result{Text: "I couldn't find that booking on your account. You can say \"my bookings\" to list them."}
	default:
		return Result{Text: fmt.Sprintf("The cancellation was rejected (%s).", res.Failure)}
	}
}

// resolvePassenger picks the passenger to book for: the user's default from
// preferences, else their only registered passenger. With zero or several
// candidates it returns a follow-up asking the user to choose.
func (a *FlightAgent) resolvePassenger(ctx context.Context, userID string) (string, *Result) {
	if prefs, err := a.directory.Preferences(ctx, userID); err == nil && prefs != nil && prefs.DefaultPassengerID != "" {
		return prefs.DefaultPassengerID, nil
	}

	passengers, err := a.directory.Passengers(ctx, userID)
	if err != nil {
		a.log.Warn("passenger lookup failed", "error", err)
		return "", &Result{Text: "I couldn't load your passenger profiles. Please try again in a moment."}
	}

	switch len(passengers) {
	case 0:
		return "", &Result{
			Text: "There's no passenger profile on your account yet. Please add one before booking.",
		}
	case 1:
		return passengers[0].ID, nil
	default:
		actions := make([]model.SuggestedAction, 0, len(passengers))
		var b strings.Builder
		b.WriteString("Who is this booking for?\n")
		for i, p := range passengers {
			fmt.Fprintf(&b, "%d. %s\n", i+1, p.FullName)
			actions = append(actions, model.SuggestedAction{
				Label:   p.FullName,
				Payload: p.ID,
				Type:    "quick_reply",
			})
		}
		return "", &Result{
			Text:             b.String(),
			SuggestedActions: actions,
			FollowUpStep:     "awaiting_" + model.SlotPassengerID,
		}
	}
}
