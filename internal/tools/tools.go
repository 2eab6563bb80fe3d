// Package tools defines the adapter contracts for external collaborators:
// the flight search/booking provider and the traveler data read-throughs.
// The orchestration core depends only on these interfaces.
package tools

import (
	"context"

	"github.com/voyago-ai/flight-concierge/internal/model"
)

// BookingFailure is a structured reason a booking attempt was rejected.
// Empty means the booking succeeded.
type BookingFailure string

const (
	BookingFailureNone              BookingFailure = ""
	BookingFailureOfferInvalid      BookingFailure = "offer_invalid"
	BookingFailureOfferExpired      BookingFailure = "offer_expired"
	BookingFailurePassengerInvalid  BookingFailure = "passenger_invalid"
	BookingFailurePassengerNotOwned BookingFailure = "passenger_not_owned"
)

// CancelFailure is a structured reason a cancellation was rejected.
type CancelFailure string

const (
	CancelFailureNone            CancelFailure = ""
	CancelFailureNotFound        CancelFailure = "not_found"
	CancelFailureNotOwned        CancelFailure = "not_owned"
	CancelFailureAlreadyTerminal CancelFailure = "already_terminal"
)

// BookingResult is the outcome of a booking attempt. Exactly one of Booking
// or Failure is meaningful.
type BookingResult struct {
	Booking *model.Booking
	Failure BookingFailure
}

// CancelResult is the outcome of a cancellation attempt.
type CancelResult struct {
	Status  model.BookingStatus
	Failure CancelFailure
}

// FlightProvider is the flight search and booking collaborator. Errors
// signal transport/provider outages; business rejections come back as
// structured failures, not errors.
type FlightProvider interface {
	// SearchFlights returns offers in provider order. That order is the
	// basis for later ordinal resolution by the router.
	SearchFlights(ctx context.Context, req model.SearchRequest) ([]model.FlightOffer, error)

	// CreateBooking books an offer for a passenger owned by userID. The
	// provider is responsible for deduplicating retried attempts.
	CreateBooking(ctx context.Context, userID, offerID, passengerID string) (*BookingResult, error)

	// CancelBooking cancels a booking if its status still permits it.
	CancelBooking(ctx context.Context, userID, bookingID string) (*CancelResult, error)
}

// TravelerDirectory is the read-only collaborator for traveler data. The
// core does not cache any of these reads.
type TravelerDirectory interface {
	Passengers(ctx context.Context, userID string) ([]model.Passenger, error)
	Bookings(ctx context.Context, userID string, statusFilter model.BookingStatus) ([]model.Booking, error)
	// Preferences returns nil when the user has no saved preferences.
	Preferences(ctx context.Context, userID string) (*model.Preferences, error)
	CalendarEvents(ctx context.Context, userID string) ([]model.CalendarEvent, error)
}
