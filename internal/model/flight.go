package model

import (
	"time"
)

// TravelClass is the cabin class for a search.
type TravelClass string

const (
	TravelClassEconomy  TravelClass = "ECONOMY"
	TravelClassBusiness TravelClass = "BUSINESS"
)

// SearchRequest describes one flight search. Dates are YYYY-MM-DD.
type SearchRequest struct {
	Origin      string      `json:"origin"`
	Destination string      `json:"destination"`
	DepartDate  string      `json:"depart_date"`
	ReturnDate  string      `json:"return_date,omitempty"`
	Adults      int         `json:"adults"`
	TravelClass TravelClass `json:"travel_class"`
	Currency    string      `json:"currency"`
}

// FlightSegment is one leg of an itinerary.
type FlightSegment struct {
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	AirlineCode   string    `json:"airline_code"`
	FlightNumber  string    `json:"flight_number"`
}

// FlightOffer is a priced, time-bound itinerary candidate returned by the
// search provider. OfferID is opaque to the core.
type FlightOffer struct {
	OfferID         string          `json:"offer_id"`
	TotalPrice      float64         `json:"total_price"`
	Currency        string          `json:"currency"`
	DurationMinutes int             `json:"duration_minutes"`
	Stops           int             `json:"stops"`
	Segments        []FlightSegment `json:"segments"`
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingFailed    BookingStatus = "FAILED"
	BookingRefunded  BookingStatus = "REFUNDED"
)

// Cancellable reports whether a booking in this status may still be
// cancelled.
func (s BookingStatus) Cancellable() bool {
	return s == BookingPending || s == BookingConfirmed
}

// Booking is a booking record as read back from the booking collaborator.
type Booking struct {
	ID          string          `json:"id"`
	Reference   string          `json:"reference"`
	Status      BookingStatus   `json:"status"`
	PassengerID string          `json:"passenger_id"`
	TotalPrice  float64         `json:"total_price,omitempty"`
	Currency    string          `json:"currency,omitempty"`
	Flights     []FlightSegment `json:"flights,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Passenger is a traveler profile owned by a user.
type Passenger struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Document    string `json:"document,omitempty"`
}

// Preferences are a user's saved travel preferences.
type Preferences struct {
	DefaultPassengerID string      `json:"default_passenger_id,omitempty"`
	PreferredClass     TravelClass `json:"preferred_class,omitempty"`
	PreferredAirline   string      `json:"preferred_airline,omitempty"`
	HomeAirport        string      `json:"home_airport,omitempty"`
}

// CalendarEvent is a flight itinerary entry on the user's calendar.
type CalendarEvent struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id,omitempty"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
}
