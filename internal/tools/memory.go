package tools

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voyago-ai/flight-concierge/internal/model"
)

// InMemory is a deterministic provider + directory backed by maps. It stands
// in for the real Amadeus-style collaborator in local runs and tests (a
// production deployment swaps in HTTP-backed implementations).
type InMemory struct {
	mu         sync.RWMutex
	offers     map[string]model.FlightOffer // issued, not yet expired
	bookings   map[string]*model.Booking
	owners     map[string]string // bookingID -> userID
	passengers map[string][]model.Passenger
	prefs      map[string]*model.Preferences
	events     map[string][]model.CalendarEvent
}

// NewInMemory creates an empty in-memory provider.
func NewInMemory() *InMemory {
	return &InMemory{
		offers:     make(map[string]model.FlightOffer),
		bookings:   make(map[string]*model.Booking),
		owners:     make(map[string]string),
		passengers: make(map[string][]model.Passenger),
		prefs:      make(map[string]*model.Preferences),
		events:     make(map[string][]model.CalendarEvent),
	}
}

var airlines = []struct{ code, name string }{
	{"VJ", "VietJet"},
	{"VN", "Vietnam Airlines"},
	{"QH", "Bamboo"},
}

// SearchFlights generates a stable set of offers for a route and date. The
// same request always yields the same flight numbers and prices; offer ids
// are fresh per search, mirroring real providers.
func (m *InMemory) SearchFlights(_ context.Context, req model.SearchRequest) ([]model.FlightOffer, error) {
	depart, err := time.Parse("2006-01-02", req.DepartDate)
	if err != nil {
		return nil, fmt.Errorf("bad depart date %q: %w", req.DepartDate, err)
	}

	seed := routeSeed(req.Origin, req.Destination, req.DepartDate)
	base := 890000.0 + float64(seed%7)*120000.0
	if req.TravelClass == model.TravelClassBusiness {
		base *= 2.6
	}

	offers := make([]model.FlightOffer, 0, 3)
	for i, al := range airlines {
		dep := depart.Add(time.Duration(6+4*i) * time.Hour)
		dur := 110 + int(seed%20) + 10*i
		offer := model.FlightOffer{
			OfferID:         uuid.Must(uuid.NewV7()).String(),
			TotalPrice:      (base + float64(i)*95000.0) * float64(req.Adults),
			Currency:        req.Currency,
			DurationMinutes: dur,
			Stops:           0,
			Segments: []model.FlightSegment{{
				Origin:        req.Origin,
				Destination:   req.Destination,
				DepartureTime: dep,
				ArrivalTime:   dep.Add(time.Duration(dur) * time.Minute),
				AirlineCode:   al.code,
				FlightNumber:  fmt.Sprintf("%s%d", al.code, 100+int(seed%800)+i),
			}},
		}
		offers = append(offers, offer)
	}

	m.mu.Lock()
	for _, o := range offers {
		m.offers[o.OfferID] = o
	}
	m.mu.Unlock()

	return offers, nil
}

// CreateBooking books an issued offer for an owned passenger.
func (m *InMemory) CreateBooking(_ context.Context, userID, offerID, passengerID string) (*BookingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	offer, ok := m.offers[offerID]
	if !ok {
		return &BookingResult{Failure: BookingFailureOfferInvalid}, nil
	}
	if len(offer.Segments) > 0 && time.Now().After(offer.Segments[0].DepartureTime) {
		return &BookingResult{Failure: BookingFailureOfferExpired}, nil
	}

	owned := false
	for _, p := range m.passengers[userID] {
		if p.ID == passengerID {
			owned = true
			break
		}
	}
	if !owned {
		for _, ps := range m.passengers {
			for _, p := range ps {
				if p.ID == passengerID {
					return &BookingResult{Failure: BookingFailurePassengerNotOwned}, nil
				}
			}
		}
		return &BookingResult{Failure: BookingFailurePassengerInvalid}, nil
	}

	booking := &model.Booking{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Reference:   reference(offerID),
		Status:      model.BookingConfirmed,
		PassengerID: passengerID,
		TotalPrice:  offer.TotalPrice,
		Currency:    offer.Currency,
		Flights:     offer.Segments,
		CreatedAt:   time.Now(),
	}
	m.bookings[booking.ID] = booking
	m.owners[booking.ID] = userID

	// A booked offer cannot be booked twice.
	delete(m.offers, offerID)

	return &BookingResult{Booking: booking}, nil
}

// CancelBooking cancels a PENDING or CONFIRMED booking.
func (m *InMemory) CancelBooking(_ context.Context, userID, bookingID string) (*CancelResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	booking, ok := m.bookings[bookingID]
	if !ok {
		return &CancelResult{Failure: CancelFailureNotFound}, nil
	}
	if m.owners[bookingID] != userID {
		return &CancelResult{Failure: CancelFailureNotOwned}, nil
	}
	if !booking.Status.Cancellable() {
		return &CancelResult{Status: booking.Status, Failure: CancelFailureAlreadyTerminal}, nil
	}

	booking.Status = model.BookingCancelled
	return &CancelResult{Status: booking.Status}, nil
}

// Passengers implements TravelerDirectory.
func (m *InMemory) Passengers(_ context.Context, userID string) ([]model.Passenger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Passenger(nil), m.passengers[userID]...), nil
}

// Bookings implements TravelerDirectory.
func (m *InMemory) Bookings(_ context.Context, userID string, statusFilter model.BookingStatus) ([]model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Booking
	for id, b := range m.bookings {
		if m.owners[id] != userID {
			continue
		}
		if statusFilter != "" && b.Status != statusFilter {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

// Preferences implements TravelerDirectory.
func (m *InMemory) Preferences(_ context.Context, userID string) (*model.Preferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.prefs[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

// CalendarEvents implements TravelerDirectory.
func (m *InMemory) CalendarEvents(_ context.Context, userID string) ([]model.CalendarEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.CalendarEvent(nil), m.events[userID]...), nil
}

// AddPassenger registers a passenger profile for a user.
func (m *InMemory) AddPassenger(userID string, p model.Passenger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passengers[userID] = append(m.passengers[userID], p)
}

// SetPreferences stores a user's preferences.
func (m *InMemory) SetPreferences(userID string, p model.Preferences) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[userID] = &p
}

// AddCalendarEvent stores a calendar event for a user.
func (m *InMemory) AddCalendarEvent(userID string, e model.CalendarEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[userID] = append(m.events[userID], e)
}

// SeedBooking injects an existing booking, for tests and demos.
func (m *InMemory) SeedBooking(userID string, b model.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := b
	m.bookings[b.ID] = &cp
	m.owners[b.ID] = userID
}

// ExpireOffer drops an issued offer so later booking attempts fail with
// offer_invalid. Used to simulate provider-side expiry.
func (m *InMemory) ExpireOffer(offerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.offers, offerID)
}

func routeSeed(origin, destination, date string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(origin + "|" + destination + "|" + date))
	return h.Sum32()
}

func reference(offerID string) string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	h := fnv.New32a()
	h.Write([]byte(offerID))
	v := h.Sum32()
	var b strings.Builder
	for i := 0; i < 6; i++ {
		b.WriteByte(alphabet[v%uint32(len(alphabet))])
		v /= uint32(len(alphabet))
	}
	return b.String()
}
