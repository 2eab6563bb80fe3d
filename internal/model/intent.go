package model

// Intent is the classified purpose of a user utterance.
type Intent string

const (
	IntentFlightSearch    Intent = "flight_search"
	IntentBookFlight      Intent = "book_flight"
	IntentViewBooking     Intent = "view_booking"
	IntentCancelBooking   Intent = "cancel_booking"
	IntentViewPassengers  Intent = "view_passengers"
	IntentViewPreferences Intent = "view_preferences"
	IntentAskItinerary    Intent = "ask_itinerary"
	IntentProfileUpdate   Intent = "profile_update"
	IntentGeneralQuestion Intent = "general_question"
	IntentUnknown         Intent = "unknown"
)

// Intents lists every valid intent value.
var Intents = []Intent{
	IntentFlightSearch,
	IntentBookFlight,
	IntentViewBooking,
	IntentCancelBooking,
	IntentViewPassengers,
	IntentViewPreferences,
	IntentAskItinerary,
	IntentProfileUpdate,
	IntentGeneralQuestion,
	IntentUnknown,
}

// Valid reports whether the intent is one of the enumerated values.
func (i Intent) Valid() bool {
	for _, v := range Intents {
		if i == v {
			return true
		}
	}
	return false
}

// Slot keys the classifier may extract. SlotSelectedOfferIndex is reserved
// for bare ordinals ("option 2") and is 0-based.
const (
	SlotOrigin             = "origin"
	SlotDestination        = "destination"
	SlotDepartDate         = "depart_date"
	SlotReturnDate         = "return_date"
	SlotAdults             = "adults"
	SlotTravelClass        = "travel_class"
	SlotPassengerID        = "passenger_id"
	SlotBookingID          = "booking_id"
	SlotSelectedOfferIndex = "selected_offer_index"
)
