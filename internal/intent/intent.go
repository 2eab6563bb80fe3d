// Package intent classifies user utterances and validates extracted slots.
package intent

import (
	"context"

	"github.com/voyago-ai/flight-concierge/internal/model"
)

// Result is the outcome of classifying one utterance. Classification never
// fails: unrecognized input yields IntentUnknown with empty slots.
type Result struct {
	Intent     model.Intent      `json:"intent"`
	Slots      map[string]string `json:"slots,omitempty"`
	Confidence float64           `json:"confidence"`
}

// Classifier maps one utterance plus current conversation state to an
// intent and extracted slot values. Implementations must not return
// errors; any internal failure degrades to IntentUnknown.
type Classifier interface {
	Classify(ctx context.Context, utterance string, state model.State) Result
}

// RequiredSlots declares, per intent, the slots that must be filled before
// the router may delegate, in the fixed order they are asked for.
// book_flight is resolved separately: it needs an offer reference plus a
// passenger, not a static slot list.
var RequiredSlots = map[model.Intent][]string{
	model.IntentFlightSearch: {
		model.SlotOrigin,
		model.SlotDestination,
		model.SlotDepartDate,
		model.SlotAdults,
		model.SlotTravelClass,
	},
	model.IntentCancelBooking: {model.SlotBookingID},
}

// MissingSlots returns the declared slots not yet validly filled, in
// declaration order.
func MissingSlots(in model.Intent, state model.State) []string {
	var missing []string
	for _, key := range RequiredSlots[in] {
		if state.Slot(key) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
