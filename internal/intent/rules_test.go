package intent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago-ai/flight-concierge/internal/model"
)

func fixedClassifier() *RuleClassifier {
	return &RuleClassifier{Now: func() time.Time { return testNow }}
}

func TestClassifyVietnameseSearch(t *testing.T) {
	t.Parallel()
	c := fixedClassifier()

	res := c.Classify(context.Background(), "Tìm vé HN đi SG ngày 20/12", model.State{})

	assert.Equal(t, model.IntentFlightSearch, res.Intent)
	assert.Equal(t, "HAN", res.Slots[model.SlotOrigin])
	assert.Equal(t, "SGN", res.Slots[model.SlotDestination])
	assert.Equal(t, "2026-12-20", res.Slots[model.SlotDepartDate])
}

func TestClassifyEnglishSearch(t *testing.T) {
	t.Parallel()
	c := fixedClassifier()

	res := c.Classify(context.Background(), "find flight from Hanoi to Da Nang tomorrow for 2 adults, business", model.State{})

	assert.Equal(t, model.IntentFlightSearch, res.Intent)
	assert.Equal(t, "HAN", res.Slots[model.SlotOrigin])
	assert.Equal(t, "DAD", res.Slots[model.SlotDestination])
	assert.Equal(t, "2026-01-16", res.Slots[model.SlotDepartDate])
	assert.Equal(t, "2", res.Slots[model.SlotAdults])
	assert.Equal(t, "BUSINESS", res.Slots[model.SlotTravelClass])
}

func TestClassifyOrdinals(t *testing.T) {
	t.Parallel()
	c := fixedClassifier()

	tests := []struct {
		utterance string
		wantIndex string
	}{
		{"book option 2", "1"},
		{"Đặt chuyến số 2", "1"},
		{"book the first option", "0"},
		{"đặt chuyến thứ ba", "2"},
	}
	for _, tt := range tests {
		res := c.Classify(context.Background(), tt.utterance, model.State{})
		require.Equal(t, model.IntentBookFlight, res.Intent, "utterance %q", tt.utterance)
		assert.Equal(t, tt.wantIndex, res.Slots[model.SlotSelectedOfferIndex], "utterance %q", tt.utterance)
	}
}

func TestClassifyCancelWithID(t *testing.T) {
	t.Parallel()
	c := fixedClassifier()

	id := "0194e6a0-1234-7abc-8def-0123456789ab"
	res := c.Classify(context.Background(), "cancel booking "+id, model.State{})

	assert.Equal(t, model.IntentCancelBooking, res.Intent)
	assert.Equal(t, id, res.Slots[model.SlotBookingID])
}

func TestClassifyContinuation(t *testing.T) {
	t.Parallel()
	c := fixedClassifier()

	state := model.State{
		CurrentIntent: model.IntentFlightSearch,
		Step:          "awaiting_adults",
	}
	res := c.Classify(context.Background(), "2", state)
	require.Equal(t, model.IntentFlightSearch, res.Intent)
	assert.Equal(t, "2", res.Slots[model.SlotAdults])

	state.Step = "awaiting_travel_class"
	res = c.Classify(context.Background(), "business", state)
	require.Equal(t, model.IntentFlightSearch, res.Intent)
	assert.Equal(t, "BUSINESS", res.Slots[model.SlotTravelClass])

	state.Step = "awaiting_depart_date"
	res = c.Classify(context.Background(), "ngày mai", state)
	require.Equal(t, model.IntentFlightSearch, res.Intent)
	assert.Equal(t, "2026-01-16", res.Slots[model.SlotDepartDate])
}

func TestClassifyOfferChoiceContinuation(t *testing.T) {
	t.Parallel()
	c := fixedClassifier()

	state := model.State{
		CurrentIntent: model.IntentFlightSearch,
		Step:          "awaiting_offer_choice",
		LastOfferIDs:  []string{"a", "b", "c"},
	}
	res := c.Classify(context.Background(), "chuyến số 2", state)
	assert.Equal(t, model.IntentBookFlight, res.Intent)
	assert.Equal(t, "1", res.Slots[model.SlotSelectedOfferIndex])
}

func TestClassifyBareNumberWithOffers(t *testing.T) {
	t.Parallel()
	c := fixedClassifier()

	state := model.State{LastOfferIDs: []string{"a", "b"}}
	res := c.Classify(context.Background(), "1", state)
	assert.Equal(t, model.IntentBookFlight, res.Intent)
	assert.Equal(t, "0", res.Slots[model.SlotSelectedOfferIndex])

	// Without prior offers a bare number means nothing.
	res = c.Classify(context.Background(), "1", model.State{})
	assert.Equal(t, model.IntentUnknown, res.Intent)
}

func TestClassifyGreetingAndUnknown(t *testing.T) {
	t.Parallel()
	c := fixedClassifier()

	res := c.Classify(context.Background(), "Xin chào", model.State{})
	assert.Equal(t, model.IntentGeneralQuestion, res.Intent)

	res = c.Classify(context.Background(), "what documents do I need to fly?", model.State{})
	assert.Equal(t, model.IntentGeneralQuestion, res.Intent)

	res = c.Classify(context.Background(), "lorem ipsum dolor", model.State{})
	assert.Equal(t, model.IntentUnknown, res.Intent)
	assert.Empty(t, res.Slots)
}

func TestClassifyViewIntents(t *testing.T) {
	t.Parallel()
	c := fixedClassifier()

	tests := []struct {
		utterance string
		want      model.Intent
	}{
		{"show my bookings", model.IntentViewBooking},
		{"danh sách khách", model.IntentViewPassengers},
		{"what are my preferences", model.IntentViewPreferences},
		{"xem lịch bay của tôi", model.IntentAskItinerary},
		{"update my profile", model.IntentProfileUpdate},
	}
	for _, tt := range tests {
		res := c.Classify(context.Background(), tt.utterance, model.State{})
		assert.Equal(t, tt.want, res.Intent, "utterance %q", tt.utterance)
	}
}

func TestResolveCityDropsNoise(t *testing.T) {
	t.Parallel()

	code, ok := resolveCity("ve hn")
	require.True(t, ok)
	assert.Equal(t, "HAN", code)

	code, ok = resolveCity("sg ngay")
	require.True(t, ok)
	assert.Equal(t, "SGN", code)

	_, ok = resolveCity("ngay mai")
	assert.False(t, ok)

	// A literal IATA code only counts when the user typed it uppercase.
	code, ok = resolveCity("JFK")
	require.True(t, ok)
	assert.Equal(t, "JFK", code)

	_, ok = resolveCity("jfk")
	assert.False(t, ok)

	_, ok = resolveCity("mai")
	assert.False(t, ok)
}
