package intent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago-ai/flight-concierge/internal/model"
)

var testNow = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func TestValidateSlotCities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  string
	}{
		{"Hà Nội", "HAN"},
		{"ha noi", "HAN"},
		{"SGN", "SGN"},
		{"sgn", "SGN"},
		{"đà nẵng", "DAD"},
		{"bangkok", "BKK"},
	}
	for _, tt := range tests {
		got, err := ValidateSlot(model.SlotOrigin, tt.value, testNow)
		require.NoError(t, err, "value %q", tt.value)
		assert.Equal(t, tt.want, got)
	}

	_, err := ValidateSlot(model.SlotDestination, "atlantis", testNow)
	assert.Error(t, err)
	_, err = ValidateSlot(model.SlotOrigin, "", testNow)
	assert.Error(t, err)
}

func TestValidateSlotDates(t *testing.T) {
	t.Parallel()

	got, err := ValidateSlot(model.SlotDepartDate, "2026-12-20", testNow)
	require.NoError(t, err)
	assert.Equal(t, "2026-12-20", got)

	// Today is valid, yesterday is not.
	_, err = ValidateSlot(model.SlotDepartDate, "2026-01-15", testNow)
	assert.NoError(t, err)
	_, err = ValidateSlot(model.SlotDepartDate, "2026-01-14", testNow)
	assert.Error(t, err)

	_, err = ValidateSlot(model.SlotReturnDate, "20/12/2026", testNow)
	assert.Error(t, err, "non-ISO forms are rejected at validation")
	_, err = ValidateSlot(model.SlotDepartDate, "soon", testNow)
	assert.Error(t, err)
}

func TestValidateSlotAdults(t *testing.T) {
	t.Parallel()

	got, err := ValidateSlot(model.SlotAdults, "3", testNow)
	require.NoError(t, err)
	assert.Equal(t, "3", got)

	for _, bad := range []string{"0", "10", "-1", "two"} {
		_, err := ValidateSlot(model.SlotAdults, bad, testNow)
		assert.Error(t, err, "value %q", bad)
	}
}

func TestValidateSlotTravelClass(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  string
	}{
		{"economy", "ECONOMY"},
		{"ECONOMY", "ECONOMY"},
		{"phổ thông", "ECONOMY"},
		{"business", "BUSINESS"},
		{"thương gia", "BUSINESS"},
	}
	for _, tt := range tests {
		got, err := ValidateSlot(model.SlotTravelClass, tt.value, testNow)
		require.NoError(t, err, "value %q", tt.value)
		assert.Equal(t, tt.want, got)
	}

	_, err := ValidateSlot(model.SlotTravelClass, "first", testNow)
	assert.Error(t, err)
}

func TestValidateSlotIDs(t *testing.T) {
	t.Parallel()

	id := "0194e6a0-1234-7abc-8def-0123456789ab"
	got, err := ValidateSlot(model.SlotBookingID, id, testNow)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ValidateSlot(model.SlotPassengerID, "not-a-uuid", testNow)
	assert.Error(t, err)
}

func TestValidateSlotOfferIndex(t *testing.T) {
	t.Parallel()

	got, err := ValidateSlot(model.SlotSelectedOfferIndex, "2", testNow)
	require.NoError(t, err)
	assert.Equal(t, "2", got)

	_, err = ValidateSlot(model.SlotSelectedOfferIndex, "-1", testNow)
	assert.Error(t, err)
}

func TestValidateSlotUnknownKey(t *testing.T) {
	t.Parallel()

	_, err := ValidateSlot("favorite_color", "blue", testNow)
	assert.ErrorIs(t, err, ErrUnknownSlot)
}
