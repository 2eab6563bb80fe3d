package agent

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago-ai/flight-concierge/internal/model"
	"github.com/voyago-ai/flight-concierge/internal/tools"
	"github.com/voyago-ai/flight-concierge/pkg/logger"
)

const testUser = "user-1"

func newFlightFixture() (*FlightAgent, *tools.InMemory) {
	adapters := tools.NewInMemory()
	return NewFlightAgent(adapters, adapters, logger.NewNop()), adapters
}

func searchReq() model.SearchRequest {
	return model.SearchRequest{
		Origin:      "HAN",
		Destination: "SGN",
		DepartDate:  time.Now().AddDate(0, 2, 0).Format("2006-01-02"),
		Adults:      1,
		TravelClass: model.TravelClassEconomy,
		Currency:    "USD",
	}
}

func TestFlightSearchListsOffers(t *testing.T) {
	t.Parallel()
	fa, _ := newFlightFixture()

	res := fa.Search(context.Background(), searchReq())

	require.NotNil(t, res.StatePatch)
	require.Len(t, res.StatePatch.LastOfferIDs, 3)
	require.Len(t, res.Attachments, 1)
	assert.Equal(t, model.AttachmentFlightOffers, res.Attachments[0].Type)
	require.Len(t, res.Attachments[0].Offers, 3)
	for i, offer := range res.Attachments[0].Offers {
		assert.Equal(t, i, offer.Index)
		assert.Equal(t, res.StatePatch.LastOfferIDs[i], offer.OfferID)
	}
	require.Len(t, res.SuggestedActions, 3)
	assert.Equal(t, "Book option 1", res.SuggestedActions[0].Label)
	assert.Contains(t, res.Text, "1.")
	assert.Contains(t, res.Text, "3.")
}

// bareOfferProvider returns offers without segment detail, as some
// aggregators do for opaque fares.
type bareOfferProvider struct {
	*tools.InMemory
}

func (p *bareOfferProvider) SearchFlights(_ context.Context, req model.SearchRequest) ([]model.FlightOffer, error) {
	return []model.FlightOffer{{
		OfferID:         uuid.NewString(),
		TotalPrice:      1200000,
		Currency:        req.Currency,
		DurationMinutes: 125,
		Stops:           0,
	}}, nil
}

func TestFlightSearchSurvivesOfferWithoutSegments(t *testing.T) {
	t.Parallel()
	adapters := tools.NewInMemory()
	fa := NewFlightAgent(&bareOfferProvider{adapters}, adapters, logger.NewNop())

	res := fa.Search(context.Background(), searchReq())

	require.NotNil(t, res.StatePatch)
	require.Len(t, res.StatePatch.LastOfferIDs, 1)
	assert.Contains(t, res.Text, "1.")
	assert.Contains(t, res.Text, "125m")
}

func TestFlightSearchBadDateClearsOffers(t *testing.T) {
	t.Parallel()
	fa, _ := newFlightFixture()

	req := searchReq()
	req.DepartDate = "not-a-date"
	res := fa.Search(context.Background(), req)

	require.NotNil(t, res.StatePatch)
	assert.NotNil(t, res.StatePatch.LastOfferIDs)
	assert.Empty(t, res.StatePatch.LastOfferIDs)
	assert.Empty(t, res.Attachments)
}

func TestBookHappyPath(t *testing.T) {
	t.Parallel()
	fa, adapters := newFlightFixture()

	passengerID := uuid.NewString()
	adapters.AddPassenger(testUser, model.Passenger{ID: passengerID, FullName: "Nguyen Van A"})

	search := fa.Search(context.Background(), searchReq())
	offerID := search.StatePatch.LastOfferIDs[1]

	res := fa.Book(context.Background(), testUser, offerID, "")

	assert.Empty(t, res.FollowUpStep)
	require.Len(t, res.Attachments, 1)
	require.Equal(t, model.AttachmentBookingSuccess, res.Attachments[0].Type)
	booking := res.Attachments[0].Booking
	require.NotNil(t, booking)
	assert.Equal(t, model.BookingConfirmed, booking.Status)
	assert.Len(t, booking.Reference, 6)

	require.NotNil(t, res.StatePatch)
	assert.Equal(t, booking.BookingID, res.StatePatch.LastBookingID)
	assert.Equal(t, passengerID, res.StatePatch.SelectedPassengerID)
	assert.NotNil(t, res.StatePatch.LastOfferIDs)
	assert.Empty(t, res.StatePatch.LastOfferIDs, "offers are consumed by booking")
}

func TestBookExpiredOffer(t *testing.T) {
	t.Parallel()
	fa, adapters := newFlightFixture()

	passengerID := uuid.NewString()
	adapters.AddPassenger(testUser, model.Passenger{ID: passengerID, FullName: "Nguyen Van A"})

	search := fa.Search(context.Background(), searchReq())
	offerID := search.StatePatch.LastOfferIDs[0]
	adapters.ExpireOffer(offerID)

	res := fa.Book(context.Background(), testUser, offerID, "")

	assert.Contains(t, res.Text, "no longer available")
	require.NotNil(t, res.StatePatch)
	assert.NotNil(t, res.StatePatch.LastOfferIDs, "stale ordinals must be invalidated")
	assert.Empty(t, res.StatePatch.LastOfferIDs)
	assert.Empty(t, res.Attachments)
}

func TestBookRequiresSignIn(t *testing.T) {
	t.Parallel()
	fa, _ := newFlightFixture()

	res := fa.Book(context.Background(), "", "some-offer", "")
	assert.Contains(t, res.Text, "sign in")
	assert.Nil(t, res.StatePatch)
}

func TestBookAsksWhenPassengerAmbiguous(t *testing.T) {
	t.Parallel()
	fa, adapters := newFlightFixture()

	adapters.AddPassenger(testUser, model.Passenger{ID: uuid.NewString(), FullName: "Nguyen Van A"})
	adapters.AddPassenger(testUser, model.Passenger{ID: uuid.NewString(), FullName: "Tran Thi B"})

	search := fa.Search(context.Background(), searchReq())
	res := fa.Book(context.Background(), testUser, search.StatePatch.LastOfferIDs[0], "")

	assert.Equal(t, "awaiting_"+model.SlotPassengerID, res.FollowUpStep)
	assert.Len(t, res.SuggestedActions, 2)
}

func TestBookUsesDefaultPassenger(t *testing.T) {
	t.Parallel()
	fa, adapters := newFlightFixture()

	defaultID := uuid.NewString()
	adapters.AddPassenger(testUser, model.Passenger{ID: defaultID, FullName: "Nguyen Van A"})
	adapters.AddPassenger(testUser, model.Passenger{ID: uuid.NewString(), FullName: "Tran Thi B"})
	adapters.SetPreferences(testUser, model.Preferences{DefaultPassengerID: defaultID})

	search := fa.Search(context.Background(), searchReq())
	res := fa.Book(context.Background(), testUser, search.StatePatch.LastOfferIDs[0], "")

	assert.Empty(t, res.FollowUpStep)
	require.NotNil(t, res.StatePatch)
	assert.Equal(t, defaultID, res.StatePatch.SelectedPassengerID)
}

func TestCancelTransitions(t *testing.T) {
	t.Parallel()
	fa, adapters := newFlightFixture()

	bookingID := uuid.NewString()
	adapters.SeedBooking(testUser, model.Booking{
		ID:        bookingID,
		Reference: "ABC234",
		Status:    model.BookingConfirmed,
	})

	res := fa.Cancel(context.Background(), testUser, bookingID)
	assert.Contains(t, res.Text, "cancelled")

	// Cancelling again is informative, not an error.
	res = fa.Cancel(context.Background(), testUser, bookingID)
	assert.Contains(t, res.Text, "already")

	res = fa.Cancel(context.Background(), testUser, uuid.NewString())
	assert.Contains(t, res.Text, "couldn't find")

	// Another user's booking reads as not found.
	res = fa.Cancel(context.Background(), "someone-else", bookingID)
	assert.Contains(t, res.Text, "couldn't find")
}
