package tools

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago-ai/flight-concierge/internal/model"
)

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

func TestSearchFlightsGeneratesWellFormedOffers(t *testing.T) {
	t.Parallel()
	m := NewInMemory()

	offers, err := m.SearchFlights(context.Background(), searchReq())
	require.NoError(t, err)
	require.Len(t, offers, 3)

	flightNumber := regexp.MustCompile(`^(VJ|VN|QH)[1-9][0-9]{2}$`)
	for _, o := range offers {
		require.Len(t, o.Segments, 1)
		seg := o.Segments[0]
		assert.Regexp(t, flightNumber, seg.FlightNumber)
		assert.Equal(t, "HAN", seg.Origin)
		assert.Equal(t, "SGN", seg.Destination)
		assert.True(t, seg.ArrivalTime.After(seg.DepartureTime))
		assert.Positive(t, o.TotalPrice)
	}
}

func TestSearchFlightsIsStablePerRoute(t *testing.T) {
	t.Parallel()
	m := NewInMemory()

	first, err := m.SearchFlights(context.Background(), searchReq())
	require.NoError(t, err)
	second, err := m.SearchFlights(context.Background(), searchReq())
	require.NoError(t, err)

	for i := range first {
		// Offer ids are fresh per search but the flights themselves repeat.
		assert.NotEqual(t, first[i].OfferID, second[i].OfferID)
		assert.Equal(t, first[i].Segments[0].FlightNumber, second[i].Segments[0].FlightNumber)
		assert.Equal(t, first[i].TotalPrice, second[i].TotalPrice)
	}
}

func TestSearchFlightsRejectsBadDate(t *testing.T) {
	t.Parallel()
	m := NewInMemory()

	req := searchReq()
	req.DepartDate = "20/12/2026"
	_, err := m.SearchFlights(context.Background(), req)
	require.Error(t, err)
}
