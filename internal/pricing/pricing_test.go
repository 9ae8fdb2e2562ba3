package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ms-turnos/internal/pricing"
)

func TestCalculateSingleRoundTrip(t *testing.T) {
	quote := pricing.Calculate(pricing.QuoteRequest{
		BasePrice:         25000,
		OneWayKm:          150,
		LitersPer300Km:    26.43,
		FuelPricePerLiter: 1135,
	})

	// 300 km total -> 26.43 L -> 29998.05 fuel cost -> x1.5 multiplier
	assert.InDelta(t, 44997.075, quote.TransportCost, 0.001)
	assert.InDelta(t, 69997.075, quote.Total, 0.001)
	assert.Equal(t, 69998, quote.TotalRounded)
}

func TestCalculateTwoRoundTrips(t *testing.T) {
	quote := pricing.Calculate(pricing.QuoteRequest{
		BasePrice:         25000,
		OneWayKm:          150,
		LitersPer300Km:    26.43,
		FuelPricePerLiter: 1135,
		TwoRoundTrips:     true,
	})

	// doubled distance and the 2.5 multiplier
	assert.InDelta(t, 149990.25, quote.TransportCost, 0.001)
	assert.InDelta(t, 174990.25, quote.Total, 0.001)
	assert.Equal(t, 174991, quote.TotalRounded)
}

func TestCalculateNoTransport(t *testing.T) {
	quote := pricing.Calculate(pricing.QuoteRequest{BasePrice: 25000})

	assert.Zero(t, quote.TransportCost)
	assert.Equal(t, 25000.0, quote.Total)
	assert.Equal(t, 25000, quote.TotalRounded)
}
