package pricing

import "math"

// QuoteRequest carries the four pricing inputs plus the two-round-trips flag.
// Consumption is expressed as liters per 300 km, matching how the operator's
// vehicle figures are quoted.
type QuoteRequest struct {
	BasePrice         float64 `json:"base_price"`
	OneWayKm          float64 `json:"one_way_km"`
	LitersPer300Km    float64 `json:"liters_per_300km"`
	FuelPricePerLiter float64 `json:"fuel_price_per_liter"`
	TwoRoundTrips     bool    `json:"two_round_trips"`
}

type Quote struct {
	TransportCost float64 `json:"transport_cost"`
	Total         float64 `json:"total"`
	TotalRounded  int     `json:"total_rounded"`
}

// Calculate is pure arithmetic: fuel cost over the total distance times a
// trip multiplier, added to the base price. TotalRounded rounds up to the
// next whole amount.
func Calculate(req QuoteRequest) Quote {
	trips, multiplier := 2.0, 1.5
	if req.TwoRoundTrips {
		trips, multiplier = 4.0, 2.5
	}

	distanceKm := req.OneWayKm * trips
	liters := distanceKm / 300 * req.LitersPer300Km
	fuelCost := liters * req.FuelPricePerLiter
	transport := fuelCost * multiplier
	total := req.BasePrice + transport

	return Quote{
		TransportCost: transport,
		Total:         total,
		TotalRounded:  int(math.Ceil(total)),
	}
}
