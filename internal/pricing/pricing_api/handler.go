package pricing_api

import (
	"encoding/json"
	"net/http"

	"ms-turnos/internal/logger"
	"ms-turnos/internal/pricing"
)

type Handler struct {
	Logger *logger.Logger
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req pricing.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.BasePrice < 0 || req.OneWayKm < 0 || req.LitersPer300Km < 0 || req.FuelPricePerLiter < 0 {
		http.Error(w, "Pricing inputs must not be negative", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pricing.Calculate(req))
}
