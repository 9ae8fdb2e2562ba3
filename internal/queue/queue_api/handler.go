package queue_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"ms-turnos/internal/logger"
	"ms-turnos/internal/queue"
	"ms-turnos/internal/queue/cache"
)

type Handler struct {
	Service *queue.Service
	Cache   *cache.StatsCache
	Logger  *logger.Logger
}

func (h *Handler) StartDay(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.StartDay(); err != nil {
		h.writeError(w, err)
		return
	}
	h.Cache.Invalidate(r.Context())
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Day started"))
}

func (h *Handler) FinishDay(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Service.FinishDay()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.Cache.Invalidate(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry)
}

func (h *Handler) AdmitTicket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	ticket, err := h.Service.Admit(req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.Cache.Invalidate(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ticket)
}

func (h *Handler) RemoveTicket(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		http.Error(w, "Invalid ticket number", http.StatusBadRequest)
		return
	}
	if err := h.Service.Remove(number); err != nil {
		h.writeError(w, err)
		return
	}
	h.Cache.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CompleteTicket(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		http.Error(w, "Invalid ticket number", http.StatusBadRequest)
		return
	}
	completed, err := h.Service.Complete(number)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.Cache.Invalidate(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"completed": completed})
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	active, finished := h.Service.Tickets()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"active":   active,
		"finished": finished,
	})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.Cache.Get(r.Context())
	if !ok {
		stats = h.Service.Stats()
		h.Cache.Set(r.Context(), stats)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Service.History())
}

func (h *Handler) DeleteHistoryEntry(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "Invalid history index", http.StatusBadRequest)
		return
	}
	if err := h.Service.DeleteHistory(index); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ExportHistoryEntry(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "Invalid history index", http.StatusBadRequest)
		return
	}
	text, err := h.Service.ExportHistory(index)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(text))
}

// ExportHistoryQR renders the same export text as a QR PNG for sharing.
func (h *Handler) ExportHistoryQR(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "Invalid history index", http.StatusBadRequest)
		return
	}
	text, err := h.Service.ExportHistory(index)
	if err != nil {
		h.writeError(w, err)
		return
	}
	png, err := qrcode.Encode(text, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "Failed to generate QR: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, queue.ErrNameRequired):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, queue.ErrDayNotOpen), errors.Is(err, queue.ErrDayAlreadyOpen):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, queue.ErrIndexOutOfRange):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		if h.Logger != nil {
			h.Logger.Error("API", fmt.Sprintf("Unhandled error: %v", err))
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
