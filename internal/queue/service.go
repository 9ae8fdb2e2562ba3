package queue

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ms-turnos/internal/logger"
	"ms-turnos/internal/models"
)

const (
	DefaultFeePerTicket     = 1000
	DefaultAllowanceSeconds = 600
)

// Store is the persistence adapter: one load at startup, one full snapshot
// save after every mutation.
type Store interface {
	Load() (models.Snapshot, error)
	Save(snapshot models.Snapshot) error
}

// Alerter is the side channel fired outside the state machine. TicketExpired
// is invoked exactly once per ticket; implementations are free to no-op.
type Alerter interface {
	TicketExpired(event models.TicketExpiredEvent) error
	DayFinished(event models.DayFinishedEvent) error
}

type Config struct {
	FeePerTicket     int
	AllowanceSeconds int
	RefundOnRemove   bool
}

// Service owns the ticket store, the session state and the history log.
// Every mutation and the periodic tick serialize on one mutex, so no two
// operations interleave mid-mutation.
type Service struct {
	// Clock supplies wall-clock reads; tests substitute a fake.
	Clock func() time.Time

	mu       sync.Mutex
	store    Store
	alerter  Alerter
	logger   *logger.Logger
	cfg      Config
	active   []models.Ticket
	finished []models.Ticket
	day      models.DayState
	history  []models.HistoryEntry
	dirty    bool
}

// NewService loads the last snapshot and is ready to serve. A snapshot that
// cannot be read falls back to empty defaults; it never fails construction.
func NewService(store Store, alerter Alerter, log *logger.Logger, cfg Config) *Service {
	if cfg.FeePerTicket == 0 {
		cfg.FeePerTicket = DefaultFeePerTicket
	}
	if cfg.AllowanceSeconds == 0 {
		cfg.AllowanceSeconds = DefaultAllowanceSeconds
	}

	s := &Service{
		Clock:   time.Now,
		store:   store,
		alerter: alerter,
		logger:  log,
		cfg:     cfg,
	}

	snap, err := store.Load()
	if err != nil {
		s.logError("QUEUE", fmt.Sprintf("snapshot load failed, starting empty: %v", err))
		return s
	}
	s.active = snap.Tickets
	s.finished = snap.FinishedTickets
	s.day = snap.Day
	s.history = snap.History
	return s
}

// Admit validates the name, assigns the next ticket number and accrues the
// admission fee. Fails when no day is open.
func (s *Service) Admit(name string) (models.Ticket, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Ticket{}, ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.day.IsOpen {
		return models.Ticket{}, fmt.Errorf("admit %q: %w", name, ErrDayNotOpen)
	}

	ticket := models.Ticket{
		Number:           s.day.LastNumber + 1,
		Name:             name,
		AdmittedAt:       s.Clock().Truncate(time.Millisecond),
		AllowanceSeconds: s.cfg.AllowanceSeconds,
	}
	s.active = append(s.active, ticket)
	s.day.LastNumber = ticket.Number
	s.day.Revenue += s.cfg.FeePerTicket
	s.persistLocked()
	return ticket, nil
}

// Remove deletes a ticket from the active set. Removing a number that is not
// active is a no-op, so a removal racing an expiry in the same tick window
// can never resurrect or double-count the ticket. The fee is reversed only
// when the deployment's refund policy says so.
func (s *Service) Remove(number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.active {
		if t.Number == number {
			s.active = append(s.active[:i], s.active[i+1:]...)
			if s.cfg.RefundOnRemove {
				s.day.Revenue -= s.cfg.FeePerTicket
			}
			s.persistLocked()
			return nil
		}
	}
	return nil
}

// Complete is the manual finish action. Idempotent: completing a ticket that
// is not active reports false and changes nothing.
func (s *Service) Complete(number int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.completeLocked(number) {
		return false, nil
	}
	s.persistLocked()
	return true, nil
}

// completeLocked moves an active ticket to the finished list with its
// completed flag set. Caller holds the mutex.
func (s *Service) completeLocked(number int) bool {
	for i, t := range s.active {
		if t.Number == number {
			t.Completed = true
			s.active = append(s.active[:i], s.active[i+1:]...)
			s.finished = append(s.finished, t)
			return true
		}
	}
	return false
}

// Tick recomputes remaining time for every active ticket and completes the
// expired ones. Each expiry fires the alert exactly once; alert failures are
// logged and never stop the tick. A tick with a pending failed save retries
// the snapshot write.
func (s *Service) Tick() {
	s.mu.Lock()
	now := s.Clock()

	var expired []models.Ticket
	for _, t := range s.active {
		if !t.Completed && t.RemainingSeconds(now) == 0 {
			expired = append(expired, t)
		}
	}
	for _, t := range expired {
		s.completeLocked(t.Number)
	}
	if len(expired) > 0 || s.dirty {
		s.persistLocked()
	}
	alerter := s.alerter
	s.mu.Unlock()

	if alerter == nil {
		return
	}
	for _, t := range expired {
		event := models.TicketExpiredEvent{
			Number:     t.Number,
			Name:       t.Name,
			AdmittedAt: t.AdmittedAt,
			ExpiredAt:  now,
		}
		if err := alerter.TicketExpired(event); err != nil {
			s.logError("ENGINE", fmt.Sprintf("expiry alert for ticket %d failed: %v", t.Number, err))
		}
	}
}

// StartDay opens a new working day with empty ticket lists, zero revenue and
// numbering restarting at 1. History is preserved across days.
func (s *Service) StartDay() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.day.IsOpen {
		return ErrDayAlreadyOpen
	}
	s.active = nil
	s.finished = nil
	s.day = models.DayState{
		IsOpen:    true,
		StartedAt: s.Clock().Truncate(time.Millisecond),
	}
	s.persistLocked()
	return nil
}

// FinishDay snapshots the closing day into a history entry, prepends it and
// resets the session. Active tickets are folded into the aggregate counts,
// not migrated individually.
func (s *Service) FinishDay() (models.HistoryEntry, error) {
	s.mu.Lock()

	if !s.day.IsOpen || s.day.StartedAt.IsZero() {
		s.mu.Unlock()
		return models.HistoryEntry{}, ErrDayNotOpen
	}

	entry := models.HistoryEntry{
		ID:          uuid.New().String(),
		StartedAt:   s.day.StartedAt,
		EndedAt:     s.Clock().Truncate(time.Millisecond),
		TicketCount: len(s.active) + len(s.finished),
		Revenue:     s.day.Revenue,
	}
	s.history = append([]models.HistoryEntry{entry}, s.history...)
	s.active = nil
	s.finished = nil
	s.day = models.DayState{}
	s.persistLocked()
	alerter := s.alerter
	s.mu.Unlock()

	if alerter != nil {
		event := models.DayFinishedEvent(entry)
		if err := alerter.DayFinished(event); err != nil {
			s.logError("QUEUE", fmt.Sprintf("day finished event failed: %v", err))
		}
	}
	return entry, nil
}

// Tickets returns the active tickets with their live remaining time, and the
// finished tickets, both in admission order.
func (s *Service) Tickets() (active, finished []models.TicketView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Clock()
	for _, t := range s.active {
		active = append(active, ticketView(t, now))
	}
	for _, t := range s.finished {
		finished = append(finished, ticketView(t, now))
	}
	return active, finished
}

func ticketView(t models.Ticket, now time.Time) models.TicketView {
	return models.TicketView{
		Ticket:           t,
		RemainingSeconds: t.RemainingSeconds(now),
		AdmittedClock:    t.AdmittedAt.Format("15:04"),
	}
}

// ActiveCount counts active tickets that still have time remaining.
func (s *Service) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Clock()
	count := 0
	for _, t := range s.active {
		if t.RemainingSeconds(now) > 0 {
			count++
		}
	}
	return count
}

// Stats is the dashboard summary.
func (s *Service) Stats() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Clock()
	count := 0
	for _, t := range s.active {
		if t.RemainingSeconds(now) > 0 {
			count++
		}
	}
	stats := models.Stats{
		ActiveCount: count,
		Revenue:     s.day.Revenue,
		DayOpen:     s.day.IsOpen,
	}
	if !s.day.StartedAt.IsZero() {
		startedAt := s.day.StartedAt
		stats.StartedAt = &startedAt
	}
	return stats
}

// History returns the closed-day summaries, most recent first.
func (s *Service) History() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// DeleteHistory removes one entry. Out-of-range indexes are a checked
// precondition, not a silent no-op.
func (s *Service) DeleteHistory(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.history) {
		return fmt.Errorf("delete history entry %d: %w", index, ErrIndexOutOfRange)
	}
	s.history = append(s.history[:index], s.history[index+1:]...)
	s.persistLocked()
	return nil
}

// ExportHistory renders one entry as the shareable text block.
func (s *Service) ExportHistory(index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.history) {
		return "", fmt.Errorf("export history entry %d: %w", index, ErrIndexOutOfRange)
	}
	return FormatHistoryEntry(s.history[index]), nil
}

// persistLocked writes the full snapshot. A failed save keeps the in-memory
// state and marks the service dirty so the next tick retries; it never rolls
// back the mutation that triggered it. Caller holds the mutex.
func (s *Service) persistLocked() {
	snap := models.Snapshot{
		Tickets:         append([]models.Ticket(nil), s.active...),
		FinishedTickets: append([]models.Ticket(nil), s.finished...),
		Day:             s.day,
		History:         append([]models.HistoryEntry(nil), s.history...),
	}
	if err := s.store.Save(snap); err != nil {
		s.dirty = true
		s.logError("QUEUE", fmt.Sprintf("snapshot save failed, will retry on next tick: %v", err))
		return
	}
	s.dirty = false
}

func (s *Service) logError(category, message string) {
	if s.logger != nil {
		s.logger.Error(category, message)
	}
}
