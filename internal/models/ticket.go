package models

import "time"

// Ticket is one admitted customer's queue slot. Number is unique within an
// open day and assigned in strict admission order. AdmittedAt and
// AllowanceSeconds never change after admission; remaining time is always
// derived from them, never stored.
type Ticket struct {
	Number           int       `json:"number"`
	Name             string    `json:"name"`
	AdmittedAt       time.Time `json:"admitted_at"`
	AllowanceSeconds int       `json:"allowance_seconds"`
	Completed        bool      `json:"completed"`
}

// RemainingSeconds recomputes the remaining allowance from wall-clock
// elapsed time. Clamped at zero, never negative.
func (t Ticket) RemainingSeconds(now time.Time) int {
	elapsed := int(now.Sub(t.AdmittedAt) / time.Second)
	remaining := t.AllowanceSeconds - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TicketView is the API shape of a ticket: the stored fields plus the
// derived remaining time and the admission clock time shown in listings.
type TicketView struct {
	Ticket
	RemainingSeconds int    `json:"remaining_seconds"`
	AdmittedClock    string `json:"admitted_clock"`
}

// DayState is the current working day: open/closed flag, accrued revenue
// and the last assigned ticket number.
type DayState struct {
	IsOpen     bool      `json:"is_open"`
	StartedAt  time.Time `json:"started_at"`
	Revenue    int       `json:"revenue"`
	LastNumber int       `json:"last_number"`
}

// HistoryEntry is the immutable summary of one closed day.
type HistoryEntry struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	TicketCount int       `json:"ticket_count"`
	Revenue     int       `json:"revenue"`
}

// Snapshot is the full durable state of the queue, written after every
// mutation and loaded once at startup.
type Snapshot struct {
	Tickets         []Ticket       `json:"tickets"`
	FinishedTickets []Ticket       `json:"finished_tickets"`
	Day             DayState       `json:"day"`
	History         []HistoryEntry `json:"history"`
}

// Stats is the dashboard summary line.
type Stats struct {
	ActiveCount int        `json:"active_count"`
	Revenue     int        `json:"revenue"`
	DayOpen     bool       `json:"day_open"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
}
