package models

import "time"

// TicketExpiredEvent is published on the alert channel exactly once per
// ticket, at the tick where its remaining allowance first reaches zero.
type TicketExpiredEvent struct {
	Number     int       `json:"number"`
	Name       string    `json:"name"`
	AdmittedAt time.Time `json:"admitted_at"`
	ExpiredAt  time.Time `json:"expired_at"`
}

// DayFinishedEvent mirrors the history entry created when the operator
// closes out a working day.
type DayFinishedEvent struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	TicketCount int       `json:"ticket_count"`
	Revenue     int       `json:"revenue"`
}
