package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-turnos/internal/models"
)

// Store persists the queue snapshot in sqlite through bun. Save replaces the
// whole snapshot inside one transaction, so a crash can never leave some
// tables on the new state and others on the old one.
type Store struct {
	Bun *bun.DB
}

type ticketRow struct {
	bun.BaseModel `bun:"table:tickets"`

	Number           int    `bun:"number,pk"`
	Name             string `bun:"name,notnull"`
	AdmittedAtMs     int64  `bun:"admitted_at_ms,notnull"`
	AllowanceSeconds int    `bun:"allowance_seconds,notnull"`
	Completed        bool   `bun:"completed,notnull"`
	Finished         bool   `bun:"finished,notnull"`
}

type dayStateRow struct {
	bun.BaseModel `bun:"table:day_state"`

	ID          int   `bun:"id,pk"`
	IsOpen      bool  `bun:"is_open,notnull"`
	StartedAtMs int64 `bun:"started_at_ms,notnull"`
	Revenue     int   `bun:"revenue,notnull"`
	LastNumber  int   `bun:"last_number,notnull"`
}

type historyRow struct {
	bun.BaseModel `bun:"table:history"`

	ID          string `bun:"id,pk"`
	Position    int    `bun:"position,notnull"`
	StartedAtMs int64  `bun:"started_at_ms,notnull"`
	EndedAtMs   int64  `bun:"ended_at_ms,notnull"`
	TicketCount int    `bun:"ticket_count,notnull"`
	Revenue     int    `bun:"revenue,notnull"`
}

// Init creates the snapshot tables if they do not exist yet.
func (s *Store) Init(ctx context.Context) error {
	for _, model := range []interface{}{
		(*ticketRow)(nil),
		(*dayStateRow)(nil),
		(*historyRow)(nil),
	} {
		if _, err := s.Bun.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the last durable snapshot. An empty database loads as the
// zero-value snapshot, never an error.
func (s *Store) Load() (models.Snapshot, error) {
	ctx := context.Background()
	var snap models.Snapshot

	var day dayStateRow
	err := s.Bun.NewSelect().Model(&day).Where("id = 1").Limit(1).Scan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// no day yet, keep zero values
	case err != nil:
		return models.Snapshot{}, err
	default:
		snap.Day = models.DayState{
			IsOpen:     day.IsOpen,
			StartedAt:  msToTime(day.StartedAtMs),
			Revenue:    day.Revenue,
			LastNumber: day.LastNumber,
		}
	}

	var tickets []ticketRow
	if err := s.Bun.NewSelect().Model(&tickets).Order("number ASC").Scan(ctx); err != nil {
		return models.Snapshot{}, err
	}
	for _, row := range tickets {
		ticket := models.Ticket{
			Number:           row.Number,
			Name:             row.Name,
			AdmittedAt:       msToTime(row.AdmittedAtMs),
			AllowanceSeconds: row.AllowanceSeconds,
			Completed:        row.Completed,
		}
		if row.Finished {
			snap.FinishedTickets = append(snap.FinishedTickets, ticket)
		} else {
			snap.Tickets = append(snap.Tickets, ticket)
		}
	}

	var history []historyRow
	if err := s.Bun.NewSelect().Model(&history).Order("position ASC").Scan(ctx); err != nil {
		return models.Snapshot{}, err
	}
	for _, row := range history {
		snap.History = append(snap.History, models.HistoryEntry{
			ID:          row.ID,
			StartedAt:   msToTime(row.StartedAtMs),
			EndedAt:     msToTime(row.EndedAtMs),
			TicketCount: row.TicketCount,
			Revenue:     row.Revenue,
		})
	}

	return snap, nil
}

// Save atomically replaces the previous snapshot.
func (s *Store) Save(snap models.Snapshot) error {
	ctx := context.Background()
	return s.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*ticketRow)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*dayStateRow)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*historyRow)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return err
		}

		rows := make([]ticketRow, 0, len(snap.Tickets)+len(snap.FinishedTickets))
		for _, t := range snap.Tickets {
			rows = append(rows, toTicketRow(t, false))
		}
		for _, t := range snap.FinishedTickets {
			rows = append(rows, toTicketRow(t, true))
		}
		if len(rows) > 0 {
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return err
			}
		}

		day := dayStateRow{
			ID:          1,
			IsOpen:      snap.Day.IsOpen,
			StartedAtMs: timeToMs(snap.Day.StartedAt),
			Revenue:     snap.Day.Revenue,
			LastNumber:  snap.Day.LastNumber,
		}
		if _, err := tx.NewInsert().Model(&day).Exec(ctx); err != nil {
			return err
		}

		if len(snap.History) > 0 {
			historyRows := make([]historyRow, 0, len(snap.History))
			for i, e := range snap.History {
				historyRows = append(historyRows, historyRow{
					ID:          e.ID,
					Position:    i,
					StartedAtMs: timeToMs(e.StartedAt),
					EndedAtMs:   timeToMs(e.EndedAt),
					TicketCount: e.TicketCount,
					Revenue:     e.Revenue,
				})
			}
			if _, err := tx.NewInsert().Model(&historyRows).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

func toTicketRow(t models.Ticket, finished bool) ticketRow {
	return ticketRow{
		Number:           t.Number,
		Name:             t.Name,
		AdmittedAtMs:     timeToMs(t.AdmittedAt),
		AllowanceSeconds: t.AllowanceSeconds,
		Completed:        t.Completed,
		Finished:         finished,
	}
}

// Timestamps persist as Unix milliseconds so serialize/deserialize
// round-trips to an equivalent instant. Zero time maps to 0 and back.

func timeToMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func msToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
