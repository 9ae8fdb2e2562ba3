package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"ms-turnos/internal/models"
	"ms-turnos/internal/queue/db"
)

func setupTestStore(t *testing.T) (*db.Store, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	store := &db.Store{Bun: bunDB}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Failed to create snapshot tables: %v", err)
	}
	return store, bunDB
}

func msNow(offset time.Duration) time.Time {
	return time.Now().Add(offset).Truncate(time.Millisecond)
}

func TestLoadEmptyDatabase(t *testing.T) {
	store, bunDB := setupTestStore(t)
	defer bunDB.Close()

	snap, err := store.Load()
	require.NoError(t, err)

	assert.Empty(t, snap.Tickets)
	assert.Empty(t, snap.FinishedTickets)
	assert.Empty(t, snap.History)
	assert.False(t, snap.Day.IsOpen)
	assert.True(t, snap.Day.StartedAt.IsZero())
	assert.Zero(t, snap.Day.Revenue)
	assert.Zero(t, snap.Day.LastNumber)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, bunDB := setupTestStore(t)
	defer bunDB.Close()

	startedAt := msNow(-2 * time.Hour)
	snap := models.Snapshot{
		Tickets: []models.Ticket{
			{Number: 2, Name: "Luis", AdmittedAt: msNow(-10 * time.Minute), AllowanceSeconds: 600},
			{Number: 3, Name: "Marta", AdmittedAt: msNow(-5 * time.Minute), AllowanceSeconds: 600},
		},
		FinishedTickets: []models.Ticket{
			{Number: 1, Name: "Ana", AdmittedAt: msNow(-90 * time.Minute), AllowanceSeconds: 600, Completed: true},
		},
		Day: models.DayState{
			IsOpen:     true,
			StartedAt:  startedAt,
			Revenue:    3000,
			LastNumber: 3,
		},
		History: []models.HistoryEntry{
			{ID: uuid.New().String(), StartedAt: msNow(-26 * time.Hour), EndedAt: msNow(-18 * time.Hour), TicketCount: 7, Revenue: 7000},
			{ID: uuid.New().String(), StartedAt: msNow(-50 * time.Hour), EndedAt: msNow(-42 * time.Hour), TicketCount: 4, Revenue: 4000},
		},
	}

	require.NoError(t, store.Save(snap))
	loaded, err := store.Load()
	require.NoError(t, err)

	require.Len(t, loaded.Tickets, 2)
	for i, want := range snap.Tickets {
		got := loaded.Tickets[i]
		assert.Equal(t, want.Number, got.Number)
		assert.Equal(t, want.Name, got.Name)
		assert.True(t, got.AdmittedAt.Equal(want.AdmittedAt), "admitted_at must round-trip to the same instant")
		assert.Equal(t, want.AllowanceSeconds, got.AllowanceSeconds)
		assert.Equal(t, want.Completed, got.Completed)
	}

	require.Len(t, loaded.FinishedTickets, 1)
	assert.Equal(t, "Ana", loaded.FinishedTickets[0].Name)
	assert.True(t, loaded.FinishedTickets[0].Completed)

	assert.True(t, loaded.Day.IsOpen)
	assert.True(t, loaded.Day.StartedAt.Equal(startedAt))
	assert.Equal(t, 3000, loaded.Day.Revenue)
	assert.Equal(t, 3, loaded.Day.LastNumber)

	require.Len(t, loaded.History, 2)
	for i, want := range snap.History {
		got := loaded.History[i]
		assert.Equal(t, want.ID, got.ID)
		assert.True(t, got.StartedAt.Equal(want.StartedAt))
		assert.True(t, got.EndedAt.Equal(want.EndedAt))
		assert.Equal(t, want.TicketCount, got.TicketCount)
		assert.Equal(t, want.Revenue, got.Revenue)
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	store, bunDB := setupTestStore(t)
	defer bunDB.Close()

	first := models.Snapshot{
		Tickets: []models.Ticket{
			{Number: 1, Name: "Ana", AdmittedAt: msNow(0), AllowanceSeconds: 600},
			{Number: 2, Name: "Luis", AdmittedAt: msNow(0), AllowanceSeconds: 600},
		},
		Day: models.DayState{IsOpen: true, StartedAt: msNow(0), Revenue: 2000, LastNumber: 2},
	}
	require.NoError(t, store.Save(first))

	second := models.Snapshot{
		History: []models.HistoryEntry{
			{ID: uuid.New().String(), StartedAt: msNow(-8 * time.Hour), EndedAt: msNow(0), TicketCount: 2, Revenue: 2000},
		},
	}
	require.NoError(t, store.Save(second))

	loaded, err := store.Load()
	require.NoError(t, err)

	// nothing of the first snapshot survives
	assert.Empty(t, loaded.Tickets)
	assert.False(t, loaded.Day.IsOpen)
	assert.Zero(t, loaded.Day.Revenue)
	assert.Zero(t, loaded.Day.LastNumber)
	require.Len(t, loaded.History, 1)
	assert.Equal(t, 2, loaded.History[0].TicketCount)
}

func TestHistoryOrderSurvivesRoundTrip(t *testing.T) {
	store, bunDB := setupTestStore(t)
	defer bunDB.Close()

	snap := models.Snapshot{History: []models.HistoryEntry{
		{ID: uuid.New().String(), StartedAt: msNow(-8 * time.Hour), EndedAt: msNow(0), TicketCount: 3, Revenue: 3000},
		{ID: uuid.New().String(), StartedAt: msNow(-32 * time.Hour), EndedAt: msNow(-24 * time.Hour), TicketCount: 2, Revenue: 2000},
		{ID: uuid.New().String(), StartedAt: msNow(-56 * time.Hour), EndedAt: msNow(-48 * time.Hour), TicketCount: 1, Revenue: 1000},
	}}
	require.NoError(t, store.Save(snap))

	loaded, err := store.Load()
	require.NoError(t, err)

	require.Len(t, loaded.History, 3)
	for i, want := range snap.History {
		assert.Equal(t, want.ID, loaded.History[i].ID, "most-recent-first order must be preserved")
	}
}

func TestSaveEmptySnapshot(t *testing.T) {
	store, bunDB := setupTestStore(t)
	defer bunDB.Close()

	require.NoError(t, store.Save(models.Snapshot{}))
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded.Tickets)
	assert.Empty(t, loaded.History)
	assert.False(t, loaded.Day.IsOpen)
}
