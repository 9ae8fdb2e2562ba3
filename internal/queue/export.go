package queue

import (
	"fmt"
	"time"

	"ms-turnos/internal/models"
)

// FormatHistoryEntry renders a closed-day summary as the text block used for
// copy/share. Deterministic: same entry, same output.
func FormatHistoryEntry(e models.HistoryEntry) string {
	return fmt.Sprintf(
		"Start Date: %s\nEnd Date: %s\nTotal Duration: %s\nTotal Tickets: %d\nTotal Revenue: %d",
		e.StartedAt.Format("02/01/2006 15.04.05"),
		e.EndedAt.Format("02/01/2006 15.04.05"),
		formatDuration(e.EndedAt.Sub(e.StartedAt)),
		e.TicketCount,
		e.Revenue,
	)
}

// formatDuration renders HH:MM:SS; hours are not capped at 24.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}
