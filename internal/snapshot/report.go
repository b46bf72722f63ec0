package snapshot

import (
	"fmt"
	"strings"
)

// digestTail is how many trailing observations each snapshot contributes
// to the history digest. Observation lists arrive ascending by date, so
// the tail holds the most recent values.
const digestTail = 5

// FormatHistory renders records as a plain-text digest for agent
// consumption. Callers pass the output of LoadRecent, most recent first.
func FormatHistory(seriesID string, records []Record) string {
	if len(records) == 0 {
		return fmt.Sprintf("No saved history for %s. Fetch the series first to create a snapshot.", seriesID)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Saved history for %s (%d snapshot%s):\n", seriesID, len(records), plural(len(records))))

	for _, rec := range records {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Captured %s - %s: %d observation%s",
			rec.SavedAt.UTC().Format("2006-01-02 15:04:05 UTC"),
			rec.SeriesID,
			len(rec.Observations),
			plural(len(rec.Observations))))

		if n := len(rec.Observations); n > 0 {
			first, last := rec.Observations[0].Date, rec.Observations[n-1].Date
			sb.WriteString(fmt.Sprintf(", %s to %s", first, last))
		}
		if rec.Units != "" {
			sb.WriteString(fmt.Sprintf(", units=%s", rec.Units))
		}
		sb.WriteString("\n")

		tail := rec.Observations
		if len(tail) > digestTail {
			tail = tail[len(tail)-digestTail:]
		}
		for _, obs := range tail {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", obs.Date, obs.Value))
		}
	}
	return sb.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
