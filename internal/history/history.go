// Package history keeps the list of saved quotes and reusable quote templates.
package history

import (
	"time"

	"github.com/google/uuid"
)

// Storage keys. The values are JSON arrays, newest first.
const (
	KeyHistory   = "quoteHistory"
	KeyTemplates = "quoteTemplates"
)

// TimestampLayout formats Entry.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Entry is an immutable record of a quote the user chose to keep.
type Entry struct {
	ID             string `json:"id"`
	Timestamp      string `json:"timestamp"`
	TotalDisplay   string `json:"totalDisplay"`
	SummaryDisplay string `json:"summaryDisplay"`
}

// NewEntry creates an entry with a fresh id.
func NewEntry(now time.Time, totalDisplay, summaryDisplay string) Entry {
	return Entry{
		ID:             uuid.NewString(),
		Timestamp:      now.Format(TimestampLayout),
		TotalDisplay:   totalDisplay,
		SummaryDisplay: summaryDisplay,
	}
}

// Append returns a new list with entry in front. Entries are not deduplicated.
// When maxLength is positive the oldest entries beyond it are dropped.
func Append(list []Entry, entry Entry, maxLength int) []Entry {
	n := len(list) + 1
	if maxLength > 0 && n > maxLength {
		n = maxLength
	}
	out := make([]Entry, 0, n)
	out = append(out, entry)
	for _, e := range list {
		if len(out) == n {
			break
		}
		out = append(out, e)
	}
	return out
}
