package engine

import (
	"time"

	"github.com/tartampluch/go-celebrations/internal/config"
)

// Report is the JSON document describing a snapshot's upcoming events.
type Report struct {
	GeneratedAt time.Time     `json:"generated_at"`
	WindowDays  int           `json:"window_days"`
	Stats       ReportStats   `json:"stats"`
	Upcoming    []ReportEvent `json:"upcoming"`
}

// ReportStats mirrors Stats without the event list.
type ReportStats struct {
	TotalContacts int `json:"total_contacts"`
	WithDates     int `json:"with_dates"`
	Today         int `json:"today"`
}

// ReportEvent is one upcoming event. Date is a calendar date (YYYY-MM-DD).
type ReportEvent struct {
	ContactID   string    `json:"contact_id"`
	ContactName string    `json:"contact_name"`
	EventType   EventType `json:"event_type"`
	Date        string    `json:"date"`
	DaysUntil   int       `json:"days_until"`
}

// Report builds the JSON view of the snapshot.
func (s *Snapshot) Report() Report {
	r := Report{
		GeneratedAt: s.GeneratedAt,
		WindowDays:  s.WindowDays,
		Stats: ReportStats{
			TotalContacts: s.Stats.TotalContacts,
			WithDates:     s.Stats.WithDates,
			Today:         s.Stats.Today,
		},
		Upcoming: make([]ReportEvent, 0, len(s.Upcoming)),
	}
	for _, e := range s.Upcoming {
		r.Upcoming = append(r.Upcoming, ReportEvent{
			ContactID:   e.ContactID,
			ContactName: e.ContactName,
			EventType:   e.EventType,
			Date:        e.OccurrenceDate.Format(config.DateFormatReference),
			DaysUntil:   e.DaysUntil,
		})
	}
	return r
}
