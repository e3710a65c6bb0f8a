package engine

// Stats summarizes a contact list for the dashboard and the tray.
type Stats struct {
	TotalContacts int
	WithDates     int

	// Today counts events occurring on the reference day.
	Today int

	// Upcoming is the head of the resolved list, capped by the dashboard limit.
	Upcoming []UpcomingEvent
}

// BuildStats derives dashboard statistics from contacts and their already
// resolved upcoming events. A limit of 0 keeps every event.
func BuildStats(contacts []Contact, upcoming []UpcomingEvent, limit int) Stats {
	stats := Stats{TotalContacts: len(contacts)}

	for _, c := range contacts {
		if c.HasDates() {
			stats.WithDates++
		}
	}
	for _, e := range upcoming {
		if e.DaysUntil == 0 {
			stats.Today++
		}
	}

	head := upcoming
	if limit > 0 && len(head) > limit {
		head = head[:limit]
	}
	stats.Upcoming = append(make([]UpcomingEvent, 0, len(head)), head...)

	return stats
}
