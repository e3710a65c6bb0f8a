package engine

import "time"

// EventType identifies which recurring date of a contact an event stems from.
type EventType string

const (
	EventBirthday    EventType = "birthday"
	EventAnniversary EventType = "anniversary"
)

// eventTypes is the per-contact emission order.
var eventTypes = []EventType{EventBirthday, EventAnniversary}

// Contact is a person known to the contacts collaborator, reduced to what the
// resolver and the contact views need.
type Contact struct {
	// ID is the collaborator's identifier, or a name-based UUID for vCards.
	ID string

	// Name is the display label.
	Name string

	Email    string
	WhatsApp string

	// Birthday and Anniversary are nil when unknown.
	Birthday    *MonthDay
	Anniversary *MonthDay

	// CreatedAt is zero when the source does not track it.
	CreatedAt time.Time
}

// Date returns the recurring date for the given event type, or nil.
func (c Contact) Date(t EventType) *MonthDay {
	switch t {
	case EventBirthday:
		return c.Birthday
	case EventAnniversary:
		return c.Anniversary
	default:
		return nil
	}
}

// HasDates reports whether at least one recurring date is set.
func (c Contact) HasDates() bool {
	return c.Birthday != nil || c.Anniversary != nil
}

// UpcomingEvent is the next occurrence of one recurring date of one contact.
// Values are created fresh by every resolution and carry no identity.
type UpcomingEvent struct {
	ContactID   string
	ContactName string
	EventType   EventType

	// OccurrenceDate is midnight of the occurrence day, in the reference location.
	OccurrenceDate time.Time

	// DaysUntil is the whole number of calendar days from the reference date.
	DaysUntil int
}
