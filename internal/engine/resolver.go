package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tartampluch/go-celebrations/internal/config"
)

// ErrNegativeWindow is returned when the lookahead window is below zero.
var ErrNegativeWindow = errors.New(config.ErrNegativeWindow)

// ResolveUpcoming computes, for every recurring date of every contact, the
// next occurrence on or after referenceDate, keeps those at most windowDays
// away and orders them by proximity.
//
// Only the calendar day of referenceDate matters; its location is used for
// the occurrence dates. Ties keep the input contact order, birthday first.
// Contacts are never modified.
func ResolveUpcoming(contacts []Contact, referenceDate time.Time, windowDays int) ([]UpcomingEvent, error) {
	if windowDays < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeWindow, windowDays)
	}

	today := startOfDay(referenceDate)
	events := make([]UpcomingEvent, 0)

	for _, c := range contacts {
		for _, t := range eventTypes {
			md := c.Date(t)
			if md == nil {
				continue
			}
			if !md.Valid() {
				return nil, fmt.Errorf("%s %q (%s): %w: %s", config.ErrContactDate, c.Name, t, ErrInvalidDate, md)
			}

			occurrence, days := NextOccurrence(*md, today)
			if days > windowDays {
				continue
			}

			events = append(events, UpcomingEvent{
				ContactID:      c.ID,
				ContactName:    c.Name,
				EventType:      t,
				OccurrenceDate: occurrence,
				DaysUntil:      days,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].DaysUntil < events[j].DaysUntil
	})

	return events, nil
}

// NextEvent returns the closest upcoming celebration of one contact, with no
// window limit. ok is false when the contact has no valid date. Birthday wins
// a tie with the anniversary.
func NextEvent(c Contact, ref time.Time) (event UpcomingEvent, ok bool) {
	for _, t := range eventTypes {
		md := c.Date(t)
		if md == nil || !md.Valid() {
			continue
		}
		occurrence, days := NextOccurrence(*md, ref)
		if ok && days >= event.DaysUntil {
			continue
		}
		event = UpcomingEvent{
			ContactID:      c.ID,
			ContactName:    c.Name,
			EventType:      t,
			OccurrenceDate: occurrence,
			DaysUntil:      days,
		}
		ok = true
	}
	return event, ok
}

// NextOccurrence returns the first occurrence of md on or after the calendar
// day of ref, and the number of days until it (0 when it is today).
func NextOccurrence(md MonthDay, ref time.Time) (time.Time, int) {
	today := startOfDay(ref)
	loc := today.Location()

	candidate := md.In(today.Year(), loc)
	if candidate.Before(today) {
		// Already passed this year, next one is next year.
		candidate = md.In(today.Year()+1, loc)
	}

	return candidate, DaysBetween(today, candidate)
}

// DaysBetween counts calendar days from the day of 'from' to the day of 'to'.
// Both days are re-anchored in UTC so DST transitions cannot skew the result.
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	// Unix seconds, not time.Duration, which overflows past ~292 years.
	return int((b.Unix() - a.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// startOfDay truncates t to midnight of its own calendar day and location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
