package engine

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-celebrations/internal/config"
)

// generateCalendar renders every recurring date of every contact as all-day
// events for the previous, current and next year, so calendar clients can
// scroll around without waiting for a re-sync.
func (g *Generator) generateCalendar(contacts []Contact, now time.Time, reminderTrigger string) ([]byte, error) {
	cal := ical.NewCalendar()

	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986: suggested refresh interval.
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	// Local time drives the dates; UTC only for the stamp.
	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	for _, c := range contacts {
		uidBase := eventUIDBase(c)
		for _, t := range eventTypes {
			md := c.Date(t)
			if md == nil {
				continue
			}
			for _, e := range g.createEvents(c.Name, *md, t, reminderTrigger, now, uidBase) {
				e.Props.Set(dtStampProp)
				cal.Children = append(cal.Children, e.Component)
			}
		}
	}

	if len(cal.Children) == 0 {
		// A valid empty VCALENDAR keeps clients from flagging the feed as broken.
		return []byte(config.StubVCalendar), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

// createEvents builds the events of one recurring date for CurrentYear-1,
// CurrentYear and CurrentYear+1.
func (g *Generator) createEvents(name string, md MonthDay, t EventType, reminderTrigger string, now time.Time, uidBase string) []*ical.Event {
	currentYear := now.Year()
	loc := now.Location()
	summary := g.summary(t, name)

	events := make([]*ical.Event, 0, 3)
	for _, y := range []int{currentYear - 1, currentYear, currentYear + 1} {
		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, uidBase, t, y, config.ICalDomain))
		event.Props.SetText(config.PropSummary, summary)
		event.Props.SetText(config.PropCategories, string(t))

		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(md.In(y, loc))
		event.Props.Set(dtStartProp)

		if reminderTrigger != "" {
			addAlarm(event, reminderTrigger, summary)
		}
		events = append(events, event)
	}
	return events
}

func (g *Generator) summary(t EventType, name string) string {
	if g.FormatSummary != nil {
		return g.FormatSummary(t, name)
	}
	if t == EventAnniversary {
		return fmt.Sprintf(config.FallbackSummaryAnniv, name)
	}
	return fmt.Sprintf(config.FallbackSummaryBirthday, name)
}

// eventUIDBase hashes the contact identity into a compact, URL-safe prefix.
func eventUIDBase(c Contact) string {
	input := fmt.Sprintf(config.FormatHashInput, c.ID, c.Name, config.UIDNamespace)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x", hash[:config.UIDHashLength])
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set the value directly to avoid a "VALUE=TEXT" parameter.
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}
