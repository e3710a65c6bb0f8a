package engine_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-celebrations/internal/engine"
	"github.com/teambition/rrule-go"
)

func md(month time.Month, day int) *engine.MonthDay {
	return &engine.MonthDay{Month: month, Day: day}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveUpcoming_Properties(t *testing.T) {
	contacts := []engine.Contact{
		{ID: "1", Name: "Alice", Birthday: md(time.January, 5)},
		{ID: "2", Name: "Bob", Birthday: md(time.December, 20), Anniversary: md(time.December, 25)},
		{ID: "3", Name: "Carol"},
		{ID: "4", Name: "Dan", Anniversary: md(time.March, 1)},
	}
	ref := date(2025, time.December, 20)

	t.Run("No past events and window respected", func(t *testing.T) {
		for _, window := range []int{0, 1, 16, 30, 365, 400} {
			events, err := engine.ResolveUpcoming(contacts, ref, window)
			require.NoError(t, err)
			for _, e := range events {
				assert.GreaterOrEqual(t, e.DaysUntil, 0)
				assert.LessOrEqual(t, e.DaysUntil, window)
				assert.False(t, e.OccurrenceDate.Before(ref), "occurrence %s is in the past", e.OccurrenceDate)
			}
		}
	})

	t.Run("Idempotence", func(t *testing.T) {
		first, err := engine.ResolveUpcoming(contacts, ref, 365)
		require.NoError(t, err)
		second, err := engine.ResolveUpcoming(contacts, ref, 365)
		require.NoError(t, err)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("ResolveUpcoming not deterministic (-first +second):\n%s", diff)
		}
	})

	t.Run("Today exact", func(t *testing.T) {
		events, err := engine.ResolveUpcoming(contacts, ref, 0)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "Bob", events[0].ContactName)
		assert.Equal(t, engine.EventBirthday, events[0].EventType)
		assert.Equal(t, 0, events[0].DaysUntil)
		assert.Equal(t, ref, events[0].OccurrenceDate)
	})

	t.Run("Year wraparound", func(t *testing.T) {
		events, err := engine.ResolveUpcoming(contacts[:1], ref, 30)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, date(2026, time.January, 5), events[0].OccurrenceDate)
		assert.Equal(t, 16, events[0].DaysUntil)
	})

	t.Run("No date no event", func(t *testing.T) {
		events, err := engine.ResolveUpcoming(contacts[2:3], ref, 366)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("Two events per contact", func(t *testing.T) {
		events, err := engine.ResolveUpcoming(contacts[1:2], ref, 30)
		require.NoError(t, err)
		want := []engine.UpcomingEvent{
			{ContactID: "2", ContactName: "Bob", EventType: engine.EventBirthday, OccurrenceDate: date(2025, time.December, 20), DaysUntil: 0},
			{ContactID: "2", ContactName: "Bob", EventType: engine.EventAnniversary, OccurrenceDate: date(2025, time.December, 25), DaysUntil: 5},
		}
		if diff := cmp.Diff(want, events); diff != "" {
			t.Errorf("unexpected events (-want +got):\n%s", diff)
		}
	})
}

func TestResolveUpcoming_Ordering(t *testing.T) {
	ref := date(2025, time.June, 1)
	contacts := []engine.Contact{
		{Name: "Ten", Birthday: md(time.June, 11)},
		{Name: "Zero", Birthday: md(time.June, 1)},
		{Name: "Five", Birthday: md(time.June, 6)},
	}

	events, err := engine.ResolveUpcoming(contacts, ref, 30)
	require.NoError(t, err)

	days := make([]int, 0, len(events))
	names := make([]string, 0, len(events))
	for _, e := range events {
		days = append(days, e.DaysUntil)
		names = append(names, e.ContactName)
	}
	assert.Equal(t, []int{0, 5, 10}, days)
	assert.Equal(t, []string{"Zero", "Five", "Ten"}, names)
}

func TestResolveUpcoming_StableTies(t *testing.T) {
	// Same day for everyone: input order, birthday before anniversary.
	ref := date(2025, time.June, 1)
	contacts := []engine.Contact{
		{Name: "B", Birthday: md(time.June, 3), Anniversary: md(time.June, 3)},
		{Name: "A", Anniversary: md(time.June, 3)},
		{Name: "C", Birthday: md(time.June, 3)},
	}

	events, err := engine.ResolveUpcoming(contacts, ref, 30)
	require.NoError(t, err)

	got := make([]string, 0, len(events))
	for _, e := range events {
		got = append(got, fmt.Sprintf("%s/%s", e.ContactName, e.EventType))
	}
	assert.Equal(t, []string{"B/birthday", "B/anniversary", "A/anniversary", "C/birthday"}, got)
}

func TestResolveUpcoming_WindowExclusion(t *testing.T) {
	ref := date(2025, time.January, 1)
	contacts := []engine.Contact{{Name: "March", Birthday: md(time.March, 1)}}

	events, err := engine.ResolveUpcoming(contacts, ref, 30)
	require.NoError(t, err)
	assert.Empty(t, events, "59 days out must be excluded from a 30 day window")

	events, err = engine.ResolveUpcoming(contacts, ref, 59)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 59, events[0].DaysUntil)
}

func TestResolveUpcoming_EmptyInput(t *testing.T) {
	events, err := engine.ResolveUpcoming(nil, date(2025, time.January, 1), 30)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestResolveUpcoming_NegativeWindow(t *testing.T) {
	_, err := engine.ResolveUpcoming(nil, date(2025, time.January, 1), -1)
	assert.ErrorIs(t, err, engine.ErrNegativeWindow)
}

func TestResolveUpcoming_InvalidDate(t *testing.T) {
	contacts := []engine.Contact{
		{Name: "Fine", Birthday: md(time.January, 2)},
		{Name: "Broken", Anniversary: md(time.February, 30)},
	}

	events, err := engine.ResolveUpcoming(contacts, date(2025, time.January, 1), 30)
	assert.ErrorIs(t, err, engine.ErrInvalidDate)
	assert.Contains(t, err.Error(), "Broken")
	assert.Nil(t, events)
}

func TestResolveUpcoming_DoesNotMutateInput(t *testing.T) {
	contacts := []engine.Contact{
		{ID: "x", Name: "Alice", Birthday: md(time.May, 4), Anniversary: md(time.April, 1)},
	}
	before := []engine.Contact{
		{ID: "x", Name: "Alice", Birthday: md(time.May, 4), Anniversary: md(time.April, 1)},
	}

	_, err := engine.ResolveUpcoming(contacts, date(2025, time.January, 1), 365)
	require.NoError(t, err)
	if diff := cmp.Diff(before, contacts); diff != "" {
		t.Errorf("contacts mutated (-before +after):\n%s", diff)
	}
}

func TestResolveUpcoming_TimeOfDayIgnored(t *testing.T) {
	contacts := []engine.Contact{{Name: "Eve", Birthday: md(time.March, 10)}}
	morning := time.Date(2025, time.March, 9, 0, 0, 1, 0, time.UTC)
	night := time.Date(2025, time.March, 9, 23, 59, 59, 0, time.UTC)

	a, err := engine.ResolveUpcoming(contacts, morning, 30)
	require.NoError(t, err)
	b, err := engine.ResolveUpcoming(contacts, night, 30)
	require.NoError(t, err)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, 1, a[0].DaysUntil)
	assert.Equal(t, 1, b[0].DaysUntil)
}

func TestNextOccurrence_LeapDay(t *testing.T) {
	leap := engine.MonthDay{Month: time.February, Day: 29}

	tests := []struct {
		name     string
		ref      time.Time
		wantDate time.Time
		wantDays int
	}{
		{"Non-leap year rolls to March 1", date(2025, time.February, 1), date(2025, time.March, 1), 28},
		{"Rolled date today", date(2025, time.March, 1), date(2025, time.March, 1), 0},
		{"Leap year keeps Feb 29", date(2028, time.February, 1), date(2028, time.February, 29), 28},
		{"Passed in leap year wraps to March 1", date(2028, time.March, 1), date(2029, time.March, 1), 365},
		{"Passed before leap year lands on Feb 29", date(2027, time.March, 2), date(2028, time.February, 29), 364},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, days := engine.NextOccurrence(leap, tt.ref)
			assert.Equal(t, tt.wantDate, got)
			assert.Equal(t, tt.wantDays, days)
		})
	}
}

func TestNextOccurrence_DSTTransitions(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skip("tzdata not available")
	}

	tests := []struct {
		name     string
		ref      time.Time
		target   engine.MonthDay
		wantDays int
	}{
		// 23 hour day on 2025-03-30.
		{"Spring forward", time.Date(2025, time.March, 29, 0, 0, 0, 0, paris), engine.MonthDay{Month: time.April, Day: 1}, 3},
		// 25 hour day on 2025-10-26.
		{"Fall back", time.Date(2025, time.October, 25, 0, 0, 0, 0, paris), engine.MonthDay{Month: time.October, Day: 28}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, days := engine.NextOccurrence(tt.target, tt.ref)
			assert.Equal(t, tt.wantDays, days)
			assert.Equal(t, paris, got.Location())
			assert.Equal(t, 0, got.Hour())
		})
	}
}

// TestNextOccurrence_MatchesRRule cross-checks every non-leap month/day
// against a YEARLY recurrence rule for a spread of reference dates.
func TestNextOccurrence_MatchesRRule(t *testing.T) {
	refs := []time.Time{
		date(2025, time.January, 1),
		date(2025, time.June, 15),
		date(2025, time.December, 31),
		date(2028, time.February, 28),
		date(2028, time.March, 1),
	}

	for m := time.January; m <= time.December; m++ {
		last := time.Date(2025, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
		for d := 1; d <= last; d++ {
			rule, err := rrule.NewRRule(rrule.ROption{
				Freq:       rrule.YEARLY,
				Dtstart:    date(1970, m, d),
				Bymonth:    []int{int(m)},
				Bymonthday: []int{d},
			})
			require.NoError(t, err)

			for _, ref := range refs {
				want := rule.After(ref, true)
				got, days := engine.NextOccurrence(engine.MonthDay{Month: m, Day: d}, ref)
				if !assert.True(t, want.Equal(got), "%s/%02d from %s: want %s, got %s", m, d, ref.Format(time.DateOnly), want, got) {
					return
				}
				assert.Equal(t, int(want.Sub(ref).Hours()/24), days)
			}
		}
	}
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, engine.DaysBetween(date(2025, 1, 1), time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 365, engine.DaysBetween(date(2025, 1, 1), date(2026, 1, 1)))
	assert.Equal(t, 366, engine.DaysBetween(date(2028, 1, 1), date(2029, 1, 1)))
}

func TestDaysBetween_LongSpans(t *testing.T) {
	assert.Equal(t, 118701, engine.DaysBetween(date(1700, 1, 1), date(2025, 1, 1)))
	assert.Equal(t, -118701, engine.DaysBetween(date(2025, 1, 1), date(1700, 1, 1)))
	assert.Equal(t, 146097, engine.DaysBetween(date(2000, 1, 1), date(2400, 1, 1)), "one Gregorian cycle")
}

func TestNextEvent(t *testing.T) {
	ref := date(2025, 3, 10)

	tests := []struct {
		name     string
		contact  engine.Contact
		wantOK   bool
		wantType engine.EventType
		wantDays int
	}{
		{"no dates", engine.Contact{Name: "A"}, false, "", 0},
		{"birthday only", engine.Contact{Birthday: md(3, 12)}, true, engine.EventBirthday, 2},
		{"anniversary closer", engine.Contact{Birthday: md(3, 9), Anniversary: md(4, 1)}, true, engine.EventAnniversary, 22},
		{"tie goes to birthday", engine.Contact{Birthday: md(3, 10), Anniversary: md(3, 10)}, true, engine.EventBirthday, 0},
		{"invalid date ignored", engine.Contact{Birthday: &engine.MonthDay{Month: 2, Day: 30}, Anniversary: md(3, 11)}, true, engine.EventAnniversary, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := engine.NextEvent(tt.contact, ref)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantType, got.EventType)
			assert.Equal(t, tt.wantDays, got.DaysUntil)
		})
	}
}
