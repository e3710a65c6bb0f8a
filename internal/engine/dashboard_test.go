package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-celebrations/internal/engine"
)

func TestBuildStats(t *testing.T) {
	ref := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	contacts := []engine.Contact{
		{Name: "Today", Birthday: md(time.March, 1)},
		{Name: "Leap", Birthday: md(time.February, 29)},
		{Name: "Soon", Anniversary: md(time.March, 3)},
		{Name: "Later", Birthday: md(time.March, 20)},
		{Name: "Nothing"},
	}

	upcoming, err := engine.ResolveUpcoming(contacts, ref, 30)
	require.NoError(t, err)

	stats := engine.BuildStats(contacts, upcoming, 2)
	assert.Equal(t, 5, stats.TotalContacts)
	assert.Equal(t, 4, stats.WithDates)
	assert.Equal(t, 2, stats.Today, "leap day rolls onto March 1st")
	require.Len(t, stats.Upcoming, 2)
	assert.Equal(t, "Today", stats.Upcoming[0].ContactName)
	assert.Equal(t, "Leap", stats.Upcoming[1].ContactName)

	unlimited := engine.BuildStats(contacts, upcoming, 0)
	assert.Len(t, unlimited.Upcoming, 4)

	// The head is a copy.
	unlimited.Upcoming[0].ContactName = "changed"
	assert.Equal(t, "Today", upcoming[0].ContactName)
}

func TestBuildStats_Empty(t *testing.T) {
	stats := engine.BuildStats(nil, nil, 10)
	assert.Zero(t, stats.TotalContacts)
	assert.Zero(t, stats.Today)
	assert.NotNil(t, stats.Upcoming)
	assert.Empty(t, stats.Upcoming)
}
