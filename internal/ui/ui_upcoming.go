package ui

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-celebrations/internal/config"
	"github.com/tartampluch/go-celebrations/internal/engine"
)

// ShowUpcomingWindow displays the upcoming celebrations of the last sync.
// If the window is already open, it requests focus.
func (app *CelebrationsApp) ShowUpcomingWindow() {
	if app.upcomingWindow != nil {
		app.upcomingWindow.RequestFocus()
		return
	}

	app.upcomingWindow = app.App.NewWindow(app.Locale.GetMsg(config.TKeyWinUpcoming))
	app.upcomingWindow.Resize(fyne.NewSize(config.UpcomingWinWidth, config.UpcomingWinHeight))

	// Local copy: the next sync may replace the snapshot while the window is open.
	var events []engine.UpcomingEvent
	var stats engine.Stats
	if snap := app.Snapshot(); snap != nil {
		events = append(events, snap.Upcoming...)
		stats = snap.Stats
	}

	slog.Info(config.LogMsgOpenWin,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyCount, len(events))

	currentSortCol := config.ColIDWhen
	sortAsc := true

	table := widget.NewTable(
		func() (int, int) {
			return len(events), config.ColCount
		},
		func() fyne.CanvasObject {
			return widget.NewLabel(config.TablePlaceholder)
		},
		func(id widget.TableCellID, o fyne.CanvasObject) {
			if id.Row >= len(events) {
				return
			}
			o.(*widget.Label).SetText(app.cellText(events[id.Row], id.Col))
		},
	)

	table.ShowHeaderRow = true
	table.CreateHeader = func() fyne.CanvasObject {
		return widget.NewButton("Header", func() {})
	}
	table.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		btn := o.(*widget.Button)
		text := app.headerText(id.Col)
		if id.Col == currentSortCol {
			if sortAsc {
				text += config.SortIconAsc
			} else {
				text += config.SortIconDesc
			}
		}
		btn.SetText(text)

		btn.OnTapped = func() {
			if currentSortCol == id.Col {
				sortAsc = !sortAsc
			} else {
				currentSortCol = id.Col
				sortAsc = true
			}
			sortUpcoming(events, currentSortCol, sortAsc)
			slog.Debug(config.LogMsgSorted,
				config.LogKeyComponent, config.CompUI,
				config.LogKeySortCol, currentSortCol,
				config.LogKeySortAsc, sortAsc)
			table.Refresh()
		}
	}

	table.SetColumnWidth(config.ColIDName, config.ColWidthName)
	table.SetColumnWidth(config.ColIDEvent, config.ColWidthEvent)
	table.SetColumnWidth(config.ColIDDate, config.ColWidthDate)
	table.SetColumnWidth(config.ColIDWhen, config.ColWidthWhen)

	var body fyne.CanvasObject = table
	if len(events) == 0 {
		body = container.NewCenter(widget.NewLabel(app.Locale.GetMsg(config.TKeyNoUpcoming)))
	}

	content := container.NewBorder(widget.NewLabel(app.statsLine(stats)), nil, nil, nil, body)
	app.upcomingWindow.SetContent(content)

	app.upcomingWindow.SetOnClosed(func() {
		app.upcomingWindow = nil
	})

	app.upcomingWindow.Show()
}

// cellText renders one table cell.
func (app *CelebrationsApp) cellText(e engine.UpcomingEvent, col int) string {
	switch col {
	case config.ColIDName:
		return e.ContactName
	case config.ColIDEvent:
		return app.Locale.EventType(e.EventType)
	case config.ColIDDate:
		return e.OccurrenceDate.Format(app.Locale.DateFormat())
	case config.ColIDWhen:
		return app.Locale.DaysUntil(e.DaysUntil)
	default:
		return ""
	}
}

func (app *CelebrationsApp) headerText(col int) string {
	switch col {
	case config.ColIDName:
		return app.Locale.GetMsg(config.TKeyColName)
	case config.ColIDEvent:
		return app.Locale.GetMsg(config.TKeyColEvent)
	case config.ColIDDate:
		return app.Locale.GetMsg(config.TKeyColDate)
	default:
		return app.Locale.GetMsg(config.TKeyColWhen)
	}
}

// statsLine summarizes the dashboard counters above the table.
func (app *CelebrationsApp) statsLine(s engine.Stats) string {
	parts := []string{
		fmt.Sprintf("%s: %d", app.Locale.GetMsg(config.TKeyStatsContacts), s.TotalContacts),
		fmt.Sprintf("%s: %d", app.Locale.GetMsg(config.TKeyStatsWithDates), s.WithDates),
		fmt.Sprintf("%s: %d", app.Locale.GetMsg(config.TKeyStatsToday), s.Today),
	}
	return strings.Join(parts, "  |  ")
}

// sortUpcoming orders events in place by the given column. Ties keep the
// resolver order, which is already by proximity.
func sortUpcoming(events []engine.UpcomingEvent, col int, asc bool) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !asc {
			a, b = b, a
		}
		switch col {
		case config.ColIDName:
			return strings.ToLower(a.ContactName) < strings.ToLower(b.ContactName)
		case config.ColIDEvent:
			return a.EventType < b.EventType
		default: // Date and When share the same order.
			return a.DaysUntil < b.DaysUntil
		}
	})
}
