package ui

import (
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-celebrations/internal/config"
	"github.com/tartampluch/go-celebrations/internal/engine"
)

// Selector entries, in display order.
var (
	contactFilters   = []engine.Filter{engine.FilterAll, engine.FilterBirthday, engine.FilterAnniversary, engine.FilterBoth}
	contactFilterKey = []string{config.TKeyFilterAll, config.TKeyFilterBirthday, config.TKeyFilterAnniv, config.TKeyFilterBoth}
	contactSorts     = []engine.SortKey{engine.SortName, engine.SortCreated, engine.SortBirthday, engine.SortAnniversary}
	contactSortKey   = []string{config.TKeySortName, config.TKeySortCreated, config.TKeySortBirthday, config.TKeySortAnniv}
)

// contactsView is the state of the open contacts window.
type contactsView struct {
	app    *CelebrationsApp
	window fyne.Window

	all   []engine.Contact
	today time.Time
	rows  []engine.Contact

	search *widget.Entry
	filter *widget.Select
	sort   *widget.Select
	table  *widget.Table
	empty  *fyne.Container
}

// ShowContactsWindow lists the contacts of the last sync. The list can be
// searched, filtered by known dates and sorted. If the window is already
// open, it requests focus.
func (app *CelebrationsApp) ShowContactsWindow() {
	if app.contacts != nil {
		app.contacts.window.RequestFocus()
		return
	}

	v := &contactsView{app: app, today: app.today()}
	if snap := app.Snapshot(); snap != nil {
		v.all = append(v.all, snap.Contacts...)
	}

	slog.Info(config.LogMsgOpenContacts,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyCount, len(v.all))

	v.window = app.App.NewWindow(app.Locale.GetMsg(config.TKeyWinContacts))
	v.window.Resize(fyne.NewSize(config.ContactsWinWidth, config.ContactsWinHeight))
	app.contacts = v

	v.table = widget.NewTable(
		func() (int, int) {
			return len(v.rows), config.ContactColCount
		},
		func() fyne.CanvasObject {
			return widget.NewLabel(config.TablePlaceholder)
		},
		func(id widget.TableCellID, o fyne.CanvasObject) {
			if id.Row >= len(v.rows) {
				return
			}
			o.(*widget.Label).SetText(v.cellText(v.rows[id.Row], id.Col))
		},
	)
	v.table.ShowHeaderRow = true
	v.table.CreateHeader = func() fyne.CanvasObject {
		return widget.NewLabel(config.TablePlaceholder)
	}
	v.table.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		o.(*widget.Label).SetText(v.headerText(id.Col))
	}
	v.table.SetColumnWidth(config.ContactColName, config.ColWidthName)
	v.table.SetColumnWidth(config.ContactColEmail, config.ColWidthEmail)
	v.table.SetColumnWidth(config.ContactColBirthday, config.ColWidthMonthDay)
	v.table.SetColumnWidth(config.ContactColAnniv, config.ColWidthMonthDay)
	v.table.SetColumnWidth(config.ContactColWhen, config.ColWidthWhen)

	v.empty = container.NewCenter(widget.NewLabel(app.Locale.GetMsg(config.TKeyNoContacts)))

	v.search = widget.NewEntry()
	v.search.SetPlaceHolder(app.Locale.GetMsg(config.TKeySearchHint))
	v.filter = widget.NewSelect(app.localizeAll(contactFilterKey), nil)
	v.filter.SetSelectedIndex(0)
	v.sort = widget.NewSelect(app.localizeAll(contactSortKey), nil)
	v.sort.SetSelectedIndex(0)

	// Wired after the initial selection so the first query runs once.
	v.search.OnChanged = func(string) { v.apply() }
	v.filter.OnChanged = func(string) { v.apply() }
	v.sort.OnChanged = func(string) { v.apply() }
	v.apply()

	selectors := container.NewHBox(
		widget.NewLabel(app.Locale.GetMsg(config.TKeyLblFilter)), v.filter,
		widget.NewLabel(app.Locale.GetMsg(config.TKeyLblSort)), v.sort,
	)
	top := container.NewBorder(nil, nil, nil, selectors, v.search)

	v.window.SetContent(container.NewBorder(top, nil, nil, nil, container.NewStack(v.table, v.empty)))
	v.window.SetOnClosed(func() {
		app.contacts = nil
	})
	v.window.Show()
}

// apply runs the current query over the contact list and refreshes the table.
func (v *contactsView) apply() {
	rows, err := engine.ApplyQuery(v.all, engine.Query{
		Search:    v.search.Text,
		Filter:    contactFilters[selectedIndex(v.filter)],
		Sort:      contactSorts[selectedIndex(v.sort)],
		Reference: v.today,
	})
	if err != nil {
		slog.Warn(config.LogMsgContactsQuery,
			config.LogKeyComponent, config.CompUI,
			config.LogKeyError, err)
		return
	}
	v.rows = rows

	slog.Debug(config.LogMsgContactsQuery,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyCount, len(rows))

	if len(rows) == 0 {
		v.table.Hide()
		v.empty.Show()
	} else {
		v.empty.Hide()
		v.table.Show()
	}
	v.table.Refresh()
}

func (v *contactsView) cellText(c engine.Contact, col int) string {
	switch col {
	case config.ContactColName:
		return c.Name
	case config.ContactColEmail:
		if c.Email == "" {
			return config.CLIEmptyCell
		}
		return c.Email
	case config.ContactColBirthday:
		return v.monthDay(c.Birthday)
	case config.ContactColAnniv:
		return v.monthDay(c.Anniversary)
	default:
		next, ok := engine.NextEvent(c, v.today)
		if !ok {
			return config.CLIEmptyCell
		}
		return v.app.Locale.DaysUntil(next.DaysUntil)
	}
}

// monthDay renders a recurring date in the short display format. The leap
// reference year keeps Feb 29 intact.
func (v *contactsView) monthDay(md *engine.MonthDay) string {
	if md == nil || !md.Valid() {
		return config.CLIEmptyCell
	}
	return md.In(config.DefaultLeapYear, time.UTC).Format(v.app.Locale.DateFormat())
}

func (v *contactsView) headerText(col int) string {
	l := v.app.Locale
	switch col {
	case config.ContactColName:
		return l.GetMsg(config.TKeyColName)
	case config.ContactColEmail:
		return l.GetMsg(config.TKeyColEmail)
	case config.ContactColBirthday:
		return l.GetMsg(config.TKeyEvtBirthday)
	case config.ContactColAnniv:
		return l.GetMsg(config.TKeyEvtAnniversary)
	default:
		return l.GetMsg(config.TKeyColWhen)
	}
}

func (app *CelebrationsApp) localizeAll(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = app.Locale.GetMsg(k)
	}
	return out
}

// selectedIndex falls back to the first option when nothing is selected.
func selectedIndex(s *widget.Select) int {
	if i := s.SelectedIndex(); i >= 0 {
		return i
	}
	return 0
}
