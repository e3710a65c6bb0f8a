package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tartampluch/go-celebrations/internal/config"
	"golang.org/x/text/cases"
)

// Filter restricts a contact list by which recurring dates are known.
type Filter string

const (
	FilterAll         Filter = "all"
	FilterBirthday    Filter = "birthday"
	FilterAnniversary Filter = "anniversary"
	FilterBoth        Filter = "both"
)

// SortKey orders a contact list.
type SortKey string

const (
	SortName        SortKey = "name"
	SortCreated     SortKey = "created"
	SortBirthday    SortKey = "birthday"
	SortAnniversary SortKey = "anniversary"
)

// Query describes a contact list view. Zero values mean "all" and "name".
type Query struct {
	Search string
	Filter Filter
	Sort   SortKey

	// Reference is "today" for the birthday and anniversary sort keys.
	Reference time.Time
}

// ApplyQuery returns a new, filtered and sorted slice. The input is untouched.
func ApplyQuery(contacts []Contact, q Query) ([]Contact, error) {
	filter := q.Filter
	if filter == "" {
		filter = FilterAll
	}
	key := q.Sort
	if key == "" {
		key = SortName
	}

	match, err := filterFunc(filter)
	if err != nil {
		return nil, err
	}
	less, err := lessFunc(key, q.Reference)
	if err != nil {
		return nil, err
	}

	folder := cases.Fold()
	needle := folder.String(strings.TrimSpace(q.Search))

	out := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if !match(c) {
			continue
		}
		if needle != "" &&
			!strings.Contains(folder.String(c.Name), needle) &&
			!strings.Contains(folder.String(c.Email), needle) {
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}

func filterFunc(f Filter) (func(Contact) bool, error) {
	switch f {
	case FilterAll:
		return func(Contact) bool { return true }, nil
	case FilterBirthday:
		return func(c Contact) bool { return c.Birthday != nil }, nil
	case FilterAnniversary:
		return func(c Contact) bool { return c.Anniversary != nil }, nil
	case FilterBoth:
		return func(c Contact) bool { return c.Birthday != nil && c.Anniversary != nil }, nil
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrUnknownFilter, f)
	}
}

func lessFunc(key SortKey, ref time.Time) (func(a, b Contact) bool, error) {
	folder := cases.Fold()
	byName := func(a, b Contact) bool {
		return folder.String(a.Name) < folder.String(b.Name)
	}

	switch key {
	case SortName:
		return byName, nil
	case SortCreated:
		// Newest first.
		return func(a, b Contact) bool {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return byName(a, b)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}, nil
	case SortBirthday, SortAnniversary:
		t := EventType(key)
		return func(a, b Contact) bool {
			da, db := a.Date(t), b.Date(t)
			switch {
			case da == nil && db == nil:
				return byName(a, b)
			case da == nil:
				return false // Unknown dates go to the bottom.
			case db == nil:
				return true
			}
			_, na := NextOccurrence(*da, ref)
			_, nb := NextOccurrence(*db, ref)
			if na == nb {
				return byName(a, b)
			}
			return na < nb
		}, nil
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrUnknownSort, key)
	}
}
