package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tartampluch/go-celebrations/internal/config"
)

// ErrInvalidDate reports a date that cannot be turned into a month and day.
var ErrInvalidDate = errors.New(config.ErrDateInvalid)

// MonthDay is an annually recurring calendar date. The year of the source
// value is never kept.
type MonthDay struct {
	Month time.Month
	Day   int
}

// NewMonthDay validates and builds a MonthDay. February 29 is accepted.
func NewMonthDay(month time.Month, day int) (MonthDay, error) {
	md := MonthDay{Month: month, Day: day}
	if !md.Valid() {
		return MonthDay{}, fmt.Errorf("%w: %s", ErrInvalidDate, md)
	}
	return md, nil
}

// Valid reports whether the month and day exist in a leap year.
func (md MonthDay) Valid() bool {
	if md.Month < time.January || md.Month > time.December || md.Day < 1 {
		return false
	}
	// Day 0 of the following month is the last day of md.Month.
	last := time.Date(config.DefaultLeapYear, md.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return md.Day <= last
}

// String renders the vCard truncated form, e.g. "--02-29".
func (md MonthDay) String() string {
	return fmt.Sprintf(config.DateFormatMonthDay, int(md.Month), md.Day)
}

// In returns the date at midnight in the given year and location.
// Feb 29 in a non-leap year normalizes to March 1st (time.Date behavior).
func (md MonthDay) In(year int, loc *time.Location) time.Time {
	return time.Date(year, md.Month, md.Day, 0, 0, 0, 0, loc)
}

// ParseMonthDay decodes the date encodings found in contact payloads:
// ISO dates and timestamps (REST API, vCard with year), vCard truncated dates
// (--MM-DD, --MMDD) and the day-first spreadsheet forms (DD-MM, DD-MM-YYYY).
func ParseMonthDay(value string) (MonthDay, error) {
	v := strings.TrimSpace(value)

	formatsWithYear := []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
		config.DateFormatDayFirst,
	}
	for _, f := range formatsWithYear {
		if t, err := time.Parse(f, v); err == nil {
			return MonthDay{Month: t.Month(), Day: t.Day()}, nil
		}
	}

	// Without a year, time.Parse uses year 0, which is not a leap year and
	// rejects --02-29. Prefix the reference leap year instead.
	formatsWithoutYear := []string{
		config.DateFormatNoYearD,
		config.DateFormatNoYearB,
		config.DateFormatDayMonth,
	}
	for _, f := range formatsWithoutYear {
		if t, err := time.Parse("2006 "+f, fmt.Sprintf("%d %s", config.DefaultLeapYear, v)); err == nil {
			return MonthDay{Month: t.Month(), Day: t.Day()}, nil
		}
	}

	return MonthDay{}, fmt.Errorf("%w: %s %q", ErrInvalidDate, config.ErrDateParse, value)
}

// parseOptionalMonthDay treats an empty value as "no date".
func parseOptionalMonthDay(value string) (*MonthDay, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	md, err := ParseMonthDay(value)
	if err != nil {
		return nil, err
	}
	return &md, nil
}
