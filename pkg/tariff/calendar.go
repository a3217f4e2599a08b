package tariff

import (
	"time"

	"github.com/rickar/cal/v2/pl"
)

// HolidayCalendar answers whether a date is a Polish public holiday. Only
// dates in the year range given at construction are known; dates outside it
// are never reported as holidays, so the range must cover every year touched
// by the dataset.
type HolidayCalendar struct {
	firstYear int
	lastYear  int
	days      map[string]struct{}
}

const dateLayout = "2006-01-02"

// NewHolidayCalendar precomputes the Polish public holidays for the years
// firstYear through lastYear inclusive.
func NewHolidayCalendar(firstYear, lastYear int) *HolidayCalendar {
	c := &HolidayCalendar{
		firstYear: firstYear,
		lastYear:  lastYear,
		days:      make(map[string]struct{}),
	}
	for year := firstYear; year <= lastYear; year++ {
		for _, h := range pl.Holidays {
			actual, _ := h.Calc(year)
			if actual.IsZero() {
				continue
			}
			c.days[actual.Format(dateLayout)] = struct{}{}
		}
	}
	return c
}

// IsHoliday reports whether the date of t is a public holiday.
func (c *HolidayCalendar) IsHoliday(t time.Time) bool {
	if t.Year() < c.firstYear || t.Year() > c.lastYear {
		return false
	}
	_, ok := c.days[t.Format(dateLayout)]
	return ok
}
