package model

import "time"

const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"
)

// Day is a calendar date in YYYY-MM-DD form. It is stored as text so that
// lexical order matches calendar order on every database dialect.
type Day string

// Month is a calendar month in YYYY-MM form.
type Month string

// DayOf returns the calendar day of t in t's location.
func DayOf(t time.Time) Day {
	return Day(t.Format(DayLayout))
}

// MonthOf returns the calendar month of t in t's location.
func MonthOf(t time.Time) Month {
	return Month(t.Format(MonthLayout))
}

// Time returns midnight UTC of the day. The zero time is returned for a
// malformed day.
func (d Day) Time() time.Time {
	t, _ := time.Parse(DayLayout, string(d))
	return t
}

// Month returns the month the day belongs to.
func (d Day) Month() Month {
	if len(d) < len(MonthLayout) {
		return ""
	}
	return Month(d[:len(MonthLayout)])
}

// AddDays returns the day n days after d.
func (d Day) AddDays(n int) Day {
	return DayOf(d.Time().AddDate(0, 0, n))
}

// FirstDay returns the first day of the month.
func (m Month) FirstDay() Day {
	return Day(string(m) + "-01")
}

// LastDay returns the last day of the month.
func (m Month) LastDay() Day {
	return DayOf(m.FirstDay().Time().AddDate(0, 1, -1))
}
