package generic

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// =============================================================================
// TIME POINT - Calendar date abstraction (every policy rule is date-based)
// =============================================================================

type TimePoint struct {
	Time        time.Time
	Granularity Granularity
}

type Granularity int

const (
	GranularityDay Granularity = iota
	GranularityInstant
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Granularity: GranularityDay}
}

// EndOfDay returns the last second of the given day as an instant.
func EndOfDay(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 23, 59, 59, 0, time.UTC), Granularity: GranularityInstant}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, err
	}
	return NewTimePoint(t.Year(), t.Month(), t.Day()), nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.Before(other) || tp.Equal(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return tp.After(other) || tp.Equal(other) }

func (tp TimePoint) normalize() time.Time {
	if tp.Granularity == GranularityDay {
		return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
	}
	return tp.Time
}

// =============================================================================
// ARITHMETIC
// =============================================================================

func (tp TimePoint) AddDays(n int) TimePoint {
	return TimePoint{Time: tp.Time.AddDate(0, 0, n), Granularity: tp.Granularity}
}

// AddMonths moves by calendar months. When the source day does not exist in
// the target month the result is clamped to that month's last day, so
// 31 March minus one month is the last day of February, never 3 March.
func (tp TimePoint) AddMonths(n int) TimePoint {
	t := tp.Time
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC).AddDate(0, n, 0)
	day := t.Day()
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return TimePoint{
		Time:        time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC),
		Granularity: tp.Granularity,
	}
}

// AddYears moves by whole years with the same clamping as AddMonths
// (29 February plus one year is 28 February).
func (tp TimePoint) AddYears(n int) TimePoint { return tp.AddMonths(12 * n) }

// WithDay returns the same month with the day replaced, clamped to the month.
func (tp TimePoint) WithDay(day int) TimePoint {
	if last := daysIn(tp.Year(), tp.Month()); day > last {
		day = last
	}
	return TimePoint{Time: time.Date(tp.Year(), tp.Month(), day, 0, 0, 0, 0, time.UTC), Granularity: GranularityDay}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Properties
func (tp TimePoint) Year() int         { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Day() int          { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool      { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	if tp.Granularity == GranularityDay {
		return tp.Time.Format(DateLayout)
	}
	return tp.Time.Format(time.RFC3339)
}

// MarshalJSON renders day points as YYYY-MM-DD and instants as RFC 3339.
func (tp TimePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(tp.String())
}

// =============================================================================
// MAYBE DATE - A calendar date or an explicit "absent" marker
// =============================================================================

// MaybeDate holds either a valid calendar date or nothing. Upstream adapters
// resolve raw strings before records reach the rules, so rule code only ever
// asks Get().
type MaybeDate struct {
	date  TimePoint
	valid bool
}

// Some wraps a present date.
func Some(tp TimePoint) MaybeDate { return MaybeDate{date: tp, valid: true} }

// Absent is the explicit missing-date marker.
func Absent() MaybeDate { return MaybeDate{} }

// DateOf is shorthand for Some(NewTimePoint(...)).
func DateOf(year int, month time.Month, day int) MaybeDate {
	return Some(NewTimePoint(year, month, day))
}

func (m MaybeDate) Get() (TimePoint, bool) { return m.date, m.valid }
func (m MaybeDate) IsAbsent() bool         { return !m.valid }

func (m MaybeDate) String() string {
	if !m.valid {
		return "absent"
	}
	return m.date.String()
}

func (m MaybeDate) MarshalJSON() ([]byte, error) {
	if !m.valid {
		return []byte("null"), nil
	}
	return m.date.MarshalJSON()
}

// UnmarshalJSON accepts null, "" or a YYYY-MM-DD string.
func (m *MaybeDate) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*m = Absent()
		return nil
	}
	tp, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*m = Some(tp)
	return nil
}

// =============================================================================
// INPUT DATE - A roster date as submitted, possibly unreadable
// =============================================================================

// inputLayouts are the spellings roster exports use, tried in order. Month
// names match case-insensitively, so 15-JAN-2025 reads as 15-Jan-2025.
var inputLayouts = []string{
	DateLayout,
	"02-Jan-2006",
	"2-Jan-2006",
	"02 Jan 2006",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	time.RFC3339,
}

// Spreadsheet serial day numbers count from 30 Dec 1899; the upper bound
// is 31 Dec 9999.
const maxSerialDay = 2958465

var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseInputDate reads any of the accepted roster date spellings.
func ParseInputDate(s string) (TimePoint, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range inputLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return NewTimePoint(t.Year(), t.Month(), t.Day()), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return TimePoint{}, fmt.Errorf("unrecognized date %q: %w", s, firstErr)
}

// FromSerialDay converts a spreadsheet serial day number.
func FromSerialDay(n int) (TimePoint, bool) {
	if n < 1 || n > maxSerialDay {
		return TimePoint{}, false
	}
	t := serialEpoch.AddDate(0, 0, n)
	return NewTimePoint(t.Year(), t.Month(), t.Day()), true
}

// InputDate is a date as it arrived on a roster row. Decoding never fails on
// the value itself: anything unreadable leaves Date absent and keeps the
// original text in Raw, so one bad cell stays local to its row.
type InputDate struct {
	Date MaybeDate
	Raw  string
}

// Unreadable reports whether a value was present but could not be read.
func (d InputDate) Unreadable() bool { return d.Raw != "" }

func (d *InputDate) UnmarshalJSON(data []byte) error {
	*d = InputDate{}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		if tp, err := ParseInputDate(s); err == nil {
			d.Date = Some(tp)
		} else {
			d.Raw = s
		}
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil && n == math.Trunc(n) {
		if tp, ok := FromSerialDay(int(n)); ok {
			d.Date = Some(tp)
			return nil
		}
	}
	d.Raw = trimmed
	return nil
}

func (d InputDate) MarshalJSON() ([]byte, error) {
	if d.Unreadable() {
		return json.Marshal(d.Raw)
	}
	return d.Date.MarshalJSON()
}

// =============================================================================
// MONTH-DAY - A recurring calendar position with no year
// =============================================================================

// MonthDay is a position in the calendar such as "31 March".
type MonthDay struct {
	Month time.Month
	Day   int
}

// In places the month-day in a concrete year, clamped to the month.
func (md MonthDay) In(year int) TimePoint {
	return NewTimePoint(year, md.Month, 1).WithDay(md.Day)
}

// Valid reports whether the month-day exists in at least a leap year.
func (md MonthDay) Valid() bool {
	return md.Month >= time.January && md.Month <= time.December &&
		md.Day >= 1 && md.Day <= daysIn(2024, md.Month)
}

func (md MonthDay) String() string {
	return time.Date(2024, md.Month, md.Day, 0, 0, 0, 0, time.UTC).Format("02-Jan")
}
