package generic

// =============================================================================
// PERIOD - A bounded stretch of calendar time
// =============================================================================

// Period is a closed date range [Start, End].
//
// Examples:
//   - Promotion-window exclusion: 1 Feb - 31 Mar of the target year
//   - Tenure exception window: 8 Dec 2023 - 30 Sep 2026
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// StrictlyContains returns true if the time point is within (Start, End).
func (p Period) StrictlyContains(t TimePoint) bool {
	return t.After(p.Start) && t.Before(p.End)
}

// Valid reports whether End is not before Start.
func (p Period) Valid() bool {
	return !p.End.Before(p.Start)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// SeasonIn builds the period running from one month-day to another inside a
// single calendar year.
func SeasonIn(year int, from, to MonthDay) Period {
	return Period{Start: from.In(year), End: to.In(year)}
}
