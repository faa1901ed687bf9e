package generic_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/promotion-engine/generic"
)

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		name   string
		from   generic.TimePoint
		months int
		want   string
	}{
		{"plain", generic.NewTimePoint(2025, time.January, 15), 2, "2025-03-15"},
		{"31 March back one month", generic.NewTimePoint(2025, time.March, 31), -1, "2025-02-28"},
		{"leap February", generic.NewTimePoint(2024, time.March, 31), -1, "2024-02-29"},
		{"across year", generic.NewTimePoint(2025, time.November, 30), 3, "2026-02-28"},
		{"back across year", generic.NewTimePoint(2026, time.January, 31), -24, "2024-01-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.AddMonths(tt.months).String())
		})
	}

	leap := generic.NewTimePoint(2024, time.February, 29)
	assert.Equal(t, "2025-02-28", leap.AddYears(1).String())
	assert.Equal(t, "2028-02-29", leap.AddYears(4).String())
}

func TestTimePoint_DayVersusInstant(t *testing.T) {
	day := generic.NewTimePoint(2025, time.December, 3)
	end := generic.EndOfDay(2025, time.December, 3)

	// A day point compares at midnight, so it sits before the end-of-day instant.
	assert.True(t, day.Before(end))
	assert.True(t, generic.NewTimePoint(2025, time.December, 4).After(end))
	assert.Equal(t, "2025-12-03T23:59:59Z", end.String())
}

func TestMaybeDate_JSON(t *testing.T) {
	tests := []struct {
		in      string
		absent  bool
		want    string
		wantErr bool
	}{
		{in: `null`, absent: true},
		{in: `""`, absent: true},
		{in: `"2025-01-15"`, want: "2025-01-15"},
		{in: `"15/01/2025"`, wantErr: true},
		{in: `20250115`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var m generic.MaybeDate
			err := json.Unmarshal([]byte(tt.in), &m)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.absent, m.IsAbsent())
			if !tt.absent {
				assert.Equal(t, tt.want, m.String())
			}
		})
	}

	out, err := json.Marshal(struct {
		A generic.MaybeDate `json:"a"`
		B generic.MaybeDate `json:"b"`
	}{generic.Absent(), generic.DateOf(2024, time.February, 29)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": null, "b": "2024-02-29"}`, string(out))
}

func TestMonthDay(t *testing.T) {
	feb29 := generic.MonthDay{Month: time.February, Day: 29}
	assert.True(t, feb29.Valid())
	assert.Equal(t, "2025-02-28", feb29.In(2025).String())
	assert.Equal(t, "2024-02-29", feb29.In(2024).String())
	assert.Equal(t, "29-Feb", feb29.String())

	assert.False(t, generic.MonthDay{Month: time.April, Day: 31}.Valid())
	assert.False(t, generic.MonthDay{Month: 13, Day: 1}.Valid())
	assert.False(t, generic.MonthDay{Month: time.May, Day: 0}.Valid())
}

func TestPeriod(t *testing.T) {
	p := generic.SeasonIn(2026,
		generic.MonthDay{Month: time.February, Day: 1},
		generic.MonthDay{Month: time.March, Day: 31})

	assert.True(t, p.Valid())
	assert.Equal(t, "[2026-02-01, 2026-03-31]", p.String())

	start := generic.NewTimePoint(2026, time.February, 1)
	mid := generic.NewTimePoint(2026, time.March, 1)
	end := generic.NewTimePoint(2026, time.March, 31)
	after := generic.NewTimePoint(2026, time.April, 1)

	assert.True(t, p.Contains(start))
	assert.True(t, p.Contains(end))
	assert.False(t, p.Contains(after))

	assert.False(t, p.StrictlyContains(start))
	assert.True(t, p.StrictlyContains(mid))
	assert.False(t, p.StrictlyContains(end))

	assert.False(t, generic.Period{Start: end, End: start}.Valid())
}

func TestParseInputDate(t *testing.T) {
	for _, in := range []string{"2025-01-15", "15-Jan-2025", "15-JAN-2025", "15 Jan 2025", "01/15/2025", "1/15/2025", "2025/01/15", " 2025-01-15 "} {
		tp, err := generic.ParseInputDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, "2025-01-15", tp.String(), in)
	}

	_, err := generic.ParseInputDate("sometime in 2025")
	assert.Error(t, err)
	_, err = generic.ParseInputDate("2025-02-30")
	assert.Error(t, err)
}

func TestInputDate_JSON(t *testing.T) {
	tests := []struct {
		in         string
		want       string // empty when absent
		unreadable bool
	}{
		{in: `null`},
		{in: `""`},
		{in: `"2025-01-15"`, want: "2025-01-15"},
		{in: `"15-JAN-2025"`, want: "2025-01-15"},
		{in: `45672`, want: "2025-01-15"},
		{in: `"15/01/2025"`, unreadable: true},
		{in: `0`, unreadable: true},
		{in: `45672.5`, unreadable: true},
		{in: `true`, unreadable: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d generic.InputDate
			require.NoError(t, json.Unmarshal([]byte(tt.in), &d))
			assert.Equal(t, tt.unreadable, d.Unreadable())
			if tt.want == "" {
				assert.True(t, d.Date.IsAbsent())
				return
			}
			assert.Equal(t, tt.want, d.Date.String())
		})
	}

	// An unreadable value keeps its original text.
	var d generic.InputDate
	require.NoError(t, json.Unmarshal([]byte(`"15/01/2025"`), &d))
	assert.Equal(t, "15/01/2025", d.Raw)
}
