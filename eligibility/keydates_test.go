package eligibility_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/promotion-engine/eligibility"
	"github.com/warp/promotion-engine/generic"
)

// =============================================================================
// RESOLVER TESTS
// =============================================================================

func TestResolve_YearShift(t *testing.T) {
	policy := eligibility.DefaultPolicy()

	// GIVEN: SSG cuts off in January, SMS in July
	ssg, err := policy.Resolve(eligibility.GradeSSG, 2025)
	require.NoError(t, err)
	sms, err := policy.Resolve(eligibility.GradeSMS, 2025)
	require.NoError(t, err)

	// THEN: only the first-quarter cutoff moves to the next calendar year
	assert.Equal(t, 2026, ssg.SelectionCutoff().Year())
	assert.Equal(t, 2025, sms.SelectionCutoff().Year())
}

func TestCutoffYear(t *testing.T) {
	assert.Equal(t, 2026, eligibility.CutoffYear(time.January, 2025))
	assert.Equal(t, 2026, eligibility.CutoffYear(time.March, 2025))
	assert.Equal(t, 2025, eligibility.CutoffYear(time.April, 2025))
	assert.Equal(t, 2025, eligibility.CutoffYear(time.November, 2025))
}

func TestResolve_DefaultGrades(t *testing.T) {
	policy := eligibility.DefaultPolicy()

	tests := []struct {
		grade      eligibility.Grade
		cutoff     generic.TimePoint
		tig        generic.TimePoint
		tis        generic.TimePoint
		mdos       generic.TimePoint
		accounting string
	}{
		{eligibility.GradeAB, date(2026, 3, 31), date(2025, 9, 30), date(2025, 12, 31), date(2026, 9, 1), "2025-12-03T23:59:59Z"},
		{eligibility.GradeAMN, date(2026, 3, 31), date(2025, 9, 30), date(2025, 9, 30), date(2026, 9, 1), "2025-12-03T23:59:59Z"},
		{eligibility.GradeA1C, date(2026, 3, 31), date(2025, 5, 31), date(2024, 12, 31), date(2026, 9, 1), "2025-12-03T23:59:59Z"},
		{eligibility.GradeSRA, date(2026, 3, 31), date(2025, 9, 30), date(2023, 3, 31), date(2026, 9, 1), "2025-12-03T23:59:59Z"},
		{eligibility.GradeSSG, date(2026, 1, 31), date(2024, 2, 29), date(2021, 1, 31), date(2026, 8, 1), "2025-10-03T23:59:59Z"},
		{eligibility.GradeTSG, date(2025, 11, 30), date(2023, 11, 30), date(2017, 11, 30), date(2026, 8, 1), "2025-08-03T23:59:59Z"},
		{eligibility.GradeMSG, date(2025, 9, 30), date(2024, 1, 30), date(2014, 9, 30), date(2026, 4, 1), "2025-06-03T23:59:59Z"},
		{eligibility.GradeSMS, date(2025, 7, 31), date(2023, 10, 31), date(2011, 7, 31), date(2026, 1, 1), "2025-04-03T23:59:59Z"},
	}

	for _, tt := range tests {
		t.Run(string(tt.grade), func(t *testing.T) {
			ctx, err := policy.Resolve(tt.grade, 2025)
			require.NoError(t, err)

			assert.True(t, ctx.SelectionCutoff().Equal(tt.cutoff), "cutoff %s", ctx.SelectionCutoff())
			assert.True(t, ctx.TimeInGradeThreshold().Equal(tt.tig), "TIG %s", ctx.TimeInGradeThreshold())
			assert.True(t, ctx.TimeInServiceThreshold().Equal(tt.tis), "TIS %s", ctx.TimeInServiceThreshold())
			assert.True(t, ctx.MandatorySeparation().Equal(tt.mdos), "MDOS %s", ctx.MandatorySeparation())
			assert.Equal(t, tt.accounting, ctx.AccountingWindowEnd().String())
			assert.Equal(t, tt.grade, ctx.Grade())
			assert.Equal(t, 2025, ctx.Year())
		})
	}
}

func TestResolve_TimeInGradeClampsToMonthEnd(t *testing.T) {
	// GIVEN: a 31 March cutoff and a one-month TIG requirement
	policy := eligibility.DefaultPolicy()
	gp := policy.Grades[eligibility.GradeSRA]
	gp.TimeInGradeMonths = 1
	policy.Grades[eligibility.GradeSRA] = gp

	// WHEN: resolving a leap and a non-leap year
	leap, err := policy.Resolve(eligibility.GradeSRA, 2023)
	require.NoError(t, err)
	plain, err := policy.Resolve(eligibility.GradeSRA, 2025)
	require.NoError(t, err)

	// THEN: the threshold is the last day of February, never early March
	assert.Equal(t, "2024-02-29", leap.TimeInGradeThreshold().String())
	assert.Equal(t, "2026-02-28", plain.TimeInGradeThreshold().String())
}

func TestResolve_UnknownGradeOrYear(t *testing.T) {
	policy := eligibility.DefaultPolicy()

	tests := []struct {
		name  string
		grade eligibility.Grade
		year  int
	}{
		{"grade not in table", eligibility.GradeCMS, 2025},
		{"officer grade", eligibility.GradeCPT, 2025},
		{"year after range", eligibility.GradeSSG, 2031},
		{"year before range", eligibility.GradeSSG, 2019},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := policy.Resolve(tt.grade, tt.year)
			require.Error(t, err)
			assert.True(t, errors.Is(err, generic.ErrUnknownGrade))
			assert.True(t, generic.IsClientError(err))

			var unknown *generic.UnknownGradeError
			require.True(t, errors.As(err, &unknown))
			assert.Equal(t, string(tt.grade), unknown.Grade)
			assert.Equal(t, tt.year, unknown.Year)
		})
	}
}

// =============================================================================
// HIGH YEAR OF TENURE
// =============================================================================

func TestTenureRule_ExceptionWindow(t *testing.T) {
	ctx, err := eligibility.DefaultPolicy().Resolve(eligibility.GradeSSG, 2025)
	require.NoError(t, err)
	hyt := ctx.HighYearOfTenure()
	assert.Equal(t, 20, hyt.CapYears())

	// Standard date 2024-01-01 is inside the window: the 22-year cap applies.
	assert.Equal(t, "2026-01-01", hyt.DateFor(date(2004, 1, 1)).String())
	// Standard date 2023-06-01 is before the window: the 20-year cap applies.
	assert.Equal(t, "2023-06-01", hyt.DateFor(date(2003, 6, 1)).String())
	// Standard date 2026-09-30 is on the window end, which is excluded.
	assert.Equal(t, "2026-09-30", hyt.DateFor(date(2006, 9, 30)).String())
}

// =============================================================================
// BOARD
// =============================================================================

func TestNewBoard_ResolvesFeeders(t *testing.T) {
	board := newBoard(t, eligibility.DefaultPolicy(), eligibility.GradeSRA, 2025)

	assert.True(t, board.Considers(eligibility.GradeSRA))
	assert.True(t, board.Considers(eligibility.GradeA1C))
	assert.False(t, board.Considers(eligibility.GradeSSG))

	ctx, ok := board.ContextFor(eligibility.GradeA1C)
	require.True(t, ok)
	assert.Equal(t, eligibility.GradeA1C, ctx.Grade())

	_, ok = board.ContextFor(eligibility.GradeSSG)
	assert.False(t, ok)
}

func TestNewBoard_Errors(t *testing.T) {
	policy := eligibility.DefaultPolicy()

	// CMS is the top grade: there is nothing to promote into.
	_, err := eligibility.NewBoard(policy, eligibility.Cycle{Grade: eligibility.GradeCMS, Year: 2025})
	assert.True(t, errors.Is(err, generic.ErrUnknownGrade))

	_, err = eligibility.NewBoard(policy, eligibility.Cycle{Grade: eligibility.GradeSRA, Year: 2040})
	assert.True(t, errors.Is(err, generic.ErrUnknownGrade))
}

// =============================================================================
// ACCOUNTING WINDOW
// =============================================================================

func TestCheckAccountingWindow(t *testing.T) {
	ctx, err := eligibility.DefaultPolicy().Resolve(eligibility.GradeSRA, 2025)
	require.NoError(t, err)

	ok, why := eligibility.CheckAccountingWindow(generic.DateOf(2025, time.December, 3), ctx)
	assert.True(t, ok)
	assert.Empty(t, why)

	ok, why = eligibility.CheckAccountingWindow(generic.DateOf(2025, time.December, 4), ctx)
	assert.False(t, ok)
	assert.Equal(t, "arrived 2025-12-04, after accounting date 2025-12-03", why)

	ok, why = eligibility.CheckAccountingWindow(generic.Absent(), ctx)
	assert.False(t, ok)
	assert.Equal(t, eligibility.ReasonMissingData, why)
}
