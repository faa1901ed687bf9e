/*
keydates.go - Key-Date Resolver

PURPOSE:
  Derives the cutoff dates every later rule compares against. Resolution is
  a pure function of (grade, cycle year) and the PolicyTable; it runs once
  per grade per board and the result is never mutated.

DERIVATION (grade policy gp, cycle year Y):
  cutoff        gp.Cutoff in Y, or in Y+1 when the month is Jan/Feb/Mar
  TIG threshold cutoff - gp.TimeInGradeMonths (calendar months)
  TIS threshold cutoff - gp.TimeInServiceYears (as calendar months)
  MDOS          cutoff + gp.SeparationOffset
  accounting    (cutoff - AccountingWindowDays) moved to AccountingCloseDay
                of that month, 23:59:59
  HYT           per member: total service date + tenure cap, with the
                exception table overriding the cap inside its windows

YEAR SHIFT:
  Boards whose cutoff falls in the first calendar quarter belong to the
  fiscal cycle that started the previous year. Missing the shift moves every
  threshold by a year.

SEE ALSO:
  - policy.go: GradePolicy and the default tables
  - accounting.go: Uses AccountingWindowEnd
*/
package eligibility

import (
	"time"

	"github.com/warp/promotion-engine/generic"
)

// =============================================================================
// CYCLE CONTEXT
// =============================================================================

// CycleContext holds the resolved dates for one grade on one board.
type CycleContext struct {
	grade Grade
	year  int

	selectionCutoff        generic.TimePoint
	timeInGradeThreshold   generic.TimePoint
	timeInServiceThreshold generic.TimePoint
	highYearOfTenure       TenureRule
	mandatorySeparation    generic.TimePoint
	accountingWindowEnd    generic.TimePoint
}

func (c *CycleContext) Grade() Grade                              { return c.grade }
func (c *CycleContext) Year() int                                 { return c.year }
func (c *CycleContext) SelectionCutoff() generic.TimePoint        { return c.selectionCutoff }
func (c *CycleContext) TimeInGradeThreshold() generic.TimePoint   { return c.timeInGradeThreshold }
func (c *CycleContext) TimeInServiceThreshold() generic.TimePoint { return c.timeInServiceThreshold }
func (c *CycleContext) HighYearOfTenure() TenureRule              { return c.highYearOfTenure }
func (c *CycleContext) MandatorySeparation() generic.TimePoint    { return c.mandatorySeparation }
func (c *CycleContext) AccountingWindowEnd() generic.TimePoint    { return c.accountingWindowEnd }

// TenureRule computes a member's high-year-of-tenure date.
type TenureRule struct {
	grade      Grade
	capYears   int
	exceptions []TenureException
}

// CapYears is the standard cap for the grade.
func (t TenureRule) CapYears() int { return t.capYears }

// DateFor returns total service date plus the tenure cap. When the standard
// date falls inside an exception window that configures this grade, the
// exception cap is used instead.
func (t TenureRule) DateFor(totalService generic.TimePoint) generic.TimePoint {
	standard := totalService.AddYears(t.capYears)
	for _, ex := range t.exceptions {
		if years, ok := ex.Caps[t.grade]; ok && ex.Window.StrictlyContains(standard) {
			return totalService.AddYears(years)
		}
	}
	return standard
}

// =============================================================================
// RESOLVER
// =============================================================================

// CutoffYear applies the year-shift rule.
func CutoffYear(cutoffMonth time.Month, cycleYear int) int {
	if cutoffMonth <= time.March {
		return cycleYear + 1
	}
	return cycleYear
}

// Resolve derives the CycleContext for grade in cycle year. It fails with
// *generic.UnknownGradeError when the table has no thresholds for the pair.
func (p *PolicyTable) Resolve(grade Grade, year int) (*CycleContext, error) {
	gp, ok := p.Grades[grade]
	if !ok || !p.YearRange.Contains(year) {
		return nil, &generic.UnknownGradeError{Grade: string(grade), Year: year}
	}

	cutoff := gp.Cutoff.In(CutoffYear(gp.Cutoff.Month, year))
	accounting := cutoff.AddDays(-p.AccountingWindowDays)

	return &CycleContext{
		grade:                  grade,
		year:                   year,
		selectionCutoff:        cutoff,
		timeInGradeThreshold:   cutoff.AddMonths(-gp.TimeInGradeMonths),
		timeInServiceThreshold: cutoff.AddMonths(-gp.TimeInServiceMonths()),
		highYearOfTenure: TenureRule{
			grade:      grade,
			capYears:   gp.TenureYears,
			exceptions: p.TenureExceptions,
		},
		mandatorySeparation: cutoff.AddMonths(gp.SeparationOffset.Months).AddDays(gp.SeparationOffset.Days),
		accountingWindowEnd: generic.EndOfDay(accounting.Year(), accounting.Month(), p.AccountingCloseDay),
	}, nil
}

// =============================================================================
// BOARD - Contexts for every grade a cycle considers
// =============================================================================

// Board bundles one cycle with the resolved contexts of its own grade and
// its feeder grades.
type Board struct {
	cycle    Cycle
	policy   *PolicyTable
	contexts map[Grade]*CycleContext
}

// NewBoard resolves every context the cycle needs. Any unresolvable grade
// aborts the whole cycle.
func NewBoard(policy *PolicyTable, cycle Cycle) (*Board, error) {
	if _, ok := cycle.Target(); !ok {
		return nil, &generic.UnknownGradeError{Grade: string(cycle.Grade), Year: cycle.Year}
	}

	grades := append([]Grade{cycle.Grade}, policy.Feeders[cycle.Grade]...)
	contexts := make(map[Grade]*CycleContext, len(grades))
	for _, g := range grades {
		ctx, err := policy.Resolve(g, cycle.Year)
		if err != nil {
			return nil, err
		}
		contexts[g] = ctx
	}
	return &Board{cycle: cycle, policy: policy, contexts: contexts}, nil
}

func (b *Board) Cycle() Cycle         { return b.cycle }
func (b *Board) Policy() *PolicyTable { return b.policy }

// ContextFor returns the resolved context for members of grade g.
func (b *Board) ContextFor(g Grade) (*CycleContext, bool) {
	ctx, ok := b.contexts[g]
	return ctx, ok
}

// Considers reports whether members of grade g belong on this board.
func (b *Board) Considers(g Grade) bool {
	return g == b.cycle.Grade || b.policy.IsFeeder(b.cycle.Grade, g)
}
