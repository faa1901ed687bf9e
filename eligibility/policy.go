/*
policy.go - Grade tables and board-wide policy configuration

PURPOSE:
  Holds every number the rules depend on: selection cutoff month/day,
  time-in-grade and time-in-service requirements, tenure caps, skill
  levels, reenlistment code lists, the accounting window and the small-unit
  threshold. A PolicyTable is external configuration: it is loaded once
  (see factory/policy.go) and passed explicitly to the resolver and the
  evaluator. Nothing reads it from package state.

KEY CONCEPTS:
  - GradePolicy: Per-grade thresholds, keyed by the member's current grade
  - TenureException: A bounded window in which the tenure cap is relaxed
  - ThreeYearRule: Total-service check for the junior grades
  - BelowZoneRule: Early-promotion windows for the most junior board grade
  - WindowExclusion: Members promoted into a grade during a month/day window
    of the target year sit out the cycle
  - Feeders: Grades evaluated on another grade's board (A1C on the SRA board)

IMMUTABILITY:
  Treat a PolicyTable as read-only once built. Evaluation runs in parallel
  and never takes locks on it.

SEE ALSO:
  - keydates.go: Turns a GradePolicy into a CycleContext
  - rules.go: Consumes the table-wide rules
  - factory/policy.go: JSON document <-> PolicyTable
*/
package eligibility

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/promotion-engine/generic"
)

// =============================================================================
// GRADE POLICY
// =============================================================================

// GradePolicy holds the thresholds for members of one grade.
type GradePolicy struct {
	// Selection cutoff (SCOD) month/day. January-March cutoffs fall in the
	// calendar year after the cycle year.
	Cutoff generic.MonthDay

	TimeInGradeMonths int

	// TimeInServiceYears may be fractional (0.25 = 3 calendar months).
	TimeInServiceYears decimal.Decimal

	// TenureYears is the standard high-year-of-tenure cap.
	TenureYears int

	// SeparationOffset places the mandatory separation date after the cutoff.
	SeparationOffset Offset

	// SkillLevel is the minimum skill digit; empty disables the check.
	SkillLevel string
}

// Offset is a calendar distance: whole months first, then days.
type Offset struct {
	Months int
	Days   int
}

var twelve = decimal.NewFromInt(12)

// TimeInServiceMonths converts the service-year requirement to calendar months.
func (gp GradePolicy) TimeInServiceMonths() int {
	return int(gp.TimeInServiceYears.Mul(twelve).Round(0).IntPart())
}

// =============================================================================
// TABLE-WIDE RULES
// =============================================================================

// TenureException relaxes the tenure cap for members whose standard HYT date
// falls strictly inside Window.
type TenureException struct {
	Window generic.Period
	Caps   map[Grade]int
}

// ServiceDirection says which side of the three-year line fails.
type ServiceDirection string

const (
	// FailWhenUnder rejects members with fewer than the required months.
	FailWhenUnder ServiceDirection = "fail_when_under"
	// FailWhenOver rejects members who already have the required months.
	FailWhenOver ServiceDirection = "fail_when_over"
)

// ThreeYearRule is the total-service check applied to junior grades.
type ThreeYearRule struct {
	Grades    []Grade
	Months    int
	Direction ServiceDirection
}

// Applies reports whether members of grade g are subject to the rule.
func (r ThreeYearRule) Applies(g Grade) bool { return indexOf(r.Grades, g) >= 0 }

// BelowZoneRule configures early promotion for the most junior board grade.
//
// Standard date = date of rank + StandardMonths. At or before Anchor (in the
// cutoff year) the member competes in the zone; between Anchor and the cutoff
// the member misses the window. Past the cutoff the below-zone date (date of
// rank + BelowZoneMonths) decides.
type BelowZoneRule struct {
	Grade           Grade
	Anchor          generic.MonthDay
	StandardMonths  int
	BelowZoneMonths int
}

// WindowExclusion removes members promoted into Grade between From and To of
// the cycle's target year.
type WindowExclusion struct {
	Grade Grade
	From  generic.MonthDay
	To    generic.MonthDay
}

// YearRange bounds the cycle years the tables are valid for.
type YearRange struct {
	Min int
	Max int
}

func (yr YearRange) Contains(year int) bool { return year >= yr.Min && year <= yr.Max }

// =============================================================================
// POLICY TABLE
// =============================================================================

// PolicyTable is the complete, immutable rule configuration.
type PolicyTable struct {
	Grades    map[Grade]GradePolicy
	YearRange YearRange

	// Accounting window: cutoff minus AccountingWindowDays, then moved to
	// AccountingCloseDay of that month at end of day.
	AccountingWindowDays int
	AccountingCloseDay   int

	SmallUnitThreshold int
	SeniorGrades       []Grade

	// Feeders maps a board grade to the other grades it considers.
	Feeders map[Grade][]Grade

	TenureExceptions []TenureException
	ThreeYear        ThreeYearRule
	BelowZone        *BelowZoneRule
	WindowExclusions []WindowExclusion

	// Reenlistment codes mapped to their descriptions.
	DisqualifyingReenlistment map[string]string
	DiscrepancyReenlistment   map[string]string

	// Primary skill prefixes that skip the skill-level check.
	SkillExemptPrefixes []string

	// Unfavorable-file codes at or above this value are considered open.
	UnfavorableMinCode int
}

// IsSenior reports whether boards for grade g always get consolidated
// small-unit treatment.
func (p *PolicyTable) IsSenior(g Grade) bool { return indexOf(p.SeniorGrades, g) >= 0 }

// IsFeeder reports whether grade g is evaluated on the board for grade board.
func (p *PolicyTable) IsFeeder(board, g Grade) bool { return indexOf(p.Feeders[board], g) >= 0 }

// Validate rejects tables the resolver could not use safely.
func (p *PolicyTable) Validate() error {
	if len(p.Grades) == 0 {
		return &generic.PolicyValidationError{Field: "grades", Message: "no grades configured"}
	}
	for g, gp := range p.Grades {
		field := "grades." + string(g)
		if !g.IsEnlisted() {
			return &generic.PolicyValidationError{Field: field, Message: "not an enlisted grade"}
		}
		if !gp.Cutoff.Valid() {
			return &generic.PolicyValidationError{Field: field + ".cutoff", Message: fmt.Sprintf("invalid month/day %d/%d", gp.Cutoff.Month, gp.Cutoff.Day)}
		}
		if gp.TimeInGradeMonths < 0 {
			return &generic.PolicyValidationError{Field: field + ".tig_months", Message: "must not be negative"}
		}
		if gp.TimeInServiceYears.IsNegative() {
			return &generic.PolicyValidationError{Field: field + ".tis_years", Message: "must not be negative"}
		}
		if gp.TenureYears <= 0 {
			return &generic.PolicyValidationError{Field: field + ".tenure_years", Message: "must be positive"}
		}
		if len(gp.SkillLevel) > 1 || (gp.SkillLevel != "" && (gp.SkillLevel[0] < '0' || gp.SkillLevel[0] > '9')) {
			return &generic.PolicyValidationError{Field: field + ".skill_level", Message: "must be a single digit"}
		}
	}
	if p.YearRange.Min > p.YearRange.Max {
		return &generic.PolicyValidationError{Field: "year_range", Message: "min after max"}
	}
	if p.AccountingWindowDays < 0 {
		return &generic.PolicyValidationError{Field: "accounting_window_days", Message: "must not be negative"}
	}
	if p.AccountingCloseDay < 1 || p.AccountingCloseDay > 28 {
		return &generic.PolicyValidationError{Field: "accounting_close_day", Message: "must be between 1 and 28"}
	}
	if p.SmallUnitThreshold < 0 {
		return &generic.PolicyValidationError{Field: "small_unit_threshold", Message: "must not be negative"}
	}
	for i, ex := range p.TenureExceptions {
		if !ex.Window.Valid() {
			return &generic.PolicyValidationError{Field: fmt.Sprintf("tenure_exceptions[%d]", i), Message: "window ends before it starts"}
		}
	}
	switch p.ThreeYear.Direction {
	case FailWhenUnder, FailWhenOver:
	case "":
		if len(p.ThreeYear.Grades) > 0 {
			return &generic.PolicyValidationError{Field: "three_year_rule.direction", Message: "required when grades are set"}
		}
	default:
		return &generic.PolicyValidationError{Field: "three_year_rule.direction", Message: fmt.Sprintf("unknown direction %q", p.ThreeYear.Direction)}
	}
	if bz := p.BelowZone; bz != nil {
		if !bz.Anchor.Valid() {
			return &generic.PolicyValidationError{Field: "below_zone.anchor", Message: "invalid month/day"}
		}
		if bz.BelowZoneMonths <= 0 || bz.StandardMonths <= 0 {
			return &generic.PolicyValidationError{Field: "below_zone", Message: "months must be positive"}
		}
	}
	for i, wx := range p.WindowExclusions {
		if !wx.From.Valid() || !wx.To.Valid() {
			return &generic.PolicyValidationError{Field: fmt.Sprintf("window_exclusions[%d]", i), Message: "invalid month/day"}
		}
	}
	if err := p.validateReferences(); err != nil {
		return err
	}
	for code := range p.DisqualifyingReenlistment {
		if _, dup := p.DiscrepancyReenlistment[code]; dup {
			return &generic.PolicyValidationError{Field: "reenlistment", Message: fmt.Sprintf("code %s is both disqualifying and a discrepancy", code)}
		}
	}
	return nil
}

// validateReferences rejects rules that name a grade missing from Grades;
// such a table would load and then fail every board that touches the grade.
func (p *PolicyTable) validateReferences() error {
	known := func(field string, grades ...Grade) error {
		for _, g := range grades {
			if _, ok := p.Grades[g]; !ok {
				return &generic.PolicyValidationError{Field: field, Message: fmt.Sprintf("grade %s is not configured", g)}
			}
		}
		return nil
	}

	if err := known("senior_grades", p.SeniorGrades...); err != nil {
		return err
	}
	for board, feeders := range p.Feeders {
		field := "feeders." + string(board)
		if err := known(field, board); err != nil {
			return err
		}
		if err := known(field, feeders...); err != nil {
			return err
		}
	}
	if err := known("three_year_rule.grades", p.ThreeYear.Grades...); err != nil {
		return err
	}
	if bz := p.BelowZone; bz != nil {
		if err := known("below_zone.grade", bz.Grade); err != nil {
			return err
		}
	}
	for i, wx := range p.WindowExclusions {
		if err := known(fmt.Sprintf("window_exclusions[%d].grade", i), wx.Grade); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// DEFAULT TABLE
// =============================================================================

// DefaultPolicy returns the enlisted promotion tables in force for the
// 2020-2030 cycles.
func DefaultPolicy() *PolicyTable {
	mar31 := generic.MonthDay{Month: time.March, Day: 31}
	yrs := decimal.RequireFromString

	return &PolicyTable{
		Grades: map[Grade]GradePolicy{
			GradeAB:  {Cutoff: mar31, TimeInGradeMonths: 6, TimeInServiceYears: yrs("0.25"), TenureYears: 6, SeparationOffset: Offset{Months: 5, Days: 1}, SkillLevel: "3"},
			GradeAMN: {Cutoff: mar31, TimeInGradeMonths: 6, TimeInServiceYears: yrs("0.5"), TenureYears: 6, SeparationOffset: Offset{Months: 5, Days: 1}, SkillLevel: "3"},
			GradeA1C: {Cutoff: mar31, TimeInGradeMonths: 10, TimeInServiceYears: yrs("1.25"), TenureYears: 8, SeparationOffset: Offset{Months: 5, Days: 1}, SkillLevel: "3"},
			GradeSRA: {Cutoff: mar31, TimeInGradeMonths: 6, TimeInServiceYears: yrs("3"), TenureYears: 10, SeparationOffset: Offset{Months: 5, Days: 1}, SkillLevel: "5"},
			GradeSSG: {Cutoff: generic.MonthDay{Month: time.January, Day: 31}, TimeInGradeMonths: 23, TimeInServiceYears: yrs("5"), TenureYears: 20, SeparationOffset: Offset{Months: 6, Days: 1}, SkillLevel: "7"},
			GradeTSG: {Cutoff: generic.MonthDay{Month: time.November, Day: 30}, TimeInGradeMonths: 24, TimeInServiceYears: yrs("8"), TenureYears: 22, SeparationOffset: Offset{Months: 8, Days: 2}, SkillLevel: "7"},
			// Senior NCO skill levels are not checked.
			GradeMSG: {Cutoff: generic.MonthDay{Month: time.September, Day: 30}, TimeInGradeMonths: 20, TimeInServiceYears: yrs("11"), TenureYears: 24, SeparationOffset: Offset{Months: 6, Days: 2}},
			GradeSMS: {Cutoff: generic.MonthDay{Month: time.July, Day: 31}, TimeInGradeMonths: 21, TimeInServiceYears: yrs("14"), TenureYears: 26, SeparationOffset: Offset{Months: 5, Days: 1}},
		},
		YearRange:            YearRange{Min: 2020, Max: 2030},
		AccountingWindowDays: 119,
		AccountingCloseDay:   3,
		SmallUnitThreshold:   10,
		SeniorGrades:         []Grade{GradeMSG, GradeSMS},
		Feeders:              map[Grade][]Grade{GradeSRA: {GradeA1C}},
		TenureExceptions: []TenureException{{
			Window: generic.Period{
				Start: generic.NewTimePoint(2023, time.December, 8),
				End:   generic.NewTimePoint(2026, time.September, 30),
			},
			Caps: map[Grade]int{
				GradeAB: 8, GradeAMN: 8, GradeA1C: 10, GradeSRA: 12,
				GradeSSG: 22, GradeTSG: 24, GradeMSG: 26, GradeSMS: 28,
			},
		}},
		ThreeYear: ThreeYearRule{
			Grades:    []Grade{GradeAB, GradeAMN, GradeA1C},
			Months:    36,
			Direction: FailWhenUnder,
		},
		BelowZone: &BelowZoneRule{
			Grade:           GradeA1C,
			Anchor:          generic.MonthDay{Month: time.February, Day: 1},
			StandardMonths:  28,
			BelowZoneMonths: 22,
		},
		WindowExclusions: []WindowExclusion{{
			Grade: GradeSRA,
			From:  generic.MonthDay{Month: time.February, Day: 1},
			To:    mar31,
		}},
		DisqualifyingReenlistment: map[string]string{
			"2A": "AFPC Denied Reenlistment",
			"2B": "Discharged, General.",
			"2C": "Involuntary separation.",
			"2K": "Involuntary Separation.",
			"2M": "Sentenced under UCMJ",
			"2P": "AWOL; deserter.",
			"2W": "Retired and recalled to AD",
			"2X": "Not selected for Reenlistment.",
		},
		DiscrepancyReenlistment: map[string]string{
			"2F": "Undergoing Rehab",
			"2G": "Substance Abuse, Drugs",
			"2H": "Substance Abuse, Alcohol",
			"2J": "Under investigation",
			"4H": "Article 15.",
			"4I": "Control Roster.",
			"4L": "Separated, Commissioning program.",
			"4M": "Breach of enlistment.",
			"4N": "Convicted, Civil Court.",
		},
		SkillExemptPrefixes: []string{"8", "9"},
		UnfavorableMinCode:  1,
	}
}
