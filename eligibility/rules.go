/*
rules.go - Ordered eligibility steps

PURPOSE:
  Each step is a pure function of one evaluation (record + board) that
  either lets the record continue or decides it. The order of the steps is
  part of the policy: moving a step changes outcomes.

STEPS:
   1. grade gate          officer / unrecognized / already projected
   2. cycle match         member grade must be the board grade or a feeder
   3. missing data        required dates and codes
   4. accounting window   arrival date against the accounting window end
   5. junior rules        three-year service check, then below-zone windows
   6. window exclusion    promoted into the grade during the target-year window
   7. time in grade
   8. time in service
   9. high year of tenure
  10. unfavorable file    open file -> discrepancy
  11. reenlistment code   disqualifying -> ineligible, listed -> discrepancy
  12. skill level         no code at the required level -> discrepancy
  13. final determination eligible / eligible below zone

VERDICTS:
  Continue() passes to the next step. Decide(result) stops the chain.
  ContinueBelowZone() passes and marks the record for the below-zone list.
  There is no third option: a step cannot drop a record.

SEE ALSO:
  - evaluator.go: Folds over the steps
  - policy.go: Configuration consumed here
*/
package eligibility

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/warp/promotion-engine/generic"
)

// =============================================================================
// VERDICT
// =============================================================================

// Verdict is what a step returns: continue, or a terminal Result.
type Verdict struct {
	terminal  bool
	result    Result
	belowZone bool
}

// Continue lets the record proceed to the next step.
func Continue() Verdict { return Verdict{} }

// ContinueBelowZone lets the record proceed and flags it below the zone.
func ContinueBelowZone() Verdict { return Verdict{belowZone: true} }

// Decide stops the chain with r.
func Decide(r Result) Verdict { return Verdict{terminal: true, result: r} }

// Terminal returns the decided result, if any.
func (v Verdict) Terminal() (Result, bool) { return v.result, v.terminal }

// =============================================================================
// STEPS
// =============================================================================

type evaluation struct {
	record    Record
	board     *Board
	ctx       *CycleContext // context of the member's grade; nil if not on this board
	belowZone bool
}

type step struct {
	name  string
	check func(e evaluation) Verdict
}

var steps = []step{
	{"grade gate", checkGrade},
	{"cycle match", checkCycle},
	{"missing data", checkRequiredFields},
	{"accounting window", checkAccountingWindow},
	{"junior rules", checkJuniorRules},
	{"window exclusion", checkWindowExclusion},
	{"time in grade", checkTimeInGrade},
	{"time in service", checkTimeInService},
	{"high year of tenure", checkHighYearOfTenure},
	{"unfavorable file", checkUnfavorableFile},
	{"reenlistment code", checkReenlistmentCode},
	{"skill level", checkSkillLevel},
	{"final determination", finalDetermination},
}

// StepNames returns the rule chain in evaluation order.
func StepNames() []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.name
	}
	return names
}

func checkGrade(e evaluation) Verdict {
	g := e.record.Grade
	switch {
	case g.IsOfficer():
		return Decide(Excluded(ReasonOfficerGrade, fmt.Sprintf("grade %s", g)))
	case !g.IsEnlisted():
		return Decide(Excluded(ReasonUnrecognizedGrade, fmt.Sprintf("grade %q", g)))
	}

	projected := e.record.ProjectedGrade
	if projected == nil {
		return Continue()
	}
	cycle := e.board.Cycle()
	if target, ok := cycle.Target(); ok && *projected == target {
		return Decide(Excluded(ReasonAlreadyProjected, fmt.Sprintf("projected for %s", *projected)))
	}
	// A feeder member already projected into the board grade is not a candidate either.
	if g != cycle.Grade && *projected == cycle.Grade {
		return Decide(Excluded(ReasonAlreadyProjected, fmt.Sprintf("projected for %s", *projected)))
	}
	return Continue()
}

func checkCycle(e evaluation) Verdict {
	if !e.board.Considers(e.record.Grade) || e.ctx == nil {
		return Decide(Excluded(ReasonWrongCycle, fmt.Sprintf("grade %s on %s board", e.record.Grade, e.board.Cycle().Grade)))
	}
	return Continue()
}

func checkRequiredFields(e evaluation) Verdict {
	r := e.record
	required := []struct {
		field  string
		absent bool
	}{
		{FieldDateOfRank, r.DateOfRank.IsAbsent()},
		{FieldTotalServiceDate, r.TotalServiceDate.IsAbsent()},
		{FieldDateArrivedAtUnit, r.DateArrivedAtUnit.IsAbsent()},
		{FieldUnitCode, strings.TrimSpace(r.UnitCode) == ""},
		{FieldPrimarySkill, strings.TrimSpace(r.PrimarySkill) == ""},
		{FieldReenlistmentCode, strings.TrimSpace(r.ReenlistmentCode) == ""},
	}
	for _, f := range required {
		if f.absent {
			err := &generic.MissingFieldError{Field: f.field}
			if a, ok := r.AnomalyFor(f.field); ok {
				err.Value = a.Value
			}
			return Decide(Excluded(ReasonMissingData, err.Error()))
		}
	}
	return Continue()
}

func checkAccountingWindow(e evaluation) Verdict {
	if ok, why := CheckAccountingWindow(e.record.DateArrivedAtUnit, e.ctx); !ok {
		return Decide(Excluded(ReasonAccountingDate, why))
	}
	return Continue()
}

// checkJuniorRules runs the three-year service check before any below-zone
// logic. A failed three-year check is always reported, never skipped.
func checkJuniorRules(e evaluation) Verdict {
	policy := e.board.Policy()
	g := e.record.Grade
	cutoff := e.ctx.SelectionCutoff()

	if rule := policy.ThreeYear; rule.Applies(g) {
		tsd, _ := e.record.TotalServiceDate.Get()
		threshold := cutoff.AddMonths(-rule.Months)
		under := tsd.After(threshold)
		if (rule.Direction == FailWhenUnder && under) || (rule.Direction == FailWhenOver && !under) {
			return Decide(Ineligible(ReasonThreeYearService,
				fmt.Sprintf("total service date %s against %d-month line %s", tsd, rule.Months, threshold)))
		}
	}

	bz := policy.BelowZone
	if bz == nil || bz.Grade != g {
		return Continue()
	}

	dor, _ := e.record.DateOfRank.Get()
	anchor := bz.Anchor.In(cutoff.Year())
	standard := dor.AddMonths(bz.StandardMonths)
	switch {
	case standard.BeforeOrEqual(anchor):
		return Continue()
	case standard.BeforeOrEqual(cutoff):
		return Decide(Ineligible(ReasonBelowZoneStandard,
			fmt.Sprintf("standard date %s between %s and %s", standard, anchor, cutoff)))
	}

	// Standard window undecided: fall back to the below-zone date.
	early := dor.AddMonths(bz.BelowZoneMonths)
	if early.BeforeOrEqual(cutoff) {
		return ContinueBelowZone()
	}
	return Decide(Indeterminate(ReasonBelowZoneUndecided,
		fmt.Sprintf("standard date %s and below-zone date %s both after %s", standard, early, cutoff)))
}

func checkWindowExclusion(e evaluation) Verdict {
	dor, _ := e.record.DateOfRank.Get()
	targetYear := e.board.Cycle().Year + 1
	for _, wx := range e.board.Policy().WindowExclusions {
		if wx.Grade != e.record.Grade {
			continue
		}
		window := generic.SeasonIn(targetYear, wx.From, wx.To)
		if window.Contains(dor) {
			return Decide(Ineligible(ReasonWindowExclusion,
				fmt.Sprintf("date of rank %s in %s", dor, window)))
		}
	}
	return Continue()
}

func checkTimeInGrade(e evaluation) Verdict {
	dor, _ := e.record.DateOfRank.Get()
	if threshold := e.ctx.TimeInGradeThreshold(); dor.After(threshold) {
		return Decide(Ineligible(ReasonTimeInGrade,
			fmt.Sprintf("date of rank %s after %s", dor, threshold)))
	}
	return Continue()
}

func checkTimeInService(e evaluation) Verdict {
	tsd, _ := e.record.TotalServiceDate.Get()
	if threshold := e.ctx.TimeInServiceThreshold(); tsd.After(threshold) {
		return Decide(Ineligible(ReasonTimeInService,
			fmt.Sprintf("total service date %s after %s", tsd, threshold)))
	}
	return Continue()
}

func checkHighYearOfTenure(e evaluation) Verdict {
	tsd, _ := e.record.TotalServiceDate.Get()
	hyt := e.ctx.HighYearOfTenure().DateFor(tsd)
	if mdos := e.ctx.MandatorySeparation(); hyt.Before(mdos) {
		return Decide(Ineligible(ReasonHighYearOfTenure,
			fmt.Sprintf("HYT %s before MDOS %s", hyt, mdos)))
	}
	return Continue()
}

// checkUnfavorableFile flags open files for manual adjudication. A file is
// closed only when its disposition date is on or before the cutoff.
func checkUnfavorableFile(e evaluation) Verdict {
	code := e.record.UnfavorableCode
	if code <= 0 || code < e.board.Policy().UnfavorableMinCode {
		return Continue()
	}
	if disposed, ok := e.record.UnfavorableDisposition.Get(); ok && disposed.BeforeOrEqual(e.ctx.SelectionCutoff()) {
		return Continue()
	}
	return Decide(EligibleWithDiscrepancy(ReasonUnfavorableFile, fmt.Sprintf("UIF code %d", code)))
}

func checkReenlistmentCode(e evaluation) Verdict {
	policy := e.board.Policy()
	code := strings.ToUpper(strings.TrimSpace(e.record.ReenlistmentCode))
	if desc, ok := policy.DisqualifyingReenlistment[code]; ok {
		return Decide(Ineligible(ReasonReenlistmentCode, code+": "+desc))
	}
	if desc, ok := policy.DiscrepancyReenlistment[code]; ok {
		return Decide(EligibleWithDiscrepancy(ReasonReenlistmentCode, code+": "+desc))
	}
	return Continue()
}

func checkSkillLevel(e evaluation) Verdict {
	policy := e.board.Policy()
	required := policy.Grades[e.record.Grade].SkillLevel
	if required == "" {
		return Continue()
	}
	primary := strings.TrimSpace(e.record.PrimarySkill)
	for _, prefix := range policy.SkillExemptPrefixes {
		if prefix != "" && strings.HasPrefix(primary, prefix) {
			return Continue()
		}
	}
	for _, code := range e.record.SkillCodes() {
		if digit, ok := SkillDigit(code); ok && digit >= required[0] {
			return Continue()
		}
	}
	return Decide(EligibleWithDiscrepancy(ReasonSkillLevel, fmt.Sprintf("requires %s-level", required)))
}

func finalDetermination(e evaluation) Verdict {
	if e.belowZone {
		return Decide(EligibleBelowZone())
	}
	return Decide(Eligible())
}

// =============================================================================
// HELPERS
// =============================================================================

// SkillDigit extracts the skill-level digit from a skill code. Codes shorter
// than five characters carry no level. The digit sits at index 3, or index 4
// when the code starts with a letter prefix or '-'.
func SkillDigit(code string) (byte, bool) {
	code = strings.TrimSpace(code)
	if len(code) < 5 {
		return 0, false
	}
	idx := 3
	if first := rune(code[0]); unicode.IsLetter(first) || first == '-' {
		idx = 4
	}
	d := code[idx]
	if d < '0' || d > '9' {
		return 0, false
	}
	return d, true
}
