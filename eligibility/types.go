package eligibility

import (
	"strconv"

	"github.com/warp/promotion-engine/generic"
)

// =============================================================================
// GRADES
// =============================================================================

// Grade is a military grade abbreviation as it appears on the roster.
type Grade string

const (
	GradeAB  Grade = "AB"
	GradeAMN Grade = "AMN"
	GradeA1C Grade = "A1C"
	GradeSRA Grade = "SRA"
	GradeSSG Grade = "SSG"
	GradeTSG Grade = "TSG"
	GradeMSG Grade = "MSG"
	GradeSMS Grade = "SMS"
	GradeCMS Grade = "CMS"

	Grade2LT Grade = "2LT"
	Grade1LT Grade = "1LT"
	GradeCPT Grade = "CPT"
	GradeMAJ Grade = "MAJ"
	GradeLTC Grade = "LTC"
	GradeCOL Grade = "COL"
	GradeBG  Grade = "BG"
	GradeMG  Grade = "MG"
	GradeLTG Grade = "LTG"
	GradeGEN Grade = "GEN"
)

// EnlistedGrades in promotion order.
var EnlistedGrades = []Grade{
	GradeAB, GradeAMN, GradeA1C, GradeSRA, GradeSSG, GradeTSG, GradeMSG, GradeSMS, GradeCMS,
}

// OfficerGrades in promotion order.
var OfficerGrades = []Grade{
	Grade2LT, Grade1LT, GradeCPT, GradeMAJ, GradeLTC, GradeCOL, GradeBG, GradeMG, GradeLTG, GradeGEN,
}

func (g Grade) IsEnlisted() bool { return indexOf(EnlistedGrades, g) >= 0 }
func (g Grade) IsOfficer() bool  { return indexOf(OfficerGrades, g) >= 0 }

// Next returns the enlisted grade a member of this grade is promoted to.
func (g Grade) Next() (Grade, bool) {
	i := indexOf(EnlistedGrades, g)
	if i < 0 || i == len(EnlistedGrades)-1 {
		return "", false
	}
	return EnlistedGrades[i+1], true
}

// PayGrade returns E1..E9 or O1..O10, or "" for unrecognized grades.
func (g Grade) PayGrade() string {
	if i := indexOf(EnlistedGrades, g); i >= 0 {
		return "E" + strconv.Itoa(i+1)
	}
	if i := indexOf(OfficerGrades, g); i >= 0 {
		return "O" + strconv.Itoa(i+1)
	}
	return ""
}

func indexOf(grades []Grade, g Grade) int {
	for i, x := range grades {
		if x == g {
			return i
		}
	}
	return -1
}

// =============================================================================
// SERVICE MEMBER RECORD
// =============================================================================

// Record is one promotion-board candidate, already normalized by intake.
// Dates are either calendar dates or explicitly absent.
type Record struct {
	FullName      string
	ServiceNumber string
	Grade         Grade

	DateOfRank             generic.MaybeDate
	TotalServiceDate       generic.MaybeDate
	DateArrivedAtUnit      generic.MaybeDate
	UnfavorableDisposition generic.MaybeDate

	UnfavorableCode  int // 0 = none
	ReenlistmentCode string
	PrimarySkill     string
	AlternateSkills  [3]string
	DutySkill        string // reporting only
	ProjectedGrade   *Grade

	UnitCode string
	UnitName string

	// Anomalies are intake problems confined to this record.
	Anomalies []Anomaly
}

// SkillCodes returns the primary code followed by the alternates.
func (r Record) SkillCodes() []string {
	return []string{r.PrimarySkill, r.AlternateSkills[0], r.AlternateSkills[1], r.AlternateSkills[2]}
}

// AnomalyFor returns the first anomaly recorded against field.
func (r Record) AnomalyFor(field string) (Anomaly, bool) {
	for _, a := range r.Anomalies {
		if a.Field == field {
			return a, true
		}
	}
	return Anomaly{}, false
}

// Record field names, as they appear in details and warnings.
const (
	FieldDateOfRank             = "date of rank"
	FieldTotalServiceDate       = "total service date"
	FieldDateArrivedAtUnit      = "date arrived at unit"
	FieldUnfavorableDisposition = "unfavorable disposition date"
	FieldUnitCode               = "unit code"
	FieldPrimarySkill           = "primary skill code"
	FieldReenlistmentCode       = "reenlistment code"
	FieldAlternateSkills        = "alternate skills"
)

// Anomaly is a value intake could not use as submitted: an unreadable date
// (left absent) or alternate skills past the third (dropped).
type Anomaly struct {
	Field   string
	Value   string
	Message string
}

// =============================================================================
// CYCLE
// =============================================================================

// Cycle identifies one promotion board: the grade it promotes from and the
// cycle year.
type Cycle struct {
	Grade Grade
	Year  int
}

// Target is the grade the board promotes into.
func (c Cycle) Target() (Grade, bool) { return c.Grade.Next() }

// =============================================================================
// ELIGIBILITY RESULT
// =============================================================================

// Outcome is the classification variant.
type Outcome string

const (
	OutcomeEligible                Outcome = "eligible"
	OutcomeEligibleBelowZone       Outcome = "eligible_below_zone"
	OutcomeEligibleWithDiscrepancy Outcome = "eligible_with_discrepancy"
	OutcomeIneligible              Outcome = "ineligible"
	OutcomeExcluded                Outcome = "excluded"
	OutcomeIndeterminate           Outcome = "indeterminate"
)

// Outcomes lists every variant in reporting order.
var Outcomes = []Outcome{
	OutcomeEligible,
	OutcomeEligibleBelowZone,
	OutcomeEligibleWithDiscrepancy,
	OutcomeIneligible,
	OutcomeExcluded,
	OutcomeIndeterminate,
}

// Result is the single classification of one record. Reason is the audit
// string and must be passed through unchanged by every consumer.
type Result struct {
	Outcome Outcome
	Reason  string
	Detail  string // optional elaboration, e.g. which field was missing
	Step    string // rule that decided
}

func Eligible() Result {
	return Result{Outcome: OutcomeEligible, Reason: ReasonEligible}
}

func EligibleBelowZone() Result {
	return Result{Outcome: OutcomeEligibleBelowZone, Reason: ReasonBelowZone}
}

func EligibleWithDiscrepancy(reason, detail string) Result {
	return Result{Outcome: OutcomeEligibleWithDiscrepancy, Reason: reason, Detail: detail}
}

func Ineligible(reason, detail string) Result {
	return Result{Outcome: OutcomeIneligible, Reason: reason, Detail: detail}
}

func Excluded(reason, detail string) Result {
	return Result{Outcome: OutcomeExcluded, Reason: reason, Detail: detail}
}

func Indeterminate(reason, detail string) Result {
	return Result{Outcome: OutcomeIndeterminate, Reason: reason, Detail: detail}
}

// CountsTowardUnit reports whether the result adds to a unit's eligible count.
func (r Result) CountsTowardUnit() bool {
	return r.Outcome == OutcomeEligible || r.Outcome == OutcomeEligibleBelowZone
}

func (r Result) String() string {
	if r.Detail == "" {
		return string(r.Outcome) + ": " + r.Reason
	}
	return string(r.Outcome) + ": " + r.Reason + " (" + r.Detail + ")"
}

// Audit reasons. These strings are part of the observable contract.
const (
	ReasonEligible  = "eligible"
	ReasonBelowZone = "below zone"

	ReasonOfficerGrade      = "officer grade"
	ReasonUnrecognizedGrade = "unrecognized grade"
	ReasonAlreadyProjected  = "already projected"
	ReasonWrongCycle        = "wrong cycle"
	ReasonMissingData       = "missing data"
	ReasonAccountingDate    = "accounting date"

	ReasonThreeYearService   = "3-year TIS"
	ReasonBelowZoneStandard  = "below-zone standard window"
	ReasonBelowZoneUndecided = "below-zone undetermined"
	ReasonWindowExclusion    = "window exclusion"
	ReasonTimeInGrade        = "time in grade"
	ReasonTimeInService      = "time in service"
	ReasonHighYearOfTenure   = "HYT"
	ReasonUnfavorableFile    = "unfavorable file"
	ReasonReenlistmentCode   = "reenlistment code"
	ReasonSkillLevel         = "skill level"
	ReasonNoDecision         = "no decision"
)

// =============================================================================
// UNIT AGGREGATE
// =============================================================================

// UnitAggregate is the per-unit roll-up used by consolidated reporting.
type UnitAggregate struct {
	Code          string
	Name          string
	EligibleCount int
	Small         bool
}
