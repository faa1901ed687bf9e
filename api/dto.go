/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the eligibility model from the external contract. Request dates accept
  the roster spellings (YYYY-MM-DD, DD-MMM-YYYY, MM/DD/YYYY, spreadsheet
  serial numbers) or null; response dates are YYYY-MM-DD. Grades travel as
  their roster abbreviations.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Records:  RecordDTO (request side), EntryDTO (classified record)
  Rosters:  EvaluateRequest, RosterDTO, UnitDTO, WarningDTO
  Policy:   GradePolicyDTO
  Cycles:   CycleDatesDTO, GradeDatesDTO

REASONS:
  Result reasons and details are copied verbatim. Reviewers audit them
  against the rule text, so no layer may reword them.

SEE ALSO:
  - handlers.go: Uses these types
  - eligibility/types.go: Domain model
*/
package api

import (
	"fmt"
	"strings"

	"github.com/warp/promotion-engine/eligibility"
	"github.com/warp/promotion-engine/generic"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// RecordDTO is one roster row as submitted by intake.
type RecordDTO struct {
	FullName               string            `json:"full_name"`
	ServiceNumber          string            `json:"service_number"`
	Grade                  string            `json:"grade"`
	DateOfRank             generic.InputDate `json:"date_of_rank"`
	TotalServiceDate       generic.InputDate `json:"total_service_date"`
	DateArrivedAtUnit      generic.InputDate `json:"date_arrived_at_unit"`
	UnfavorableCode        int               `json:"unfavorable_code,omitempty"`
	UnfavorableDisposition generic.InputDate `json:"unfavorable_disposition"`
	ReenlistmentCode       string            `json:"reenlistment_code"`
	PrimarySkill           string            `json:"primary_skill"`
	AlternateSkills        []string          `json:"alternate_skills,omitempty"`
	DutySkill              string            `json:"duty_skill,omitempty"`
	ProjectedGrade         string            `json:"projected_grade,omitempty"`
	UnitCode               string            `json:"unit_code"`
	UnitName               string            `json:"unit_name"`
}

// EvaluateRequest is the body of POST /api/rosters/evaluate.
type EvaluateRequest struct {
	Cycle   string      `json:"cycle"`
	Year    int         `json:"year"`
	Records []RecordDTO `json:"records"`
}

// ToRecord converts the row to the domain record. Problems with individual
// values never fail the row: they are recorded as anomalies and the record
// is classified on what remains.
func (d RecordDTO) ToRecord() eligibility.Record {
	r := eligibility.Record{
		FullName:         d.FullName,
		ServiceNumber:    d.ServiceNumber,
		Grade:            normalizeGrade(d.Grade),
		UnfavorableCode:  d.UnfavorableCode,
		ReenlistmentCode: d.ReenlistmentCode,
		PrimarySkill:     d.PrimarySkill,
		DutySkill:        d.DutySkill,
		UnitCode:         strings.TrimSpace(d.UnitCode),
		UnitName:         d.UnitName,
	}
	r.DateOfRank = readDate(&r, eligibility.FieldDateOfRank, d.DateOfRank)
	r.TotalServiceDate = readDate(&r, eligibility.FieldTotalServiceDate, d.TotalServiceDate)
	r.DateArrivedAtUnit = readDate(&r, eligibility.FieldDateArrivedAtUnit, d.DateArrivedAtUnit)
	r.UnfavorableDisposition = readDate(&r, eligibility.FieldUnfavorableDisposition, d.UnfavorableDisposition)

	n := copy(r.AlternateSkills[:], d.AlternateSkills)
	if extra := d.AlternateSkills[n:]; len(extra) > 0 {
		r.Anomalies = append(r.Anomalies, eligibility.Anomaly{
			Field:   eligibility.FieldAlternateSkills,
			Value:   strings.Join(extra, ","),
			Message: fmt.Sprintf("%d alternate skills submitted, ignoring %s", len(d.AlternateSkills), strings.Join(extra, ", ")),
		})
	}

	if d.ProjectedGrade != "" {
		g := normalizeGrade(d.ProjectedGrade)
		r.ProjectedGrade = &g
	}
	return r
}

func readDate(r *eligibility.Record, field string, in generic.InputDate) generic.MaybeDate {
	if in.Unreadable() {
		r.Anomalies = append(r.Anomalies, eligibility.Anomaly{
			Field:   field,
			Value:   in.Raw,
			Message: fmt.Sprintf("unreadable date %q treated as absent", in.Raw),
		})
	}
	return in.Date
}

func normalizeGrade(s string) eligibility.Grade {
	return eligibility.Grade(strings.ToUpper(strings.TrimSpace(s)))
}

// =============================================================================
// ROSTER RESPONSE
// =============================================================================

// EntryDTO is one classified record.
type EntryDTO struct {
	Row           int    `json:"row"`
	FullName      string `json:"full_name"`
	ServiceNumber string `json:"service_number"`
	Grade         string `json:"grade"`
	UnitCode      string `json:"unit_code"`
	Outcome       string `json:"outcome"`
	Reason        string `json:"reason"`
	Detail        string `json:"detail,omitempty"`
	Step          string `json:"step,omitempty"`
}

// UnitDTO is a per-unit roll-up.
type UnitDTO struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	EligibleCount int    `json:"eligible_count"`
	Small         bool   `json:"small"`
}

// WarningDTO is a data-quality warning.
type WarningDTO struct {
	Kind     string `json:"kind"`
	Row      int    `json:"row"`
	UnitCode string `json:"unit_code,omitempty"`
	Message  string `json:"message"`
}

// RosterDTO is the evaluate response and the stored session value.
type RosterDTO struct {
	SessionID         string                `json:"session_id"`
	Cycle             string                `json:"cycle"`
	Year              int                   `json:"year"`
	Target            string                `json:"target"`
	Counts            map[string]int        `json:"counts"`
	Buckets           map[string][]EntryDTO `json:"buckets"`
	Units             []UnitDTO             `json:"units"`
	UnitCodes         []string              `json:"unit_codes"`
	SmallUnitMembers  []EntryDTO            `json:"small_unit_members"`
	Warnings          []WarningDTO          `json:"warnings"`
	SeniorRaterNeeded bool                  `json:"senior_rater_needed"`
}

func toEntryDTO(e eligibility.Entry) EntryDTO {
	return EntryDTO{
		Row:           e.Index,
		FullName:      e.Record.FullName,
		ServiceNumber: e.Record.ServiceNumber,
		Grade:         string(e.Record.Grade),
		UnitCode:      e.Record.UnitCode,
		Outcome:       string(e.Result.Outcome),
		Reason:        e.Result.Reason,
		Detail:        e.Result.Detail,
		Step:          e.Result.Step,
	}
}

func toEntryDTOs(entries []eligibility.Entry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

// toRosterDTO renders every outcome bucket, empty ones included, so clients
// can index by outcome without existence checks.
func toRosterDTO(roster *eligibility.Roster) RosterDTO {
	target, _ := roster.Cycle.Target()
	dto := RosterDTO{
		Cycle:             string(roster.Cycle.Grade),
		Year:              roster.Cycle.Year,
		Target:            string(target),
		Counts:            make(map[string]int, len(eligibility.Outcomes)),
		Buckets:           make(map[string][]EntryDTO, len(eligibility.Outcomes)),
		UnitCodes:         roster.UnitCodes(),
		SmallUnitMembers:  toEntryDTOs(roster.SmallUnitMembers()),
		Warnings:          make([]WarningDTO, len(roster.Warnings)),
		SeniorRaterNeeded: roster.SeniorRaterNeeded(),
	}
	for _, o := range eligibility.Outcomes {
		dto.Counts[string(o)] = roster.Count(o)
		dto.Buckets[string(o)] = toEntryDTOs(roster.Buckets[o])
	}
	dto.Units = make([]UnitDTO, len(dto.UnitCodes))
	for i, code := range dto.UnitCodes {
		u := roster.Units[code]
		dto.Units[i] = UnitDTO{Code: u.Code, Name: u.Name, EligibleCount: u.EligibleCount, Small: u.Small}
	}
	for i, w := range roster.Warnings {
		dto.Warnings[i] = WarningDTO{Kind: string(w.Kind), Row: w.Row, UnitCode: w.UnitCode, Message: w.Message}
	}
	return dto
}

// =============================================================================
// POLICY AND CYCLE RESPONSES
// =============================================================================

// GradePolicyDTO is one row of the configured grade table.
type GradePolicyDTO struct {
	Grade              string `json:"grade"`
	PayGrade           string `json:"pay_grade"`
	Cutoff             string `json:"cutoff"`
	TimeInGradeMonths  int    `json:"tig_months"`
	TimeInServiceYears string `json:"tis_years"`
	TenureYears        int    `json:"tenure_years"`
	SeparationMonths   int    `json:"separation_offset_months"`
	SeparationDays     int    `json:"separation_offset_days"`
	SkillLevel         string `json:"skill_level,omitempty"`
	Senior             bool   `json:"senior"`
}

// GradeDatesDTO is a resolved CycleContext.
type GradeDatesDTO struct {
	Grade                  string            `json:"grade"`
	SelectionCutoff        generic.TimePoint `json:"selection_cutoff"`
	TimeInGradeThreshold   generic.TimePoint `json:"tig_threshold"`
	TimeInServiceThreshold generic.TimePoint `json:"tis_threshold"`
	MandatorySeparation    generic.TimePoint `json:"mandatory_separation"`
	AccountingWindowEnd    generic.TimePoint `json:"accounting_window_end"`
	TenureCapYears         int               `json:"tenure_cap_years"`
}

// CycleDatesDTO lists the contexts a board resolves: its own grade first,
// then feeder grades.
type CycleDatesDTO struct {
	Cycle  string          `json:"cycle"`
	Year   int             `json:"year"`
	Target string          `json:"target"`
	Grades []GradeDatesDTO `json:"grades"`
}

func toGradeDatesDTO(ctx *eligibility.CycleContext) GradeDatesDTO {
	return GradeDatesDTO{
		Grade:                  string(ctx.Grade()),
		SelectionCutoff:        ctx.SelectionCutoff(),
		TimeInGradeThreshold:   ctx.TimeInGradeThreshold(),
		TimeInServiceThreshold: ctx.TimeInServiceThreshold(),
		MandatorySeparation:    ctx.MandatorySeparation(),
		AccountingWindowEnd:    ctx.AccountingWindowEnd(),
		TenureCapYears:         ctx.HighYearOfTenure().CapYears(),
	}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
