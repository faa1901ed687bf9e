/*
Package factory provides JSON to Go policy-table conversion.

PURPOSE:
  Converts a JSON policy document into an eligibility.PolicyTable. Grade
  thresholds, reenlistment code lists and exception windows change between
  cycles; keeping them in a document lets them change without a release.

JSON SCHEMA:
  {
    "year_range": {"min": 2020, "max": 2030},
    "accounting_window_days": 119,
    "accounting_close_day": 3,
    "small_unit_threshold": 10,
    "senior_grades": ["MSG", "SMS"],
    "feeders": {"SRA": ["A1C"]},
    "grades": {
      "SSG": {
        "cutoff": "31-JAN",
        "tig_months": 23,
        "tis_years": "5",
        "tenure_years": 20,
        "separation_offset": {"months": 6, "days": 1},
        "skill_level": "7"
      }
    },
    "tenure_exceptions": [
      {"start": "2023-12-08", "end": "2026-09-30", "caps": {"SSG": 22}}
    ],
    "three_year_rule": {"grades": ["AB"], "months": 36, "direction": "fail_when_under"},
    "below_zone": {"grade": "A1C", "anchor": "01-FEB", "standard_months": 28, "below_zone_months": 22},
    "window_exclusions": [{"grade": "SRA", "from": "01-FEB", "to": "31-MAR"}],
    "reenlistment": {
      "disqualifying": {"2X": "Not selected for Reenlistment."},
      "discrepancy":   {"4H": "Article 15."}
    },
    "skill_exempt_prefixes": ["8", "9"],
    "unfavorable_min_code": 1
  }

DEFAULTS:
  Omitted scalar settings take the built-in value from
  eligibility.DefaultPolicy. Omitted tables are empty, so a document that
  leaves out "reenlistment" checks no reenlistment codes.

USAGE:
  factory := NewPolicyFactory()
  policy, err := factory.LoadFile("policy.json")

SEE ALSO:
  - eligibility/policy.go: PolicyTable type definition
  - config/config.go: Where the document path comes from
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/promotion-engine/eligibility"
	"github.com/warp/promotion-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of a policy table.
type PolicyJSON struct {
	YearRange            *YearRangeJSON        `json:"year_range,omitempty"`
	AccountingWindowDays *int                  `json:"accounting_window_days,omitempty"`
	AccountingCloseDay   *int                  `json:"accounting_close_day,omitempty"`
	SmallUnitThreshold   *int                  `json:"small_unit_threshold,omitempty"`
	SeniorGrades         []string              `json:"senior_grades,omitempty"`
	Feeders              map[string][]string   `json:"feeders,omitempty"`
	Grades               map[string]GradeJSON  `json:"grades"`
	TenureExceptions     []TenureExceptionJSON `json:"tenure_exceptions,omitempty"`
	ThreeYear            *ThreeYearJSON        `json:"three_year_rule,omitempty"`
	BelowZone            *BelowZoneJSON        `json:"below_zone,omitempty"`
	WindowExclusions     []WindowExclusionJSON `json:"window_exclusions,omitempty"`
	Reenlistment         *ReenlistmentJSON     `json:"reenlistment,omitempty"`
	SkillExemptPrefixes  []string              `json:"skill_exempt_prefixes,omitempty"`
	UnfavorableMinCode   *int                  `json:"unfavorable_min_code,omitempty"`
}

// YearRangeJSON bounds the valid cycle years.
type YearRangeJSON struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// GradeJSON is one row of the grade table.
type GradeJSON struct {
	Cutoff           string          `json:"cutoff"` // DD-MON, e.g. 31-JAN
	TIGMonths        int             `json:"tig_months"`
	TISYears         decimal.Decimal `json:"tis_years"`
	TenureYears      int             `json:"tenure_years"`
	SeparationOffset OffsetJSON      `json:"separation_offset"`
	SkillLevel       string          `json:"skill_level,omitempty"`
}

// OffsetJSON places the mandatory separation date after the cutoff.
type OffsetJSON struct {
	Months int `json:"months"`
	Days   int `json:"days"`
}

// TenureExceptionJSON is a window with relaxed tenure caps.
type TenureExceptionJSON struct {
	Start string         `json:"start"` // YYYY-MM-DD
	End   string         `json:"end"`
	Caps  map[string]int `json:"caps"`
}

// ThreeYearJSON is the junior-grade total-service check.
type ThreeYearJSON struct {
	Grades    []string `json:"grades"`
	Months    int      `json:"months"`
	Direction string   `json:"direction,omitempty"` // fail_when_under (default), fail_when_over
}

// BelowZoneJSON configures early promotion.
type BelowZoneJSON struct {
	Grade           string `json:"grade"`
	Anchor          string `json:"anchor"`
	StandardMonths  int    `json:"standard_months"`
	BelowZoneMonths int    `json:"below_zone_months"`
}

// WindowExclusionJSON is a month/day promotion window.
type WindowExclusionJSON struct {
	Grade string `json:"grade"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// ReenlistmentJSON maps reenlistment codes to descriptions.
type ReenlistmentJSON struct {
	Disqualifying map[string]string `json:"disqualifying,omitempty"`
	Discrepancy   map[string]string `json:"discrepancy,omitempty"`
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

// PolicyFactory converts JSON policy documents to policy tables.
type PolicyFactory struct{}

// NewPolicyFactory creates a new policy factory.
func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{}
}

// LoadFile reads and parses a policy document from disk.
func (f *PolicyFactory) LoadFile(path string) (*eligibility.PolicyTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return f.ParsePolicy(data)
}

// ParsePolicy parses a JSON document into a validated PolicyTable.
func (f *PolicyFactory) ParsePolicy(data []byte) (*eligibility.PolicyTable, error) {
	var pj PolicyJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// FromJSON converts PolicyJSON to a PolicyTable and validates it.
func (f *PolicyFactory) FromJSON(pj PolicyJSON) (*eligibility.PolicyTable, error) {
	defaults := eligibility.DefaultPolicy()

	p := &eligibility.PolicyTable{
		Grades:               make(map[eligibility.Grade]eligibility.GradePolicy, len(pj.Grades)),
		YearRange:            defaults.YearRange,
		AccountingWindowDays: intOr(pj.AccountingWindowDays, defaults.AccountingWindowDays),
		AccountingCloseDay:   intOr(pj.AccountingCloseDay, defaults.AccountingCloseDay),
		SmallUnitThreshold:   intOr(pj.SmallUnitThreshold, defaults.SmallUnitThreshold),
		SeniorGrades:         toGrades(pj.SeniorGrades),
		Feeders:              make(map[eligibility.Grade][]eligibility.Grade, len(pj.Feeders)),
		SkillExemptPrefixes:  pj.SkillExemptPrefixes,
		UnfavorableMinCode:   intOr(pj.UnfavorableMinCode, defaults.UnfavorableMinCode),
	}
	if pj.YearRange != nil {
		p.YearRange = eligibility.YearRange{Min: pj.YearRange.Min, Max: pj.YearRange.Max}
	}
	for board, grades := range pj.Feeders {
		p.Feeders[toGrade(board)] = toGrades(grades)
	}

	for name, gj := range pj.Grades {
		cutoff, err := parseMonthDay(gj.Cutoff)
		if err != nil {
			return nil, &generic.PolicyValidationError{Field: "grades." + name + ".cutoff", Message: err.Error()}
		}
		p.Grades[toGrade(name)] = eligibility.GradePolicy{
			Cutoff:             cutoff,
			TimeInGradeMonths:  gj.TIGMonths,
			TimeInServiceYears: gj.TISYears,
			TenureYears:        gj.TenureYears,
			SeparationOffset:   eligibility.Offset{Months: gj.SeparationOffset.Months, Days: gj.SeparationOffset.Days},
			SkillLevel:         gj.SkillLevel,
		}
	}

	for i, ej := range pj.TenureExceptions {
		ex, err := parseTenureException(ej)
		if err != nil {
			return nil, &generic.PolicyValidationError{Field: fmt.Sprintf("tenure_exceptions[%d]", i), Message: err.Error()}
		}
		p.TenureExceptions = append(p.TenureExceptions, ex)
	}

	if tj := pj.ThreeYear; tj != nil {
		p.ThreeYear = eligibility.ThreeYearRule{
			Grades:    toGrades(tj.Grades),
			Months:    tj.Months,
			Direction: eligibility.ServiceDirection(tj.Direction),
		}
		if p.ThreeYear.Direction == "" {
			p.ThreeYear.Direction = eligibility.FailWhenUnder
		}
	}

	if bj := pj.BelowZone; bj != nil {
		anchor, err := parseMonthDay(bj.Anchor)
		if err != nil {
			return nil, &generic.PolicyValidationError{Field: "below_zone.anchor", Message: err.Error()}
		}
		p.BelowZone = &eligibility.BelowZoneRule{
			Grade:           toGrade(bj.Grade),
			Anchor:          anchor,
			StandardMonths:  bj.StandardMonths,
			BelowZoneMonths: bj.BelowZoneMonths,
		}
	}

	for i, wj := range pj.WindowExclusions {
		from, err := parseMonthDay(wj.From)
		if err != nil {
			return nil, &generic.PolicyValidationError{Field: fmt.Sprintf("window_exclusions[%d].from", i), Message: err.Error()}
		}
		to, err := parseMonthDay(wj.To)
		if err != nil {
			return nil, &generic.PolicyValidationError{Field: fmt.Sprintf("window_exclusions[%d].to", i), Message: err.Error()}
		}
		p.WindowExclusions = append(p.WindowExclusions, eligibility.WindowExclusion{
			Grade: toGrade(wj.Grade),
			From:  from,
			To:    to,
		})
	}

	if rj := pj.Reenlistment; rj != nil {
		p.DisqualifyingReenlistment = upperKeys(rj.Disqualifying)
		p.DiscrepancyReenlistment = upperKeys(rj.Discrepancy)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ToJSON converts a PolicyTable to PolicyJSON.
func (f *PolicyFactory) ToJSON(p *eligibility.PolicyTable) PolicyJSON {
	pj := PolicyJSON{
		YearRange:            &YearRangeJSON{Min: p.YearRange.Min, Max: p.YearRange.Max},
		AccountingWindowDays: intPtr(p.AccountingWindowDays),
		AccountingCloseDay:   intPtr(p.AccountingCloseDay),
		SmallUnitThreshold:   intPtr(p.SmallUnitThreshold),
		SeniorGrades:         fromGrades(p.SeniorGrades),
		Grades:               make(map[string]GradeJSON, len(p.Grades)),
		SkillExemptPrefixes:  p.SkillExemptPrefixes,
		UnfavorableMinCode:   intPtr(p.UnfavorableMinCode),
	}

	if len(p.Feeders) > 0 {
		pj.Feeders = make(map[string][]string, len(p.Feeders))
		for board, grades := range p.Feeders {
			pj.Feeders[string(board)] = fromGrades(grades)
		}
	}

	for g, gp := range p.Grades {
		pj.Grades[string(g)] = GradeJSON{
			Cutoff:           formatMonthDay(gp.Cutoff),
			TIGMonths:        gp.TimeInGradeMonths,
			TISYears:         gp.TimeInServiceYears,
			TenureYears:      gp.TenureYears,
			SeparationOffset: OffsetJSON{Months: gp.SeparationOffset.Months, Days: gp.SeparationOffset.Days},
			SkillLevel:       gp.SkillLevel,
		}
	}

	for _, ex := range p.TenureExceptions {
		ej := TenureExceptionJSON{
			Start: ex.Window.Start.String(),
			End:   ex.Window.End.String(),
			Caps:  make(map[string]int, len(ex.Caps)),
		}
		for g, years := range ex.Caps {
			ej.Caps[string(g)] = years
		}
		pj.TenureExceptions = append(pj.TenureExceptions, ej)
	}

	if len(p.ThreeYear.Grades) > 0 {
		pj.ThreeYear = &ThreeYearJSON{
			Grades:    fromGrades(p.ThreeYear.Grades),
			Months:    p.ThreeYear.Months,
			Direction: string(p.ThreeYear.Direction),
		}
	}

	if bz := p.BelowZone; bz != nil {
		pj.BelowZone = &BelowZoneJSON{
			Grade:           string(bz.Grade),
			Anchor:          formatMonthDay(bz.Anchor),
			StandardMonths:  bz.StandardMonths,
			BelowZoneMonths: bz.BelowZoneMonths,
		}
	}

	for _, wx := range p.WindowExclusions {
		pj.WindowExclusions = append(pj.WindowExclusions, WindowExclusionJSON{
			Grade: string(wx.Grade),
			From:  formatMonthDay(wx.From),
			To:    formatMonthDay(wx.To),
		})
	}

	if len(p.DisqualifyingReenlistment) > 0 || len(p.DiscrepancyReenlistment) > 0 {
		pj.Reenlistment = &ReenlistmentJSON{
			Disqualifying: p.DisqualifyingReenlistment,
			Discrepancy:   p.DiscrepancyReenlistment,
		}
	}

	return pj
}

// DefaultDocument renders the built-in tables as a JSON document.
func (f *PolicyFactory) DefaultDocument() ([]byte, error) {
	return json.MarshalIndent(f.ToJSON(eligibility.DefaultPolicy()), "", "  ")
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// parseMonthDay accepts DD-MON with a case-insensitive English month
// abbreviation, e.g. "31-JAN" or "1-feb".
func parseMonthDay(s string) (generic.MonthDay, error) {
	day, mon, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return generic.MonthDay{}, fmt.Errorf("month/day %q is not DD-MON", s)
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return generic.MonthDay{}, fmt.Errorf("month/day %q: invalid day", s)
	}
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(mon, m.String()[:3]) {
			md := generic.MonthDay{Month: m, Day: d}
			if !md.Valid() {
				return generic.MonthDay{}, fmt.Errorf("month/day %q does not exist", s)
			}
			return md, nil
		}
	}
	return generic.MonthDay{}, fmt.Errorf("month/day %q: unknown month", s)
}

func formatMonthDay(md generic.MonthDay) string {
	return strings.ToUpper(md.String())
}

func parseTenureException(ej TenureExceptionJSON) (eligibility.TenureException, error) {
	start, err := generic.ParseDate(ej.Start)
	if err != nil {
		return eligibility.TenureException{}, fmt.Errorf("invalid start: %w", err)
	}
	end, err := generic.ParseDate(ej.End)
	if err != nil {
		return eligibility.TenureException{}, fmt.Errorf("invalid end: %w", err)
	}
	caps := make(map[eligibility.Grade]int, len(ej.Caps))
	for g, years := range ej.Caps {
		caps[toGrade(g)] = years
	}
	return eligibility.TenureException{
		Window: generic.Period{Start: start, End: end},
		Caps:   caps,
	}, nil
}

func toGrades(names []string) []eligibility.Grade {
	if names == nil {
		return nil
	}
	grades := make([]eligibility.Grade, len(names))
	for i, n := range names {
		grades[i] = toGrade(n)
	}
	return grades
}

func toGrade(name string) eligibility.Grade {
	return eligibility.Grade(strings.ToUpper(strings.TrimSpace(name)))
}

func fromGrades(grades []eligibility.Grade) []string {
	if grades == nil {
		return nil
	}
	names := make([]string, len(grades))
	for i, g := range grades {
		names[i] = string(g)
	}
	return names
}

func upperKeys(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func intPtr(v int) *int { return &v }
