/*
roster.go - Roster Aggregator

PURPOSE:
  Runs the evaluator over a whole roster and folds the results into the
  structures downstream reporting consumes: per-outcome buckets, per-unit
  eligible counts with the small-unit flag, and data-quality warnings.

CONCURRENCY:
  Evaluation is a pure function of (record, board), so records are spread
  over a bounded worker pool (errgroup with SetLimit). Each worker writes
  only its own slot of a pre-sized slice. The fold that follows is
  single-threaded, so unit counters need no locks.

UNITS:
  A unit is registered for every record that was not Excluded. Its eligible
  count includes Eligible and EligibleBelowZone results. A unit is small when
  its count is at or under the threshold, or always when the board grade is
  a senior grade.

DUPLICATE UNIT CODES:
  The same code with a different display name keeps the last name seen and
  records a DuplicateUnitCode warning. Names are compared across every row,
  excluded rows included, even though those never register a unit.

INTAKE ANOMALIES:
  Each record anomaly (unreadable date, dropped alternate skills) becomes an
  IntakeAnomaly warning on that row. The record itself is still classified.

SEE ALSO:
  - evaluator.go: Per-record classification
  - api/handlers.go: Exposes Run over HTTP
*/
package eligibility

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// ROSTER RESULT
// =============================================================================

// Entry pairs an input record with its classification.
type Entry struct {
	Index  int // position in the input roster
	Record Record
	Result Result
}

// WarningKind classifies a data-quality warning.
type WarningKind string

const (
	WarningDuplicateUnitCode WarningKind = "duplicate_unit_code"
	WarningIntakeAnomaly     WarningKind = "intake_anomaly"
)

// Warning is a non-fatal data-quality finding.
type Warning struct {
	Kind     WarningKind
	Row      int // index of the record that raised it
	UnitCode string
	Message  string
}

// Roster is the outcome of one board run.
type Roster struct {
	Cycle    Cycle
	Entries  []Entry // input order
	Buckets  map[Outcome][]Entry
	Units    map[string]UnitAggregate
	Warnings []Warning
}

// Count returns the number of records classified as o.
func (r *Roster) Count(o Outcome) int { return len(r.Buckets[o]) }

// UnitCodes returns the registered unit codes in sorted order.
func (r *Roster) UnitCodes() []string {
	codes := make([]string, 0, len(r.Units))
	for code := range r.Units {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// SmallUnitMembers returns the counted members of small units, in input
// order. These go to the consolidated senior-rater list.
func (r *Roster) SmallUnitMembers() []Entry {
	var members []Entry
	for _, e := range r.Entries {
		if !e.Result.CountsTowardUnit() {
			continue
		}
		if u, ok := r.Units[e.Record.UnitCode]; ok && u.Small {
			members = append(members, e)
		}
	}
	return members
}

// SeniorRaterNeeded reports whether any small unit has eligible members.
func (r *Roster) SeniorRaterNeeded() bool {
	return len(r.SmallUnitMembers()) > 0
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator evaluates rosters on a bounded worker pool.
type Aggregator struct {
	workers int
	log     logrus.FieldLogger
}

// NewAggregator creates an aggregator. workers <= 0 means GOMAXPROCS.
func NewAggregator(workers int, log logrus.FieldLogger) *Aggregator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Aggregator{workers: workers, log: log}
}

// Run classifies every record against the board. The only error is context
// cancellation; rule failures are classifications, not errors.
func (a *Aggregator) Run(ctx context.Context, board *Board, records []Record) (*Roster, error) {
	ev := NewEvaluator(board)
	results := make([]Result, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range records {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = ev.Evaluate(records[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate roster: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluate roster: %w", err)
	}

	return a.fold(board, records, results), nil
}

func (a *Aggregator) fold(board *Board, records []Record, results []Result) *Roster {
	cycle := board.Cycle()
	policy := board.Policy()
	roster := &Roster{
		Cycle:   cycle,
		Entries: make([]Entry, len(records)),
		Buckets: make(map[Outcome][]Entry, len(Outcomes)),
		Units:   make(map[string]UnitAggregate),
	}

	// Unit names are checked on every row, excluded ones included; only
	// non-excluded rows register a unit.
	names := make(map[string]string)
	for i, rec := range records {
		entry := Entry{Index: i, Record: rec, Result: results[i]}
		roster.Entries[i] = entry
		roster.Buckets[entry.Result.Outcome] = append(roster.Buckets[entry.Result.Outcome], entry)
		a.logDecision(entry)

		for _, an := range rec.Anomalies {
			w := Warning{
				Kind:     WarningIntakeAnomaly,
				Row:      i,
				UnitCode: rec.UnitCode,
				Message:  fmt.Sprintf("%s: %s", an.Field, an.Message),
			}
			roster.Warnings = append(roster.Warnings, w)
			a.log.WithFields(logrus.Fields{
				"row":            i,
				"service_number": rec.ServiceNumber,
				"field":          an.Field,
			}).Warn(w.Message)
		}

		if rec.UnitCode == "" {
			continue
		}
		if prev, seen := names[rec.UnitCode]; seen && prev != rec.UnitName {
			w := Warning{
				Kind:     WarningDuplicateUnitCode,
				Row:      i,
				UnitCode: rec.UnitCode,
				Message:  fmt.Sprintf("unit %s named %q and %q; using %q", rec.UnitCode, prev, rec.UnitName, rec.UnitName),
			}
			roster.Warnings = append(roster.Warnings, w)
			a.log.WithField("unit_code", rec.UnitCode).Warn(w.Message)
		}
		names[rec.UnitCode] = rec.UnitName

		if entry.Result.Outcome == OutcomeExcluded {
			continue
		}
		unit := roster.Units[rec.UnitCode]
		unit.Code = rec.UnitCode
		if entry.Result.CountsTowardUnit() {
			unit.EligibleCount++
		}
		roster.Units[rec.UnitCode] = unit
	}

	senior := policy.IsSenior(cycle.Grade)
	for code, unit := range roster.Units {
		unit.Name = names[code]
		unit.Small = senior || unit.EligibleCount <= policy.SmallUnitThreshold
		roster.Units[code] = unit
	}

	a.log.WithFields(logrus.Fields{
		"cycle":         cycle.Grade,
		"year":          cycle.Year,
		"records":       len(records),
		"eligible":      roster.Count(OutcomeEligible),
		"below_zone":    roster.Count(OutcomeEligibleBelowZone),
		"discrepancy":   roster.Count(OutcomeEligibleWithDiscrepancy),
		"ineligible":    roster.Count(OutcomeIneligible),
		"excluded":      roster.Count(OutcomeExcluded),
		"indeterminate": roster.Count(OutcomeIndeterminate),
		"units":         len(roster.Units),
	}).Info("roster evaluated")

	return roster
}

func (a *Aggregator) logDecision(e Entry) {
	entry := a.log.WithFields(logrus.Fields{
		"row":            e.Index,
		"name":           e.Record.FullName,
		"service_number": e.Record.ServiceNumber,
		"grade":          e.Record.Grade,
		"outcome":        e.Result.Outcome,
		"reason":         e.Result.Reason,
		"step":           e.Result.Step,
	})
	if e.Result.Detail != "" {
		entry = entry.WithField("detail", e.Result.Detail)
	}
	if e.Result.Outcome == OutcomeIndeterminate {
		entry.Warn("record needs manual review")
		return
	}
	entry.Debug("record classified")
}
