/*
handlers.go - HTTP API handlers for the promotion eligibility engine

PURPOSE:
  Exposes the eligibility pipeline via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the eligibility
  package.

ENDPOINTS:
  GET    /api/health                      Liveness
  GET    /api/policy                      Full policy document in force
  GET    /api/policy/grades               Grade table rows
  GET    /api/cycles/{grade}/{year}/dates Resolved key dates for a board
  POST   /api/rosters/evaluate            Classify a roster, store the result
  GET    /api/sessions/{id}               Fetch a stored result
  DELETE /api/sessions/{id}               Drop a stored result

REQUEST FLOW:
  1. Parse HTTP request
  2. Resolve the board (fails the whole request on unknown grade/year)
  3. Run the aggregator over every record
  4. Store and serialize the roster

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, unknown grade/year
  - 404: Session missing or expired
  - 500: Internal errors
  Record-level problems are never HTTP errors; they come back as
  Excluded or Indeterminate entries. Unreadable dates and surplus alternate
  skills are also reported as intake_anomaly warnings on their row.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
	"github.com/warp/promotion-engine/eligibility"
	"github.com/warp/promotion-engine/factory"
	"github.com/warp/promotion-engine/generic"
	"github.com/warp/promotion-engine/log"
)

// maxBodyBytes bounds an evaluate request body.
const maxBodyBytes = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Policy        *eligibility.PolicyTable
	Aggregator    *eligibility.Aggregator
	Sessions      generic.SessionStore[RosterDTO]
	PolicyFactory *factory.PolicyFactory
	Log           logrus.FieldLogger
}

// NewHandler creates a handler. policy must already be validated.
func NewHandler(policy *eligibility.PolicyTable, agg *eligibility.Aggregator,
	sessions generic.SessionStore[RosterDTO], logger logrus.FieldLogger) *Handler {
	return &Handler{
		Policy:        policy,
		Aggregator:    agg,
		Sessions:      sessions,
		PolicyFactory: factory.NewPolicyFactory(),
		Log:           logger,
	}
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// GetPolicy returns the policy table in force as a policy document.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.PolicyFactory.ToJSON(h.Policy))
}

// ListGrades returns the grade table in promotion order.
func (h *Handler) ListGrades(w http.ResponseWriter, r *http.Request) {
	dtos := make([]GradePolicyDTO, 0, len(h.Policy.Grades))
	for _, g := range eligibility.EnlistedGrades {
		gp, ok := h.Policy.Grades[g]
		if !ok {
			continue
		}
		dtos = append(dtos, GradePolicyDTO{
			Grade:              string(g),
			PayGrade:           g.PayGrade(),
			Cutoff:             gp.Cutoff.String(),
			TimeInGradeMonths:  gp.TimeInGradeMonths,
			TimeInServiceYears: gp.TimeInServiceYears.String(),
			TenureYears:        gp.TenureYears,
			SeparationMonths:   gp.SeparationOffset.Months,
			SeparationDays:     gp.SeparationOffset.Days,
			SkillLevel:         gp.SkillLevel,
			Senior:             h.Policy.IsSenior(g),
		})
	}
	writeJSON(w, r, http.StatusOK, dtos)
}

// =============================================================================
// CYCLE HANDLERS
// =============================================================================

// GetCycleDates returns the resolved key dates for a board.
func (h *Handler) GetCycleDates(w http.ResponseWriter, r *http.Request) {
	cycle, err := cycleFromPath(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid cycle", err)
		return
	}

	board, err := eligibility.NewBoard(h.Policy, cycle)
	if err != nil {
		writeError(w, r, statusFor(err), "Cannot resolve cycle", err)
		return
	}

	target, _ := cycle.Target()
	dto := CycleDatesDTO{Cycle: string(cycle.Grade), Year: cycle.Year, Target: string(target)}
	for _, g := range boardGrades(h.Policy, cycle) {
		if ctx, ok := board.ContextFor(g); ok {
			dto.Grades = append(dto.Grades, toGradeDatesDTO(ctx))
		}
	}
	writeJSON(w, r, http.StatusOK, dto)
}

func cycleFromPath(r *http.Request) (eligibility.Cycle, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return eligibility.Cycle{}, fmt.Errorf("year must be a number: %w", err)
	}
	return eligibility.Cycle{Grade: normalizeGrade(chi.URLParam(r, "grade")), Year: year}, nil
}

func boardGrades(p *eligibility.PolicyTable, cycle eligibility.Cycle) []eligibility.Grade {
	return append([]eligibility.Grade{cycle.Grade}, p.Feeders[cycle.Grade]...)
}

// =============================================================================
// ROSTER HANDLERS
// =============================================================================

// EvaluateRoster classifies every record for one board and stores the result.
func (h *Handler) EvaluateRoster(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	records := make([]eligibility.Record, len(req.Records))
	for i, dto := range req.Records {
		records[i] = dto.ToRecord()
	}

	cycle := eligibility.Cycle{Grade: normalizeGrade(req.Cycle), Year: req.Year}
	board, err := eligibility.NewBoard(h.Policy, cycle)
	if err != nil {
		writeError(w, r, statusFor(err), "Cannot resolve cycle", err)
		return
	}

	roster, err := h.Aggregator.Run(r.Context(), board, records)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to evaluate roster", err)
		return
	}

	dto := toRosterDTO(roster)
	id, err := h.Sessions.Put(r.Context(), dto)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to store session", err)
		return
	}
	dto.SessionID = string(id)

	log.GetLogEntry(r, h.Log).WithFields(logrus.Fields{
		"session_id": id,
		"cycle":      cycle.Grade,
		"year":       cycle.Year,
		"records":    len(records),
	}).Info("roster stored")

	writeJSON(w, r, http.StatusOK, dto)
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// GetSession returns a stored roster result.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := generic.SessionID(chi.URLParam(r, "id"))

	dto, err := h.Sessions.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, statusFor(err), "Session not found", err)
		return
	}
	dto.SessionID = string(id)
	writeJSON(w, r, http.StatusOK, dto)
}

// DeleteSession drops a stored roster result.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := generic.SessionID(chi.URLParam(r, "id"))

	if err := h.Sessions.Delete(r.Context(), id); err != nil {
		writeError(w, r, statusFor(err), "Session not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	if status >= http.StatusInternalServerError {
		log.GetLogEntry(r, logrus.StandardLogger()).WithError(err).Error(message)
	}
	writeJSON(w, r, status, resp)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsClientError(err), errors.As(err, &maxErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
