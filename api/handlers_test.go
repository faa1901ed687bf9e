/*
handlers_test.go - HTTP tests for API handlers

Tests for:
- Policy and cycle-date endpoints
- Roster evaluation, including request validation
- Session round trip (evaluate, fetch, delete)
- CORS preflight for the consolidation UI
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/promotion-engine/eligibility"
	"github.com/warp/promotion-engine/generic/store"
)

var testOrigins = []string{"http://localhost:5173"}

func setupTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	h := NewHandler(
		eligibility.DefaultPolicy(),
		eligibility.NewAggregator(4, logger),
		store.NewMemory[RosterDTO](time.Hour),
		logger,
	)
	return NewRouter(h, testOrigins)
}

func do(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// sraRow passes every rule on the 2025 SRA board.
func sraRow(sn, unit string) map[string]any {
	return map[string]any{
		"full_name":            "DOE, JANE",
		"service_number":       sn,
		"grade":                "SRA",
		"date_of_rank":         "2025-01-15",
		"total_service_date":   "2020-01-01",
		"date_arrived_at_unit": "2025-01-01",
		"reenlistment_code":    "1A",
		"primary_skill":        "1N051",
		"unit_code":            unit,
		"unit_name":            "Unit " + unit,
	}
}

// =============================================================================
// POLICY AND CYCLE ENDPOINTS
// =============================================================================

func TestHealth(t *testing.T) {
	rec := do(t, setupTestServer(t), http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestListGrades(t *testing.T) {
	rec := do(t, setupTestServer(t), http.MethodGet, "/api/policy/grades", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	grades := decode[[]GradePolicyDTO](t, rec)
	require.Len(t, grades, 8)
	assert.Equal(t, "AB", grades[0].Grade)
	assert.Equal(t, "SSG", grades[4].Grade)
	assert.Equal(t, "31-Jan", grades[4].Cutoff)
	assert.Equal(t, "E5", grades[4].PayGrade)
	assert.True(t, grades[6].Senior)
}

func TestGetPolicy(t *testing.T) {
	rec := do(t, setupTestServer(t), http.MethodGet, "/api/policy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"accounting_window_days":119`)
}

func TestGetCycleDates(t *testing.T) {
	srv := setupTestServer(t)

	// GIVEN: the SRA board, which also resolves its A1C feeder
	rec := do(t, srv, http.MethodGet, "/api/cycles/sra/2025/dates", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	dates := decode[struct {
		Cycle  string `json:"cycle"`
		Target string `json:"target"`
		Grades []struct {
			Grade               string `json:"grade"`
			SelectionCutoff     string `json:"selection_cutoff"`
			AccountingWindowEnd string `json:"accounting_window_end"`
		} `json:"grades"`
	}](t, rec)

	assert.Equal(t, "SRA", dates.Cycle)
	assert.Equal(t, "SSG", dates.Target)
	require.Len(t, dates.Grades, 2)
	assert.Equal(t, "SRA", dates.Grades[0].Grade)
	assert.Equal(t, "A1C", dates.Grades[1].Grade)
	assert.Equal(t, "2026-03-31", dates.Grades[0].SelectionCutoff)
	assert.Equal(t, "2025-12-03T23:59:59Z", dates.Grades[0].AccountingWindowEnd)
}

func TestGetCycleDates_Errors(t *testing.T) {
	srv := setupTestServer(t)

	tests := []struct {
		path string
	}{
		{"/api/cycles/SSG/abc/dates"},
		{"/api/cycles/SSG/2040/dates"},
		{"/api/cycles/CMS/2025/dates"},
		{"/api/cycles/XYZ/2025/dates"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, tt.path, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}
}

// =============================================================================
// ROSTER EVALUATION
// =============================================================================

func TestEvaluateRoster(t *testing.T) {
	srv := setupTestServer(t)

	// GIVEN: an eligible SRA, an officer and a member with no date of rank
	officer := sraRow("2", "U1")
	officer["grade"] = "CPT"
	missing := sraRow("3", "U2")
	missing["date_of_rank"] = nil

	body := map[string]any{
		"cycle":   "SRA",
		"year":    2025,
		"records": []any{sraRow("1", "U1"), officer, missing},
	}

	// WHEN
	rec := do(t, srv, http.MethodPost, "/api/rosters/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	roster := decode[RosterDTO](t, rec)

	// THEN
	assert.NotEmpty(t, roster.SessionID)
	assert.Equal(t, "SRA", roster.Cycle)
	assert.Equal(t, "SSG", roster.Target)
	assert.Equal(t, 1, roster.Counts["eligible"])
	assert.Equal(t, 2, roster.Counts["excluded"])
	assert.Len(t, roster.Buckets, len(eligibility.Outcomes))
	assert.Empty(t, roster.Buckets["indeterminate"])

	excluded := roster.Buckets["excluded"]
	require.Len(t, excluded, 2)
	assert.Equal(t, "officer grade", excluded[0].Reason)
	assert.Equal(t, "missing data", excluded[1].Reason)
	assert.Equal(t, "missing required field: date of rank", excluded[1].Detail)

	assert.Equal(t, []string{"U1"}, roster.UnitCodes)
	require.Len(t, roster.Units, 1)
	assert.Equal(t, 1, roster.Units[0].EligibleCount)
	assert.True(t, roster.Units[0].Small)
	assert.Len(t, roster.SmallUnitMembers, 1)
	assert.True(t, roster.SeniorRaterNeeded)
}

func TestEvaluateRoster_BadRequests(t *testing.T) {
	srv := setupTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"malformed JSON", `{"cycle": `},
		{"unknown grade", map[string]any{"cycle": "XYZ", "year": 2025, "records": []any{}}},
		{"year out of range", map[string]any{"cycle": "SRA", "year": 2019, "records": []any{}}},
		{"records not a list", `{"cycle": "SRA", "year": 2025, "records": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/rosters/evaluate", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestEvaluateRoster_BadRowStaysLocal(t *testing.T) {
	srv := setupTestServer(t)

	// GIVEN: a good row and a row whose date of rank cannot be read
	bad := sraRow("2", "U1")
	bad["date_of_rank"] = "sometime in 2025"
	body := map[string]any{"cycle": "SRA", "year": 2025, "records": []any{sraRow("1", "U1"), bad}}

	// WHEN
	rec := do(t, srv, http.MethodPost, "/api/rosters/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	roster := decode[RosterDTO](t, rec)

	// THEN: only the bad row is excluded, and it says why
	assert.Equal(t, 1, roster.Counts["eligible"])
	require.Len(t, roster.Buckets["excluded"], 1)
	excluded := roster.Buckets["excluded"][0]
	assert.Equal(t, 1, excluded.Row)
	assert.Equal(t, "missing data", excluded.Reason)
	assert.Equal(t, `missing required field: date of rank (unreadable value "sometime in 2025")`, excluded.Detail)

	require.Len(t, roster.Warnings, 1)
	assert.Equal(t, "intake_anomaly", roster.Warnings[0].Kind)
	assert.Equal(t, 1, roster.Warnings[0].Row)
}

func TestEvaluateRoster_RosterDateSpellings(t *testing.T) {
	srv := setupTestServer(t)

	// GIVEN: the same dates in the spellings roster exports use
	upper := sraRow("1", "U1")
	upper["date_of_rank"] = "15-JAN-2025"
	slashes := sraRow("2", "U1")
	slashes["date_of_rank"] = "01/15/2025"
	serial := sraRow("3", "U1")
	serial["date_of_rank"] = 45672
	body := map[string]any{"cycle": "SRA", "year": 2025, "records": []any{upper, slashes, serial}}

	rec := do(t, srv, http.MethodPost, "/api/rosters/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	roster := decode[RosterDTO](t, rec)

	// THEN: all three read as 15 Jan 2025 and pass
	assert.Equal(t, 3, roster.Counts["eligible"])
	assert.Empty(t, roster.Warnings)
}

func TestEvaluateRoster_SurplusAlternateSkills(t *testing.T) {
	srv := setupTestServer(t)

	// GIVEN: four alternate skills on one row
	row := sraRow("1", "U1")
	row["alternate_skills"] = []string{"1N031", "1N051", "1N071", "1N091"}
	body := map[string]any{"cycle": "SRA", "year": 2025, "records": []any{row, sraRow("2", "U1")}}

	rec := do(t, srv, http.MethodPost, "/api/rosters/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	roster := decode[RosterDTO](t, rec)

	// THEN: both rows are classified and the dropped skill is flagged
	assert.Equal(t, 2, roster.Counts["eligible"])
	require.Len(t, roster.Warnings, 1)
	assert.Equal(t, "intake_anomaly", roster.Warnings[0].Kind)
	assert.Equal(t, 0, roster.Warnings[0].Row)
	assert.Contains(t, roster.Warnings[0].Message, "1N091")
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestSessionRoundTrip(t *testing.T) {
	srv := setupTestServer(t)

	body := map[string]any{"cycle": "SRA", "year": 2025, "records": []any{sraRow("1", "U1")}}
	rec := do(t, srv, http.MethodPost, "/api/rosters/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode[RosterDTO](t, rec)

	// GIVEN: a stored session
	rec = do(t, srv, http.MethodGet, "/api/sessions/"+created.SessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decode[RosterDTO](t, rec)
	assert.Equal(t, created, fetched)

	// WHEN: deleted
	rec = do(t, srv, http.MethodDelete, "/api/sessions/"+created.SessionID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// THEN: it is gone
	rec = do(t, srv, http.MethodGet, "/api/sessions/"+created.SessionID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, srv, http.MethodDelete, "/api/sessions/"+created.SessionID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/rosters/evaluate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
