package eligibility_test

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/warp/promotion-engine/eligibility"
	"github.com/warp/promotion-engine/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

func newBoard(t *testing.T, policy *eligibility.PolicyTable, grade eligibility.Grade, year int) *eligibility.Board {
	t.Helper()
	board, err := eligibility.NewBoard(policy, eligibility.Cycle{Grade: grade, Year: year})
	require.NoError(t, err)
	return board
}

func newLogger() (logrus.FieldLogger, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

// sraRecord passes every rule on the 2025 SRA board
// (cutoff 2026-03-31, accounting end 2025-12-03).
func sraRecord() eligibility.Record {
	return eligibility.Record{
		FullName:          "DOE, JANE",
		ServiceNumber:     "100000001",
		Grade:             eligibility.GradeSRA,
		DateOfRank:        generic.DateOf(2025, time.January, 15),
		TotalServiceDate:  generic.DateOf(2020, time.January, 1),
		DateArrivedAtUnit: generic.DateOf(2025, time.January, 1),
		ReenlistmentCode:  "1A",
		PrimarySkill:      "1N051",
		UnitCode:          "U1",
		UnitName:          "1st Intel Squadron",
	}
}

// a1cRecord is an in-zone A1C on the 2025 SRA board.
func a1cRecord() eligibility.Record {
	r := sraRecord()
	r.FullName = "ROE, RICHARD"
	r.ServiceNumber = "100000002"
	r.Grade = eligibility.GradeA1C
	r.DateOfRank = generic.DateOf(2023, time.September, 1)
	r.PrimarySkill = "1N031"
	return r
}

// ssgRecord passes every rule on the 2025 SSG board
// (cutoff 2026-01-31, MDOS 2026-08-01).
func ssgRecord() eligibility.Record {
	return eligibility.Record{
		FullName:          "SMITH, ALEX",
		ServiceNumber:     "200000001",
		Grade:             eligibility.GradeSSG,
		DateOfRank:        generic.DateOf(2023, time.January, 1),
		TotalServiceDate:  generic.DateOf(2010, time.January, 1),
		DateArrivedAtUnit: generic.DateOf(2024, time.June, 1),
		ReenlistmentCode:  "1A",
		PrimarySkill:      "3D071",
		UnitCode:          "U2",
		UnitName:          "2nd Comm Squadron",
	}
}

// msgRecord passes every rule on the 2025 MSG board
// (cutoff 2025-09-30, accounting end 2025-06-03).
func msgRecord() eligibility.Record {
	return eligibility.Record{
		FullName:          "BROWN, SAM",
		ServiceNumber:     "300000001",
		Grade:             eligibility.GradeMSG,
		DateOfRank:        generic.DateOf(2022, time.January, 1),
		TotalServiceDate:  generic.DateOf(2010, time.January, 1),
		DateArrivedAtUnit: generic.DateOf(2024, time.January, 1),
		ReenlistmentCode:  "1A",
		PrimarySkill:      "2A091",
		UnitCode:          "U3",
		UnitName:          "3rd Maintenance Group",
	}
}

func gradePtr(g eligibility.Grade) *eligibility.Grade { return &g }
