package eligibility

import (
	"fmt"

	"github.com/warp/promotion-engine/generic"
)

// CheckAccountingWindow reports whether a member arrived at the unit early
// enough to be counted against it this cycle: the arrival date must be on or
// before the accounting window end. On failure the second value explains why;
// an absent arrival date is reported as missing data.
func CheckAccountingWindow(arrived generic.MaybeDate, ctx *CycleContext) (bool, string) {
	das, ok := arrived.Get()
	if !ok {
		return false, ReasonMissingData
	}
	end := ctx.AccountingWindowEnd()
	if das.After(end) {
		return false, fmt.Sprintf("arrived %s, after accounting date %s", das, end.Time.Format(generic.DateLayout))
	}
	return true, ""
}
