// Package valuation maps a vehicle's age to the trade-price column of the
// km-calculation workbook.
package valuation

import "time"

// AgeYears returns the vehicle age in whole years: calendar-day difference
// divided by 365, integer division, no leap-year correction. A registration
// date in the future yields a zero or negative age; callers treat that as a
// valid input and it resolves to the youngest band.
func AgeYears(registration, now time.Time) int {
	days := int(now.Sub(registration).Hours() / 24)
	return days / 365
}
