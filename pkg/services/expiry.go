package services

import (
	"math"
	"time"
)

// FarFutureDays is reported when a supplier holds no certification at all. It keeps such
// suppliers out of every expiry-based alert.
const FarFutureDays = 999

// DaysUntil returns the signed number of whole days from now until date.
// Partial days are floored, so an expiry at midnight tomorrow seen at noon today is 0 days
// away and one seen at noon yesterday is -1.
func DaysUntil(date, now time.Time) int {
	return int(math.Floor(date.Sub(now).Hours() / 24))
}

// NearestExpiryDays returns the smallest DaysUntil across all expiries, or FarFutureDays when
// there are none. A negative result means the nearest certification has already lapsed.
func NearestExpiryDays(expiries []time.Time, now time.Time) int {
	if len(expiries) == 0 {
		return FarFutureDays
	}
	nearest := math.MaxInt
	for _, expiry := range expiries {
		if d := DaysUntil(expiry, now); d < nearest {
			nearest = d
		}
	}
	return nearest
}
