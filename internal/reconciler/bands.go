package reconciler

import (
	"fmt"
	"math"
	"strings"
)

// Due-date bands, ordered by urgency. Between one hour and ten minutes out,
// tasks fall into coarse buckets so a 55-minute and a 52-minute reading
// produce the same alert key instead of spamming every poll.
const (
	BandOverdue = "overdue"
	BandUrgent  = "urgent"
	BandTenMin  = "10min"
)

// DueBand classifies minutes-left until a due date into an alert band.
// Anything at or past due is overdue, regardless of how far past.
func DueBand(minutesLeft float64) string {
	switch {
	case minutesLeft <= 0:
		return BandOverdue
	case minutesLeft <= 5:
		return BandUrgent
	case minutesLeft <= 10:
		return BandTenMin
	case minutesLeft <= 60:
		// Range-named so a bucket key can never collide with the tighter
		// BandTenMin band and suppress its alert.
		lower := int(minutesLeft/10) * 10
		return fmt.Sprintf("%d-%dmin", lower, lower+10)
	default:
		return fmt.Sprintf("%dh", int(minutesLeft/60))
	}
}

// DueAlertKey composes the dedup key for a due-date alert: one alert per
// task per band.
func DueAlertKey(taskID, band string) string {
	return taskID + "-due-" + band
}

// TimerAlertKey composes the dedup key for estimated-timer alerts.
func TimerAlertKey(taskID, kind string) string {
	return taskID + "-est-" + kind
}

// DueMessage renders the user-facing text for a due-date band.
func DueMessage(title, band string, minutesLeft float64) string {
	switch band {
	case BandOverdue:
		return fmt.Sprintf("%q is overdue", title)
	case BandUrgent:
		return fmt.Sprintf("%q due in ~%d minute(s)", title, int(math.Ceil(minutesLeft)))
	case BandTenMin:
		return fmt.Sprintf("%q due in ~10 minutes", title)
	default:
		if strings.HasSuffix(band, "min") {
			return fmt.Sprintf("%q due in %s minutes", title, strings.TrimSuffix(band, "min"))
		}
		return fmt.Sprintf("%q due in about %s", title, band)
	}
}
