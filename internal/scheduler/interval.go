package scheduler

import (
	"fmt"
	"strconv"
)

// ErrInvalidInterval indicates a non-positive interval was supplied.
var ErrInvalidInterval = fmt.Errorf("interval must be a positive number of minutes")

// Translate converts an interval in minutes into the native schedule
// expression for the given mechanism. It is pure and total over positive
// integers; the only failure mode is a non-positive interval.
//
// Canonical periods (60, 1440, 10080, 43200 minutes) map to each
// backend's symbolic spelling; other values use the backend's generic
// minute- or second-based form.
func Translate(minutes int, kind Kind) (string, error) {
	if minutes <= 0 {
		return "", fmt.Errorf("%w; got %d", ErrInvalidInterval, minutes)
	}

	switch kind {
	case KindLaunchd:
		// launchd takes a fixed interval in seconds; the canonical
		// periods coincide with the generic conversion.
		return strconv.Itoa(minutes * 60), nil
	case KindSystemdTimer:
		if keyword, ok := calendarKeyword(minutes); ok {
			return keyword, nil
		}
		return fmt.Sprintf("%dm", minutes), nil
	default:
		// KindCron, and the system-wide KindUnknown fallback.
		return cronExpression(minutes), nil
	}
}

// calendarKeyword returns the systemd calendar keyword for canonical
// periods.
func calendarKeyword(minutes int) (string, bool) {
	switch minutes {
	case 60:
		return "hourly", true
	case 1440:
		return "daily", true
	case 10080:
		return "weekly", true
	case 43200:
		return "monthly", true
	default:
		return "", false
	}
}

// cronExpression spells an interval as a five-field crontab expression.
func cronExpression(minutes int) string {
	switch minutes {
	case 1440:
		return "0 0 * * *"
	case 10080:
		return "0 0 * * 0"
	case 43200:
		return "0 0 1 * *"
	}

	if minutes >= 60 && minutes%60 == 0 {
		hours := minutes / 60
		if hours == 1 {
			return "0 * * * *"
		}
		return fmt.Sprintf("0 */%d * * *", hours)
	}

	// Sub-hour intervals, and the raw per-minute fallback for values
	// that do not reduce to whole hours.
	return fmt.Sprintf("*/%d * * * *", minutes)
}
