package scheduler

import (
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/models"
)

// windowScanLimit bounds the search for the next eligible instant. Eight days
// covers every weekday and hour combination once over.
const windowScanLimit = 8 * 24 * time.Hour

// WindowEligibleAt reports whether the window permits sending at the given
// instant. A nil window always permits. Evaluation is in UTC.
func WindowEligibleAt(w *models.SendWindow, at time.Time) bool {
	if w == nil {
		return true
	}

	t := at.UTC()
	return w.AllowsWeekday(t.Weekday()) && w.AllowsHour(t.Hour())
}

// NextEligibleInstant returns the earliest instant at or after from that the
// window permits. It returns the zero time when the window matches nothing,
// which ValidateWindow rejects at campaign creation.
func NextEligibleInstant(w *models.SendWindow, from time.Time) time.Time {
	t := from.UTC()
	if WindowEligibleAt(w, t) {
		return t
	}

	// Step to each following hour boundary until one falls inside the window
	t = t.Truncate(time.Hour).Add(time.Hour)
	limit := t.Add(windowScanLimit)
	for t.Before(limit) {
		if WindowEligibleAt(w, t) {
			return t
		}
		t = t.Add(time.Hour)
	}

	return time.Time{}
}

// ValidateWindow rejects windows that can never permit a send or that carry
// out-of-range values. A nil window is valid and means no restriction.
func ValidateWindow(w *models.SendWindow) error {
	if w == nil {
		return nil
	}

	if len(w.AllowedHours) == 0 {
		return fmt.Errorf("send window allows no hours")
	}
	if len(w.AllowedWeekdays) == 0 {
		return fmt.Errorf("send window allows no weekdays")
	}

	for _, h := range w.AllowedHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("send window hour %d out of range 0-23", h)
		}
	}
	for _, d := range w.AllowedWeekdays {
		if d < 0 || d > 6 {
			return fmt.Errorf("send window weekday %d out of range 0-6", d)
		}
	}

	return nil
}
