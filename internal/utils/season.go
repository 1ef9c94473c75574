package utils

import (
	"fmt"
	"time"
)

const (
	seasonLayout = "2006-01-02"
	slotLayout   = "2006-01-02-15"

	// DrawIntervalHours is the spacing between draw slots. Slots start on even UTC hours.
	DrawIntervalHours = 2
)

// SeasonID identifies one leaderboard season (a UTC calendar day, e.g. "2025-10-14").
type SeasonID string

// DrawSlot identifies one draw window (season + even UTC hour, e.g. "2025-10-14-14").
// At most one draw record may exist per slot.
type DrawSlot string

// CurrentSeasonID returns the season the given instant belongs to. Seasons roll over at UTC midnight.
func CurrentSeasonID(now time.Time) SeasonID {
	return SeasonID(now.UTC().Format(seasonLayout))
}

// CurrentSlot returns the draw slot for now. ok is false on odd UTC hours,
// in which case no draw may be attempted.
func CurrentSlot(now time.Time) (DrawSlot, bool) {
	utc := now.UTC()
	if utc.Hour()%DrawIntervalHours != 0 {
		return "", false
	}
	return DrawSlot(utc.Format(slotLayout)), true
}

// ParseSlot validates a slot id and returns its season and start time.
func ParseSlot(raw string) (SeasonID, time.Time, error) {
	start, err := time.ParseInLocation(slotLayout, raw, time.UTC)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid draw slot %q: %w", raw, err)
	}
	if start.Hour()%DrawIntervalHours != 0 {
		return "", time.Time{}, fmt.Errorf("invalid draw slot %q: hour must be even", raw)
	}
	return CurrentSeasonID(start), start, nil
}

// ParseSeasonID validates a season id coming from a request.
func ParseSeasonID(raw string) (SeasonID, error) {
	if _, err := time.ParseInLocation(seasonLayout, raw, time.UTC); err != nil {
		return "", fmt.Errorf("invalid season id %q (expected YYYY-MM-DD)", raw)
	}
	return SeasonID(raw), nil
}

// Season returns the season a slot belongs to.
func (s DrawSlot) Season() SeasonID {
	if len(s) < len(seasonLayout) {
		return ""
	}
	return SeasonID(s[:len(seasonLayout)])
}

// NextSlotStart returns the start of the first slot strictly after now.
func NextSlotStart(now time.Time) time.Time {
	utc := now.UTC().Truncate(time.Hour)
	next := utc.Add(time.Hour)
	for next.Hour()%DrawIntervalHours != 0 {
		next = next.Add(time.Hour)
	}
	return next
}
