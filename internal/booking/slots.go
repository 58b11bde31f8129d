package booking

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/models"
)

// Slot is one open, bookable interval returned by slot search.
type Slot struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

// daySchedule is the shape a Team's WorkingHours blob is expected to take:
// a map from lowercase three-letter weekday key ("mon".."sun") to the
// day's open/close time-of-day ("HH:MM").
type daySchedule struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// blackoutWindow is one entry in a Team's Blackouts blob.
type blackoutWindow struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

// slotGranularity is the step between candidate slot starts.
const slotGranularity = 30 * time.Minute

// AvailableSlots enumerates every durationMin-long interval starting on a
// slotGranularity boundary within [from, to) that falls inside the team's
// working hours (when configured), avoids its blackouts, and doesn't
// overlap an existing non-cancelled, non-expired booking. A team with no
// WorkingHours configured is treated as open around the clock.
func AvailableSlots(tx *gorm.DB, orgID string, team *models.Team, from, to time.Time, durationMin int) ([]Slot, error) {
	var schedule map[string]daySchedule
	_ = json.Unmarshal(team.WorkingHours, &schedule)
	var blackouts []blackoutWindow
	_ = json.Unmarshal(team.Blackouts, &blackouts)

	existing, err := bookings.ListByTeamRange(tx, orgID, team.ID, time.Time{}, to)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(durationMin) * time.Minute
	var open []Slot
	for start := from; !start.Add(duration).After(to); start = start.Add(slotGranularity) {
		end := start.Add(duration)
		if len(schedule) > 0 && !withinSchedule(schedule, start, end) {
			continue
		}
		if overlapsAny(blackouts, start, end) {
			continue
		}
		if overlapsExisting(existing, start, end) {
			continue
		}
		open = append(open, Slot{StartsAt: start, EndsAt: end})
	}
	return open, nil
}

func withinSchedule(schedule map[string]daySchedule, start, end time.Time) bool {
	day, ok := schedule[weekdayKey(start.Weekday())]
	if !ok {
		return false
	}
	openAt, err1 := clockOn(start, day.Start)
	closeAt, err2 := clockOn(start, day.End)
	if err1 != nil || err2 != nil {
		return false
	}
	return !start.Before(openAt) && !end.After(closeAt)
}

func clockOn(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

func weekdayKey(d time.Weekday) string {
	return strings.ToLower(d.String()[:3])
}

func overlapsAny(windows []blackoutWindow, start, end time.Time) bool {
	for _, w := range windows {
		if w.StartsAt.Before(end) && start.Before(w.EndsAt) {
			return true
		}
	}
	return false
}

func overlapsExisting(existing []models.Booking, start, end time.Time) bool {
	for _, b := range existing {
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}
