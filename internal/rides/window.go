package rides

import (
	"cmp"
	"slices"
	"time"

	"ride_dispatch/internal/models"
)

// DefaultEventWindow is how far back "today's" ride events reach.
const DefaultEventWindow = 24 * time.Hour

// Window is the trailing range [Start, End] of admitted event timestamps.
type Window struct {
	Start time.Time
	End   time.Time
}

// TrailingWindow returns the window of length span ending at now.
func TrailingWindow(now time.Time, span time.Duration) Window {
	return Window{Start: now.Add(-span), End: now}
}

// Admits reports whether an event created at t belongs to the window. Only the
// lower bound is enforced; events stamped slightly ahead of now by clock skew
// are still admitted.
func (w Window) Admits(t time.Time) bool {
	return !t.Before(w.Start)
}

// MergeEvents attaches to each ride the events admitted by w, oldest first.
// Rides without admitted events get an empty, non-nil slice.
func MergeEvents(rides []models.Ride, events []models.RideEvent, w Window) {
	byRide := make(map[uint][]models.RideEvent, len(rides))
	for _, ev := range events {
		if w.Admits(ev.CreatedAt) {
			byRide[ev.RideID] = append(byRide[ev.RideID], ev)
		}
	}

	for i := range rides {
		attached := byRide[rides[i].ID]
		if attached == nil {
			attached = []models.RideEvent{}
		}
		slices.SortStableFunc(attached, func(a, b models.RideEvent) int {
			if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		rides[i].TodaysRideEvents = attached
	}
}
