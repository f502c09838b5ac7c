package rides

import (
	"context"
	"time"

	"ride_dispatch/internal/models"
)

// RideStore is the minimum a backing store must offer: filtered candidates
// with rider and driver loaded, and a bulk fetch of recent events.
type RideStore interface {
	CandidateRides(ctx context.Context, f Filters) ([]models.Ride, error)
	// RecentEvents returns, in one round trip, the events of the given rides
	// created at or after since.
	RecentEvents(ctx context.Context, rideIDs []uint, since time.Time) ([]models.RideEvent, error)
}

// PagedRideStore is implemented by stores that project distance, order and
// paginate inside the query itself. The service prefers it when available.
type PagedRideStore interface {
	RideStore
	CountRides(ctx context.Context, q QuerySpec) (int64, error)
	RidePage(ctx context.Context, q QuerySpec) ([]models.Ride, error)
}

// Store is everything the service reads from.
type Store interface {
	UserLookup
	RideStore
	RideByID(ctx context.Context, id uint) (models.Ride, error)
	UserPage(ctx context.Context, page PageRequest) ([]models.User, int64, error)
	EventPage(ctx context.Context, since time.Time, page PageRequest) ([]models.RideEvent, int64, error)
	Ping(ctx context.Context) error
}
