package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"ride_dispatch/internal/apperr"
	"ride_dispatch/internal/geo"
	"ride_dispatch/internal/models"
	"ride_dispatch/internal/rides"
)

// GormStore reads users, rides and events from postgres through GORM. Distance,
// ordering and pagination are pushed down into SQL.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ rides.Store = (*GormStore)(nil)
var _ rides.PagedRideStore = (*GormStore)(nil)

func (s *GormStore) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, apperr.NotFound("user not found")
		}
		return models.User{}, classify("find user", err)
	}
	return user, nil
}

// filtered starts a rides query with the equality/substring predicates applied.
func (s *GormStore) filtered(ctx context.Context, f rides.Filters) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Ride{})
	if f.Status != "" {
		q = q.Where("LOWER(rides.status) = LOWER(?)", f.Status)
	}
	if f.RiderEmail != "" {
		q = q.Joins("JOIN users AS riders ON riders.id = rides.rider_id").
			Where("LOWER(riders.email) LIKE ?", "%"+escapeLike(strings.ToLower(f.RiderEmail))+"%")
	}
	return q
}

func (s *GormStore) CandidateRides(ctx context.Context, f rides.Filters) ([]models.Ride, error) {
	var out []models.Ride
	err := s.filtered(ctx, f).
		Select("rides.*").
		Preload("Rider").
		Preload("Driver").
		Order("rides.id").
		Find(&out).Error
	if err != nil {
		return nil, classify("list rides", err)
	}
	return out, nil
}

func (s *GormStore) CountRides(ctx context.Context, q rides.QuerySpec) (int64, error) {
	var total int64
	if err := s.filtered(ctx, q.Filters).Count(&total).Error; err != nil {
		return 0, classify("count rides", err)
	}
	return total, nil
}

// pageQuery builds the ordered, distance-projected page query without running it.
func (s *GormStore) pageQuery(ctx context.Context, q rides.QuerySpec) *gorm.DB {
	tx := s.filtered(ctx, q.Filters)
	// Without an explicit select gorm lists every model column, distance included.
	if q.HasReference() {
		expr := geo.DistanceSQL("rides.pickup_latitude", "rides.pickup_longitude")
		tx = tx.Select("rides.*, "+expr+" AS distance", geo.DistanceArgs(q.Reference.Y(), q.Reference.X())...)
	} else {
		tx = tx.Select("rides.*")
	}
	for _, key := range q.Ordering {
		tx = tx.Order(orderClause(key))
	}
	return tx.Offset(q.Page.Offset()).Limit(q.Page.Size)
}

func (s *GormStore) RidePage(ctx context.Context, q rides.QuerySpec) ([]models.Ride, error) {
	var out []models.Ride
	err := s.pageQuery(ctx, q).
		Preload("Rider").
		Preload("Driver").
		Find(&out).Error
	if err != nil {
		return nil, classify("list rides", err)
	}
	return out, nil
}

func orderClause(key rides.OrderKey) string {
	var column string
	switch key.Field {
	case rides.FieldDistance:
		column = "distance"
	case rides.FieldPickupTime:
		column = "rides.pickup_time"
	default:
		column = "rides.id"
	}
	if key.Desc {
		return column + " DESC"
	}
	return column + " ASC"
}

func (s *GormStore) RecentEvents(ctx context.Context, rideIDs []uint, since time.Time) ([]models.RideEvent, error) {
	if len(rideIDs) == 0 {
		return nil, nil
	}
	var events []models.RideEvent
	err := s.db.WithContext(ctx).
		Where("ride_id IN ? AND created_at >= ?", rideIDs, since).
		Order("created_at, id").
		Find(&events).Error
	if err != nil {
		return nil, classify("list ride events", err)
	}
	return events, nil
}

func (s *GormStore) RideByID(ctx context.Context, id uint) (models.Ride, error) {
	var ride models.Ride
	err := s.db.WithContext(ctx).
		Preload("Rider").
		Preload("Driver").
		First(&ride, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Ride{}, apperr.NotFound("ride not found")
		}
		return models.Ride{}, classify("get ride", err)
	}
	return ride, nil
}

func (s *GormStore) UserPage(ctx context.Context, page rides.PageRequest) ([]models.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, classify("count users", err)
	}
	if int64(page.Offset()) >= total {
		return nil, total, nil
	}
	var users []models.User
	err := s.db.WithContext(ctx).
		Order("id").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&users).Error
	if err != nil {
		return nil, 0, classify("list users", err)
	}
	return users, total, nil
}

func (s *GormStore) EventPage(ctx context.Context, since time.Time, page rides.PageRequest) ([]models.RideEvent, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.RideEvent{}).Where("created_at >= ?", since)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, classify("count ride events", err)
	}
	if int64(page.Offset()) >= total {
		return nil, total, nil
	}
	var events []models.RideEvent
	err := s.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at, id").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&events).Error
	if err != nil {
		return nil, 0, classify("list ride events", err)
	}
	return events, total, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return classify("ping", err)
	}
	return classify("ping", sqlDB.PingContext(ctx))
}
