// Package rides is the ride query engine: it resolves the caller, plans the
// filters and ordering of a listing, fetches rides with their recent events and
// paginates the result.
package rides

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	logrus "github.com/sirupsen/logrus"

	"ride_dispatch/internal/apperr"
	"ride_dispatch/internal/geo"
	"ride_dispatch/internal/logger"
	"ride_dispatch/internal/models"
)

// Config tunes the service.
type Config struct {
	EventWindow  time.Duration
	QueryTimeout time.Duration // zero disables the per-request deadline
	Pages        PageLimits
}

// DefaultConfig returns a 24h event window, a 5s query timeout and pages of 10 up to 100.
func DefaultConfig() Config {
	return Config{
		EventWindow:  DefaultEventWindow,
		QueryTimeout: 5 * time.Second,
		Pages:        DefaultPageLimits,
	}
}

// Service answers the admin read queries. It holds no per-request state.
type Service struct {
	store Store
	gate  *Gate
	clock Clock
	cfg   Config
}

// NewService builds a Service, filling zero config fields with defaults.
func NewService(store Store, clock Clock, cfg Config) *Service {
	if clock == nil {
		clock = SystemClock
	}
	if cfg.EventWindow <= 0 {
		cfg.EventWindow = DefaultEventWindow
	}
	if cfg.Pages.DefaultSize <= 0 {
		cfg.Pages = DefaultPageLimits
	}
	return &Service{store: store, gate: NewGate(store), clock: clock, cfg: cfg}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.QueryTimeout)
}

func (s *Service) begin(ctx context.Context, op string) *pipeline {
	return newPipeline(ctx, logger.FromContext(ctx).WithField("op", op))
}

// authorize runs the Authorizing stage shared by every operation.
func (s *Service) authorize(p *pipeline, claim string) (Principal, error) {
	if err := p.advance(StageAuthorizing); err != nil {
		return Principal{}, err
	}
	principal, err := s.gate.Resolve(p.ctx, claim)
	if err != nil {
		return Principal{}, p.fail(err)
	}
	p.log = p.log.WithField("principal", principal.Email)
	return principal, nil
}

// ListRides executes one ride listing for the caller identified by claim.
func (s *Service) ListRides(ctx context.Context, claim string, req ListRequest) (Page[models.Ride], error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p := s.begin(ctx, "list_rides")
	if _, err := s.authorize(p, claim); err != nil {
		return Page[models.Ride]{}, err
	}

	if err := p.advance(StageFilterBuilding); err != nil {
		return Page[models.Ride]{}, err
	}
	window := TrailingWindow(s.clock.Now(), s.cfg.EventWindow)
	spec, err := Plan(req, window, s.cfg.Pages)
	if err != nil {
		return Page[models.Ride]{}, p.fail(err)
	}
	p.log = p.log.WithFields(planFields(spec))

	paged, pushdown := s.store.(PagedRideStore)

	if err := p.advance(StageFetching); err != nil {
		return Page[models.Ride]{}, err
	}
	var (
		rides []models.Ride
		total int64
	)
	if pushdown {
		total, err = paged.CountRides(ctx, spec)
		if err != nil {
			return Page[models.Ride]{}, p.fail(err)
		}
		if int64(spec.Page.Offset()) < total {
			rides, err = paged.RidePage(ctx, spec)
			if err != nil {
				return Page[models.Ride]{}, p.fail(err)
			}
		}
	} else {
		rides, err = s.store.CandidateRides(ctx, spec.Filters)
		if err != nil {
			return Page[models.Ride]{}, p.fail(err)
		}
		total = int64(len(rides))
	}

	if err := p.advance(StageMerging); err != nil {
		return Page[models.Ride]{}, err
	}
	if err := s.mergeRecentEvents(ctx, rides, spec.Window); err != nil {
		return Page[models.Ride]{}, p.fail(err)
	}

	if err := p.advance(StageOrdering); err != nil {
		return Page[models.Ride]{}, err
	}
	if !pushdown {
		ProjectDistance(rides, spec.Reference)
		slices.SortStableFunc(rides, func(a, b models.Ride) int {
			return CompareRides(&a, &b, spec.Ordering)
		})
	}

	if err := p.advance(StagePaginating); err != nil {
		return Page[models.Ride]{}, err
	}
	if !pushdown {
		rides = SlicePage(rides, spec.Page)
	}
	page := NewPage(rides, total, spec.Page)

	if err := p.advance(StageProjected); err != nil {
		return Page[models.Ride]{}, err
	}
	p.log.WithFields(logrus.Fields{"count": total, "returned": len(page.Results)}).Debug("rides listed")
	return page, nil
}

// mergeRecentEvents fetches the window's events of all rides in one call and
// attaches them.
func (s *Service) mergeRecentEvents(ctx context.Context, rides []models.Ride, w Window) error {
	if len(rides) == 0 {
		return nil
	}
	ids := make([]uint, len(rides))
	for i := range rides {
		ids[i] = rides[i].ID
	}
	events, err := s.store.RecentEvents(ctx, ids, w.Start)
	if err != nil {
		return err
	}
	MergeEvents(rides, events, w)
	return nil
}

// GetRide returns a single ride projected the same way as a listing entry.
// Coordinates are optional and only used for the distance field.
func (s *Service) GetRide(ctx context.Context, claim, rawID, rawLat, rawLon string) (models.Ride, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p := s.begin(ctx, "get_ride")
	if _, err := s.authorize(p, claim); err != nil {
		return models.Ride{}, err
	}

	if err := p.advance(StageFilterBuilding); err != nil {
		return models.Ride{}, err
	}
	id, err := strconv.ParseUint(strings.TrimSpace(rawID), 10, 0)
	if err != nil || id == 0 {
		return models.Ride{}, p.fail(apperr.Validation(fmt.Sprintf("invalid ride id %q", rawID)))
	}
	ref, err := ParseReference(rawLat, rawLon)
	if err != nil {
		return models.Ride{}, p.fail(err)
	}
	window := TrailingWindow(s.clock.Now(), s.cfg.EventWindow)

	if err := p.advance(StageFetching); err != nil {
		return models.Ride{}, err
	}
	ride, err := s.store.RideByID(ctx, uint(id))
	if err != nil {
		return models.Ride{}, p.fail(err)
	}

	if err := p.advance(StageMerging); err != nil {
		return models.Ride{}, err
	}
	rides := []models.Ride{ride}
	if err := s.mergeRecentEvents(ctx, rides, window); err != nil {
		return models.Ride{}, p.fail(err)
	}
	ProjectDistance(rides, ref)

	if err := p.advance(StageProjected); err != nil {
		return models.Ride{}, err
	}
	return rides[0], nil
}

// ListUsers pages through all users ordered by id.
func (s *Service) ListUsers(ctx context.Context, claim, rawPage, rawSize string) (Page[models.User], error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p := s.begin(ctx, "list_users")
	if _, err := s.authorize(p, claim); err != nil {
		return Page[models.User]{}, err
	}

	if err := p.advance(StageFilterBuilding); err != nil {
		return Page[models.User]{}, err
	}
	req, err := ParsePage(rawPage, rawSize, s.cfg.Pages)
	if err != nil {
		return Page[models.User]{}, p.fail(err)
	}

	if err := p.advance(StageFetching); err != nil {
		return Page[models.User]{}, err
	}
	users, total, err := s.store.UserPage(ctx, req)
	if err != nil {
		return Page[models.User]{}, p.fail(err)
	}

	if err := p.advance(StageProjected); err != nil {
		return Page[models.User]{}, err
	}
	return NewPage(users, total, req), nil
}

// ListRecentEvents pages through the events created inside the trailing window,
// oldest first.
func (s *Service) ListRecentEvents(ctx context.Context, claim, rawPage, rawSize string) (Page[models.RideEvent], error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p := s.begin(ctx, "list_recent_events")
	if _, err := s.authorize(p, claim); err != nil {
		return Page[models.RideEvent]{}, err
	}

	if err := p.advance(StageFilterBuilding); err != nil {
		return Page[models.RideEvent]{}, err
	}
	req, err := ParsePage(rawPage, rawSize, s.cfg.Pages)
	if err != nil {
		return Page[models.RideEvent]{}, p.fail(err)
	}
	window := TrailingWindow(s.clock.Now(), s.cfg.EventWindow)

	if err := p.advance(StageFetching); err != nil {
		return Page[models.RideEvent]{}, err
	}
	events, total, err := s.store.EventPage(ctx, window.Start, req)
	if err != nil {
		return Page[models.RideEvent]{}, p.fail(err)
	}

	if err := p.advance(StageProjected); err != nil {
		return Page[models.RideEvent]{}, err
	}
	return NewPage(events, total, req), nil
}

// Health pings the store.
func (s *Service) Health(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.store.Ping(ctx)
}

func planFields(spec QuerySpec) logrus.Fields {
	keys := make([]string, len(spec.Ordering))
	for i, k := range spec.Ordering {
		keys[i] = k.String()
	}
	fields := logrus.Fields{
		"status":      spec.Filters.Status,
		"rider_email": spec.Filters.RiderEmail,
		"ordering":    strings.Join(keys, ","),
		"page":        spec.Page.Number,
		"page_size":   spec.Page.Size,
	}
	if spec.HasReference() {
		fields["reference"] = geo.WKT(spec.Reference)
	}
	return fields
}
