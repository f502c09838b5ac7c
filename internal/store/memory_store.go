package store

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"ride_dispatch/internal/apperr"
	"ride_dispatch/internal/models"
	"ride_dispatch/internal/rides"
)

// MemoryStore is an in-process store for local runs and tests. It cannot
// express distance in a query, so the service computes, orders and paginates
// its candidates in application code.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[uint]models.User
	rides  map[uint]models.Ride
	events []models.RideEvent
	nextID struct{ user, ride, event uint }
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[uint]models.User),
		rides: make(map[uint]models.Ride),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

var _ rides.Store = (*MemoryStore)(nil)

// AddUser stores u, assigning an id when it has none. Emails are unique,
// compared case-insensitively.
func (m *MemoryStore) AddUser(u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return models.User{}, fmt.Errorf("email %q already in use", u.Email)
		}
	}
	if u.ID == 0 {
		m.nextID.user++
		u.ID = m.nextID.user
	} else if u.ID > m.nextID.user {
		m.nextID.user = u.ID
	}
	m.users[u.ID] = u
	return u, nil
}

// AddRide stores r. Rider and Driver are stored by reference only.
func (m *MemoryStore) AddRide(r models.Ride) models.Ride {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.Status == "" {
		r.Status = models.RideStatusRequested
	}
	if r.ID == 0 {
		m.nextID.ride++
		r.ID = m.nextID.ride
	} else if r.ID > m.nextID.ride {
		m.nextID.ride = r.ID
	}
	r.Rider, r.Driver = nil, nil
	r.Distance, r.TodaysRideEvents, r.Events = nil, nil, nil
	m.rides[r.ID] = r
	return r
}

// AddEvent stores e, stamping CreatedAt when unset.
func (m *MemoryStore) AddEvent(e models.RideEvent) models.RideEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == 0 {
		m.nextID.event++
		e.ID = m.nextID.event
	} else if e.ID > m.nextID.event {
		m.nextID.event = e.ID
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = m.now()
	}
	m.events = append(m.events, e)
	return e
}

// DeleteRide removes a ride together with its events.
func (m *MemoryStore) DeleteRide(id uint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.rides, id)
	m.events = slices.DeleteFunc(m.events, func(e models.RideEvent) bool { return e.RideID == id })
}

// Fixture is the JSON seed format accepted by LoadFixture.
type Fixture struct {
	Users  []models.User      `json:"users"`
	Rides  []models.Ride      `json:"rides"`
	Events []models.RideEvent `json:"events"`
}

// LoadFixture seeds the store from a JSON document.
func (m *MemoryStore) LoadFixture(r io.Reader) error {
	var fx Fixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return fmt.Errorf("decode fixture: %w", err)
	}
	for _, u := range fx.Users {
		role, ok := models.ParseRole(string(u.Role))
		if !ok {
			return fmt.Errorf("user %q: unknown role %q", u.Email, u.Role)
		}
		u.Role = role
		if _, err := m.AddUser(u); err != nil {
			return err
		}
	}
	for _, ride := range fx.Rides {
		if ride.Status != "" && !ride.Status.Valid() {
			return fmt.Errorf("ride %d: unknown status %q", ride.ID, ride.Status)
		}
		m.AddRide(ride)
	}
	for _, e := range fx.Events {
		m.AddEvent(e)
	}
	return nil
}

func (m *MemoryStore) UserByEmail(ctx context.Context, email string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, classify("find user", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, apperr.NotFound("user not found")
}

// hydrate returns a copy of r with rider and driver attached. Callers hold mu.
func (m *MemoryStore) hydrate(r models.Ride) models.Ride {
	if r.RiderID != nil {
		if u, ok := m.users[*r.RiderID]; ok {
			r.Rider = &u
		}
	}
	if r.DriverID != nil {
		if u, ok := m.users[*r.DriverID]; ok {
			r.Driver = &u
		}
	}
	return r
}

func (m *MemoryStore) CandidateRides(ctx context.Context, f rides.Filters) ([]models.Ride, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("list rides", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Ride, 0, len(m.rides))
	for _, r := range m.rides {
		r = m.hydrate(r)
		if f.Match(&r) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b models.Ride) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *MemoryStore) RecentEvents(ctx context.Context, rideIDs []uint, since time.Time) ([]models.RideEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify("list ride events", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[uint]bool, len(rideIDs))
	for _, id := range rideIDs {
		wanted[id] = true
	}
	var out []models.RideEvent
	for _, e := range m.events {
		if wanted[e.RideID] && !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func (m *MemoryStore) RideByID(ctx context.Context, id uint) (models.Ride, error) {
	if err := ctx.Err(); err != nil {
		return models.Ride{}, classify("get ride", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rides[id]
	if !ok {
		return models.Ride{}, apperr.NotFound("ride not found")
	}
	return m.hydrate(r), nil
}

func (m *MemoryStore) UserPage(ctx context.Context, page rides.PageRequest) ([]models.User, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, classify("list users", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b models.User) int { return cmp.Compare(a.ID, b.ID) })
	return rides.SlicePage(users, page), int64(len(users)), nil
}

func (m *MemoryStore) EventPage(ctx context.Context, since time.Time, page rides.PageRequest) ([]models.RideEvent, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, classify("list ride events", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var recent []models.RideEvent
	for _, e := range m.events {
		if !e.CreatedAt.Before(since) {
			recent = append(recent, e)
		}
	}
	sortEvents(recent)
	return rides.SlicePage(recent, page), int64(len(recent)), nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return classify("ping", ctx.Err())
}

func sortEvents(events []models.RideEvent) {
	slices.SortFunc(events, func(a, b models.RideEvent) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
