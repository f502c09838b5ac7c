package rides

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"

	"ride_dispatch/internal/apperr"
	"ride_dispatch/internal/geo"
	"ride_dispatch/internal/models"
)

// ListRequest holds the raw query parameters of a ride listing. Empty strings
// mean "not supplied".
type ListRequest struct {
	Status     string
	RiderEmail string
	Latitude   string
	Longitude  string
	Ordering   string
	Page       string
	PageSize   string
}

// Filters are ANDed together; empty fields do not filter.
type Filters struct {
	Status     string // case-insensitive exact match
	RiderEmail string // case-insensitive substring of the rider's email
}

// Match applies the filters to a ride whose Rider is loaded.
func (f Filters) Match(r *models.Ride) bool {
	if f.Status != "" && !r.Status.EqualFold(f.Status) {
		return false
	}
	if f.RiderEmail != "" {
		if r.Rider == nil {
			return false
		}
		if !strings.Contains(strings.ToLower(r.Rider.Email), strings.ToLower(f.RiderEmail)) {
			return false
		}
	}
	return true
}

// Field names a column a listing can be ordered by.
type Field string

const (
	FieldPickupTime Field = "pickup_time"
	FieldDistance   Field = "distance"
	FieldID         Field = "id"
)

// OrderKey is one entry of an ordering key list.
type OrderKey struct {
	Field Field
	Desc  bool
}

func (k OrderKey) String() string {
	if k.Desc {
		return "-" + string(k.Field)
	}
	return string(k.Field)
}

// QuerySpec is the immutable plan of one listing. It is built once by Plan and
// only read afterwards.
type QuerySpec struct {
	Filters   Filters
	Reference *geom.Point // nil when no coordinates were supplied
	Ordering  []OrderKey
	Window    Window
	Page      PageRequest
}

// HasReference reports whether the listing carries a reference coordinate.
func (q QuerySpec) HasReference() bool { return q.Reference != nil }

// Plan validates a ListRequest and turns it into a QuerySpec.
func Plan(req ListRequest, window Window, limits PageLimits) (QuerySpec, error) {
	ref, err := ParseReference(req.Latitude, req.Longitude)
	if err != nil {
		return QuerySpec{}, err
	}

	ordering, err := BuildOrdering(req.Ordering, ref != nil)
	if err != nil {
		return QuerySpec{}, err
	}

	page, err := ParsePage(req.Page, req.PageSize, limits)
	if err != nil {
		return QuerySpec{}, err
	}

	return QuerySpec{
		Filters: Filters{
			Status:     strings.TrimSpace(req.Status),
			RiderEmail: strings.TrimSpace(req.RiderEmail),
		},
		Reference: ref,
		Ordering:  ordering,
		Window:    window,
		Page:      page,
	}, nil
}

// ParseReference parses the optional reference coordinate. Both values must be
// supplied together, parse as finite floats and lie inside the degree ranges.
func ParseReference(rawLat, rawLon string) (*geom.Point, error) {
	rawLat, rawLon = strings.TrimSpace(rawLat), strings.TrimSpace(rawLon)
	if rawLat == "" && rawLon == "" {
		return nil, nil
	}
	if rawLat == "" || rawLon == "" {
		return nil, apperr.Validation("latitude and longitude must be supplied together")
	}

	lat, err := parseDegrees("latitude", rawLat)
	if err != nil {
		return nil, err
	}
	lon, err := parseDegrees("longitude", rawLon)
	if err != nil {
		return nil, err
	}
	if !geo.Valid(lat, lon) {
		return nil, apperr.Validation(fmt.Sprintf("coordinate (%s, %s) is out of range", rawLat, rawLon))
	}
	return geo.NewPoint(lat, lon), nil
}

func parseDegrees(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperr.Validation(fmt.Sprintf("invalid %s %q: must be a decimal number", name, raw))
	}
	return v, nil
}

// BuildOrdering returns a fresh ordering key list. Without an explicit request
// the list is distance then pickup_time when a reference point exists, and
// pickup_time alone otherwise. Ride id is always the final tiebreak.
func BuildOrdering(raw string, hasReference bool) ([]OrderKey, error) {
	var keys []OrderKey
	seen := make(map[Field]bool)

	for _, term := range strings.Split(raw, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		desc := strings.HasPrefix(term, "-")
		field := Field(strings.TrimPrefix(term, "-"))

		switch field {
		case FieldPickupTime:
		case FieldDistance:
			if !hasReference {
				return nil, apperr.Validation("ordering by distance requires latitude and longitude")
			}
		default:
			return nil, apperr.Validation(fmt.Sprintf("invalid ordering field %q; allowed: %s", term, strings.Join(allowedOrdering(hasReference), ", ")))
		}

		if seen[field] {
			continue
		}
		seen[field] = true
		keys = append(keys, OrderKey{Field: field, Desc: desc})
	}

	if len(keys) == 0 {
		if hasReference {
			keys = append(keys, OrderKey{Field: FieldDistance})
		}
		keys = append(keys, OrderKey{Field: FieldPickupTime})
	}

	return append(keys, OrderKey{Field: FieldID}), nil
}

func allowedOrdering(hasReference bool) []string {
	if hasReference {
		return []string{string(FieldPickupTime), string(FieldDistance)}
	}
	return []string{string(FieldPickupTime)}
}

// CompareRides orders two rides by the key list. Rides without a distance sort
// after those with one, matching postgres' NULLS LAST for ascending order.
func CompareRides(a, b *models.Ride, keys []OrderKey) int {
	for _, k := range keys {
		var c int
		switch k.Field {
		case FieldDistance:
			c = cmp.Compare(distanceOrInf(a), distanceOrInf(b))
		case FieldPickupTime:
			c = a.PickupTime.Compare(b.PickupTime)
		case FieldID:
			c = cmp.Compare(a.ID, b.ID)
		}
		if k.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func distanceOrInf(r *models.Ride) float64 {
	if r.Distance == nil {
		return math.Inf(1)
	}
	return *r.Distance
}

// ProjectDistance sets each ride's distance from ref to its pickup point. It is
// a no-op without a reference.
func ProjectDistance(rides []models.Ride, ref *geom.Point) {
	if ref == nil {
		return
	}
	for i := range rides {
		d := geo.DistanceKm(ref, geo.NewPoint(rides[i].PickupLatitude, rides[i].PickupLongitude))
		rides[i].Distance = &d
	}
}
