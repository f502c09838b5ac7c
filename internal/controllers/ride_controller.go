package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ride_dispatch/internal/middleware"
	"ride_dispatch/internal/models"
	"ride_dispatch/internal/rides"
)

// UserResponse is the embedded rider/driver object.
type UserResponse struct {
	ID        uint        `json:"id"`
	Role      models.Role `json:"role"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
}

type RideEventResponse struct {
	ID          uint      `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// RideResponse is one entry of a ride listing. Distance is omitted when the
// request carried no coordinates.
type RideResponse struct {
	ID               uint                `json:"id"`
	Status           models.RideStatus   `json:"status"`
	Distance         *float64            `json:"distance,omitempty"`
	PickupTime       time.Time           `json:"pickup_time"`
	TodaysRideEvents []RideEventResponse `json:"todays_ride_events"`
	Rider            *UserResponse       `json:"rider,omitempty"`
	Driver           *UserResponse       `json:"driver,omitempty"`
	PickupLatitude   float64             `json:"pickup_latitude"`
	PickupLongitude  float64             `json:"pickup_longitude"`
	DropoffLatitude  float64             `json:"dropoff_latitude"`
	DropoffLongitude float64             `json:"dropoff_longitude"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
	}
}

func optionalUser(u *models.User) *UserResponse {
	if u == nil {
		return nil
	}
	resp := toUserResponse(*u)
	return &resp
}

func toRideResponse(r models.Ride) RideResponse {
	events := make([]RideEventResponse, len(r.TodaysRideEvents))
	for i, e := range r.TodaysRideEvents {
		events[i] = RideEventResponse{ID: e.ID, Description: e.Description, CreatedAt: e.CreatedAt}
	}
	return RideResponse{
		ID:               r.ID,
		Status:           r.Status,
		Distance:         r.Distance,
		PickupTime:       r.PickupTime,
		TodaysRideEvents: events,
		Rider:            optionalUser(r.Rider),
		Driver:           optionalUser(r.Driver),
		PickupLatitude:   r.PickupLatitude,
		PickupLongitude:  r.PickupLongitude,
		DropoffLatitude:  r.DropoffLatitude,
		DropoffLongitude: r.DropoffLongitude,
	}
}

// RideController serves the admin ride endpoints.
type RideController struct {
	svc *rides.Service
}

func NewRideController(svc *rides.Service) *RideController {
	return &RideController{svc: svc}
}

// ListRides handles GET /api/rides/
func (rc *RideController) ListRides(c *gin.Context) {
	page, err := rc.svc.ListRides(c.Request.Context(), middleware.IdentityClaim(c), rides.ListRequest{
		Status:     c.Query("status"),
		RiderEmail: c.Query("rider_email"),
		Latitude:   c.Query("latitude"),
		Longitude:  c.Query("longitude"),
		Ordering:   c.Query("ordering"),
		Page:       c.Query("page"),
		PageSize:   c.Query("page_size"),
	})
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(c, page, toRideResponse))
}

// GetRide handles GET /api/rides/:id
func (rc *RideController) GetRide(c *gin.Context) {
	ride, err := rc.svc.GetRide(c.Request.Context(), middleware.IdentityClaim(c),
		c.Param("id"), c.Query("latitude"), c.Query("longitude"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideResponse(ride))
}
