package models

import (
	"strings"
	"time"
)

type RideStatus string

const (
	RideStatusRequested RideStatus = "requested"
	RideStatusEnRoute   RideStatus = "en-route"
	RideStatusPickup    RideStatus = "pickup"
	RideStatusDropoff   RideStatus = "dropoff"
	RideStatusCompleted RideStatus = "completed"
	RideStatusCanceled  RideStatus = "canceled"
)

var RideStatuses = []RideStatus{
	RideStatusRequested,
	RideStatusEnRoute,
	RideStatusPickup,
	RideStatusDropoff,
	RideStatusCompleted,
	RideStatusCanceled,
}

func (s RideStatus) Valid() bool {
	for _, v := range RideStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// EqualFold reports whether s matches the raw value case-insensitively.
func (s RideStatus) EqualFold(raw string) bool {
	return strings.EqualFold(string(s), raw)
}

// Ride is a single trip request. Rider and Driver are optional references to users.
type Ride struct {
	ID     uint       `gorm:"primaryKey" json:"id"`
	Status RideStatus `gorm:"size:50;not null;default:requested;index" json:"status"`

	RiderID  *uint `gorm:"index" json:"rider_id"`
	Rider    *User `gorm:"foreignKey:RiderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"rider,omitempty"`
	DriverID *uint `gorm:"index" json:"driver_id"`
	Driver   *User `gorm:"foreignKey:DriverID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"driver,omitempty"`

	PickupLatitude   float64   `gorm:"not null" json:"pickup_latitude"`
	PickupLongitude  float64   `gorm:"not null" json:"pickup_longitude"`
	DropoffLatitude  float64   `gorm:"not null" json:"dropoff_latitude"`
	DropoffLongitude float64   `gorm:"not null" json:"dropoff_longitude"`
	PickupTime       time.Time `gorm:"not null;index" json:"pickup_time"`

	// Events exists for the cascade constraint; reads go through TodaysRideEvents.
	Events []RideEvent `gorm:"foreignKey:RideID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	// Query-time projections, never persisted.
	Distance         *float64    `gorm:"->;-:migration" json:"distance,omitempty"`
	TodaysRideEvents []RideEvent `gorm:"-" json:"todays_ride_events"`
}
