package models

import "time"

// RideEvent records a status transition of a ride. Rows are owned by their ride
// and removed with it.
type RideEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RideID      uint      `gorm:"not null;index:idx_ride_events_ride_created,priority:1" json:"ride_id"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_ride_events_ride_created,priority:2" json:"created_at"`
}
