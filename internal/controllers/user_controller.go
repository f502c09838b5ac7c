package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ride_dispatch/internal/middleware"
	"ride_dispatch/internal/models"
	"ride_dispatch/internal/rides"
)

// UserController serves the admin user and event listings.
type UserController struct {
	svc *rides.Service
}

func NewUserController(svc *rides.Service) *UserController {
	return &UserController{svc: svc}
}

// ListUsers handles GET /api/users/
func (uc *UserController) ListUsers(c *gin.Context) {
	page, err := uc.svc.ListUsers(c.Request.Context(), middleware.IdentityClaim(c), c.Query("page"), c.Query("page_size"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(c, page, toUserResponse))
}

// EventResponse is an entry of the recent event listing.
type EventResponse struct {
	ID          uint      `json:"id"`
	RideID      uint      `json:"ride_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func toEventResponse(e models.RideEvent) EventResponse {
	return EventResponse{ID: e.ID, RideID: e.RideID, Description: e.Description, CreatedAt: e.CreatedAt}
}

// ListRecentEvents handles GET /api/ride-events/
func (uc *UserController) ListRecentEvents(c *gin.Context) {
	page, err := uc.svc.ListRecentEvents(c.Request.Context(), middleware.IdentityClaim(c), c.Query("page"), c.Query("page_size"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(c, page, toEventResponse))
}

// Health handles GET /healthz
func (uc *UserController) Health(c *gin.Context) {
	if err := uc.svc.Health(c.Request.Context()); err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
