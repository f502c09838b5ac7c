package routes

import (
	"github.com/gin-gonic/gin"

	"ride_dispatch/internal/controllers"
	"ride_dispatch/internal/middleware"
)

// AdminRoutes mounts the admin-only read API. The identity middleware only
// extracts the claim; the service resolves it and enforces the admin role.
func AdminRoutes(r *gin.Engine, d Deps) {
	rc := controllers.NewRideController(d.Service)
	uc := controllers.NewUserController(d.Service)

	api := r.Group("/api")
	api.Use(middleware.Identity(d.IdentityHeader, d.JWTSecret))
	{
		api.GET("/rides/", rc.ListRides)
		api.GET("/rides/:id", rc.GetRide)
		api.GET("/users/", uc.ListUsers)
		api.GET("/ride-events/", uc.ListRecentEvents)
	}
}
