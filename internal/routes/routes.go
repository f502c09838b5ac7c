package routes

import (
	"io"
	"os"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"ride_dispatch/internal/controllers"
	"ride_dispatch/internal/middleware"
	"ride_dispatch/internal/rides"
)

// Deps is what the router needs from main.
type Deps struct {
	Service        *rides.Service
	IdentityHeader string
	JWTSecret      []byte
	AccessLog      io.Writer // defaults to stdout
}

func SetupRouter(d Deps) *gin.Engine {
	if d.AccessLog == nil {
		d.AccessLog = os.Stdout
	}
	if d.IdentityHeader == "" {
		d.IdentityHeader = "X-User-Email"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(ginlog.SetLogger(
		ginlog.WithUTC(true),
		ginlog.WithWriter(d.AccessLog),
		ginlog.WithSkipPath([]string{"/healthz"}),
	))

	users := controllers.NewUserController(d.Service)
	r.GET("/healthz", users.Health)

	AdminRoutes(r, d)

	return r
}
