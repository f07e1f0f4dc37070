package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Whizard545/roomsync-prod/internal/config"
	"github.com/Whizard545/roomsync-prod/internal/handler"
	"github.com/Whizard545/roomsync-prod/internal/middleware"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth      *handler.AuthHandler
	Rooms     *handler.RoomHandler
	Bookings  *handler.BookingHandler
	Roles     *handler.RoleHandler
	OfficeMap *handler.OfficeMapHandler
	Admin     *handler.AdminHandler
}

// Register mounts every route on the provided Echo instance.
//
// Layout:
//
//	/healthz                      public liveness probe
//	/uploads/*                    static office map files
//	/v1/auth/*                    registration and session endpoints
//	/v1/*                         JWT-protected user endpoints
//	/v1/admin/*                   JWT-protected endpoints that also pass
//	                              the role gate inside each handler
//
// Admin routes share the protected group; role enforcement is not a
// middleware concern here. Each admin handler asks the gate itself, so
// the required role is visible at the call site and resolved against
// the role store on every request.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.Static("/uploads", cfg.UploadPath)

	// Session endpoints carry no JWT; rate limiting still applies when
	// Redis is available, to slow down credential stuffing.
	authGroup := e.Group("/v1/auth")
	if rdb != nil {
		authGroup.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	}
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout)

	api := e.Group("/v1")
	api.Use(middleware.JWTAuth(cfg.JWTSecret))
	if rdb != nil {
		api.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		// Cache entries are keyed per principal, so sharing the
		// middleware across the whole group cannot replay one
		// user's response to another.
		api.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	}

	api.GET("/me", h.Auth.Me)
	api.POST("/auth/logout-all", h.Auth.Logout)

	api.GET("/rooms", h.Rooms.ListRooms)
	api.GET("/bookings", h.Bookings.ListBookings)
	api.POST("/bookings", h.Bookings.CreateBooking)
	api.POST("/bookings/:id/cancel", h.Bookings.CancelBooking)
	api.GET("/office-map", h.OfficeMap.GetOfficeMap)

	api.POST("/admin/rooms", h.Rooms.CreateRoom)
	api.GET("/admin/rooms", h.Rooms.ListAllRooms)
	api.DELETE("/admin/rooms/:id", h.Rooms.DeleteRoom)
	api.GET("/admin/roles", h.Roles.ListRoles)
	api.POST("/admin/roles", h.Roles.GrantRole)
	api.PUT("/admin/roles/:id", h.Roles.UpdateRole)
	api.POST("/admin/office-map", h.OfficeMap.Upload)
	api.GET("/admin/office-map/history", h.OfficeMap.History)
	api.GET("/admin/stats", h.Admin.Stats)
}
