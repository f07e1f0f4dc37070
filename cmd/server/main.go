package main

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Whizard545/roomsync-prod/internal/auth"
	"github.com/Whizard545/roomsync-prod/internal/config"
	"github.com/Whizard545/roomsync-prod/internal/database"
	"github.com/Whizard545/roomsync-prod/internal/handler"
	"github.com/Whizard545/roomsync-prod/internal/repository"
	"github.com/Whizard545/roomsync-prod/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	logrus.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Env == "dev" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	// Redis is optional: without it the rate limiter and response cache
	// are simply not mounted.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	roomRepo := repository.NewRoomRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	officeMapRepo := repository.NewOfficeMapRepo(db)

	gate := auth.NewGate(roleRepo)

	h := router.Handlers{
		Auth:      handler.NewAuthHandler(userRepo, tokenRepo, roleRepo, cfg),
		Rooms:     handler.NewRoomHandler(roomRepo, bookingRepo, gate),
		Bookings:  handler.NewBookingHandler(roomRepo, bookingRepo, gate),
		Roles:     handler.NewRoleHandler(roleRepo, gate),
		OfficeMap: handler.NewOfficeMapHandler(officeMapRepo, gate, cfg),
		Admin:     handler.NewAdminHandler(userRepo, roomRepo, bookingRepo, roleRepo, gate),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.Register(e, h, cfg, rdb)

	addr := ":" + cfg.Port
	logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
	if err := e.Start(addr); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
