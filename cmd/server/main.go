package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/jirayus/yoga-studio-reservation/internal/config"
	"github.com/jirayus/yoga-studio-reservation/internal/database"
	"github.com/jirayus/yoga-studio-reservation/internal/handler"
	"github.com/jirayus/yoga-studio-reservation/internal/middleware"
	"github.com/jirayus/yoga-studio-reservation/internal/queue"
	"github.com/jirayus/yoga-studio-reservation/internal/repository"
	"github.com/jirayus/yoga-studio-reservation/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}

	// Background consumer draining reservation.booked into logs/.
	go func() {
		if err := queue.StartReservationConsumer(cfg.AMQPURL); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	classes := repository.NewClassRepo(db)
	reservations := repository.NewReservationRepo(db)
	packages := repository.NewPackageRepo(db)
	orders := repository.NewOrderRepo(db)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	publicH := handler.NewPublicHandler(classes, packages)
	memberH := handler.NewMemberHandler(users, classes, reservations)
	instructorH := handler.NewInstructorHandler(users, classes, reservations)
	adminClassH := handler.NewAdminClassHandler(classes)
	adminResH := handler.NewAdminReservationHandler(users, classes, reservations)
	adminPkgH := handler.NewAdminPackageHandler(packages)
	orderH := handler.NewOrderHandler(users, packages, orders)

	e := echo.New()
	e.HideBanner = true

	// Token-bucket rate limiting applies to every route; the key
	// strategy defaults to ip+user+route.
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, cacheMW)
	router.RegisterMember(e, memberH, orderH, cfg.JWTSecret)
	router.RegisterInstructor(e, instructorH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminClassH, adminResH, adminPkgH, orderH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
