package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/pawhaven/pet-adoption-api/internal/config"
	"github.com/pawhaven/pet-adoption-api/internal/database"
	"github.com/pawhaven/pet-adoption-api/internal/handler"
	"github.com/pawhaven/pet-adoption-api/internal/middleware"
	"github.com/pawhaven/pet-adoption-api/internal/queue"
	"github.com/pawhaven/pet-adoption-api/internal/repository"
	"github.com/pawhaven/pet-adoption-api/internal/router"
	"github.com/pawhaven/pet-adoption-api/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	photos, err := storage.NewDiskStore(cfg.UploadDir, cfg.PhotoBaseURL)
	if err != nil {
		log.Fatalf("photo store: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	pets := repository.NewPetRepo(db)
	adoptions := repository.NewAdoptionRepo(db)

	// Redis is optional: without it the API runs with caching and rate
	// limiting disabled rather than refusing to start.
	rdb := config.NewRedisClient()
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()

	authH := handler.NewAuthHandler(cfg, users, tokens)
	petH := handler.NewPetHandler(pets, photos, cacheCfg, rdb)
	adoptionH := handler.NewAdoptionHandler(adoptions, pets, true)
	userH := handler.NewUserHandler(users, tokens, cfg.BcryptCost)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	if rdb != nil && rateCfg.Enabled {
		e.Use(middleware.NewTokenBucket(rateCfg, rdb))
	}

	var cacheMW echo.MiddlewareFunc
	if rdb != nil && cacheCfg.Enabled {
		cacheMW = middleware.NewRedisCache(cacheCfg, rdb)
	}

	router.RegisterRoutes(e, cfg.UploadDir, cfg.PhotoBaseURL)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPets(e, petH, cfg.JWTSecret, cacheMW)
	router.RegisterAdoptions(e, adoptionH, cfg.JWTSecret)
	router.RegisterUsers(e, userH, cfg.JWTSecret)

	// Decision events are consumed off-process; the consumer reconnects
	// with backoff for as long as the server runs.
	go func() {
		if err := queue.StartAdoptionConsumer(); err != nil {
			log.Printf("adoption consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
