package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/ssaraswat/campus-services/internal/config"
	"github.com/ssaraswat/campus-services/internal/database"
	"github.com/ssaraswat/campus-services/internal/handler"
	"github.com/ssaraswat/campus-services/internal/library"
	"github.com/ssaraswat/campus-services/internal/middleware"
	"github.com/ssaraswat/campus-services/internal/queue"
	"github.com/ssaraswat/campus-services/internal/repository"
	"github.com/ssaraswat/campus-services/internal/router"
	queue_publisher "github.com/ssaraswat/campus-services/internal/service"
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

	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	libRepo := repository.NewLibraryRepo(db)
	canteen := repository.NewCanteenRepo(db)
	feedback := repository.NewFeedbackRepo(db)
	collab := repository.NewCollaborationRepo(db)
	timetable := repository.NewTimetableRepo(db)

	libSvc := library.New(db, libRepo, queue_publisher.Notifier{}, cfg.LoanPeriod, cfg.NotifyWindow)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	studentLibH := handler.NewStudentLibraryHandler(libSvc, libRepo)
	adminLibH := handler.NewAdminLibraryHandler(libSvc, libRepo)
	canteenH := handler.NewCanteenHandler(canteen)
	feedbackH := handler.NewFeedbackHandler(feedback)
	collabH := handler.NewCollaborationHandler(collab)
	timetableH := handler.NewTimetableHandler(timetable, users)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterStudentLibrary(e, studentLibH, cfg.JWTSecret, cache)
	router.RegisterAdminLibrary(e, adminLibH, cfg.JWTSecret)
	router.RegisterCanteen(e, canteenH, cfg.JWTSecret, cache)
	router.RegisterFeedback(e, feedbackH, cfg.JWTSecret)
	router.RegisterCollaboration(e, collabH, cfg.JWTSecret, cache)
	router.RegisterTimetable(e, timetableH, cfg.JWTSecret, cache)

	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notify-consumer: stopped: %v", err)
		}
	}()
	go libSvc.RunExpirySweeper(context.Background(), cfg.SweepInterval)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
