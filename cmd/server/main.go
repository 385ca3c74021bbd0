package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/aerotrip/miles-backoffice/internal/config"
	"github.com/aerotrip/miles-backoffice/internal/database"
	"github.com/aerotrip/miles-backoffice/internal/handler"
	"github.com/aerotrip/miles-backoffice/internal/middleware"
	"github.com/aerotrip/miles-backoffice/internal/queue"
	"github.com/aerotrip/miles-backoffice/internal/repository"
	"github.com/aerotrip/miles-backoffice/internal/router"
	"github.com/aerotrip/miles-backoffice/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set env vars directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer db.Close()

	// Redis backs the response cache and the rate limiter.  A nil client
	// disables both; the ledger itself never depends on Redis.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: response cache and rate limiting disabled")
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	clients := repository.NewClientRepo(db)
	programs := repository.NewProgramRepo(db)
	accounts := repository.NewAccountRepo(db)
	movements := repository.NewMovementRepo(db)
	redemptions := repository.NewRedemptionRepo(db)
	quotations := repository.NewQuotationRepo(db)

	// Services.
	ledgerSvc := service.NewLedgerService(accounts, programs, movements)
	transferSvc := service.NewTransferService(accounts, programs, movements)
	redemptionSvc := service.NewRedemptionService(redemptions, accounts, programs, movements)

	// The consumer mirrors ledger events into the audit log.  It keeps
	// reconnecting in the background, so a broker outage never blocks the API.
	go func() {
		if err := queue.StartLedgerConsumer(); err != nil {
			log.Printf("ledger consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)

	var cacheMW, limiterMW echo.MiddlewareFunc
	if rdb != nil {
		cacheMW = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
		limiterMW = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	}
	router.RegisterLedger(e, router.LedgerHandlers{
		Programs:    handler.NewProgramHandler(programs),
		Clients:     handler.NewClientHandler(clients),
		Accounts:    handler.NewAccountHandler(accounts, ledgerSvc),
		Movements:   handler.NewMovementHandler(movements, accounts, ledgerSvc, transferSvc),
		Redemptions: handler.NewRedemptionHandler(redemptions, redemptionSvc),
		Quotations:  handler.NewQuotationHandler(quotations),
		Dashboard:   handler.NewDashboardHandler(accounts, programs, ledgerSvc),
	}, cfg.JWTSecret, cacheMW, limiterMW)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
