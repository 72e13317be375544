package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/admin-dashboard/api/internal/config"
	"github.com/admin-dashboard/api/internal/database"
	"github.com/admin-dashboard/api/internal/handler"
	"github.com/admin-dashboard/api/internal/queue"
	"github.com/admin-dashboard/api/internal/repository"
	"github.com/admin-dashboard/api/internal/router"
	"github.com/admin-dashboard/api/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass,
		Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it rate limiting and the response cache
	// turn themselves off.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	keys := repository.NewAPIKeyRepo(db)
	transactions := repository.NewTransactionRepo(db)
	revenue := repository.NewRevenueRepo(db)
	invoices := repository.NewInvoiceRepo(db)
	subscriptions := repository.NewSubscriptionRepo(db)
	cards := repository.NewPaymentMethodRepo(db)
	projects := repository.NewProjectRepo(db)

	mailer := service.NewEmailPublisher()

	h := router.Handlers{
		Auth:          handler.NewAuthHandler(cfg, users, sessions, mailer),
		Users:         handler.NewUserHandler(cfg, users, sessions),
		APIKeys:       handler.NewAPIKeyHandler(cfg, keys),
		Transactions:  handler.NewTransactionHandler(transactions),
		Revenue:       handler.NewRevenueHandler(revenue),
		Billing:       handler.NewBillingHandler(invoices, subscriptions, cards),
		Subscriptions: handler.NewSubscriptionHandler(subscriptions),
		Projects:      handler.NewProjectHandler(projects),
		Dashboard:     handler.NewDashboardHandler(users, revenue, sessions),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.CORSOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, "x-api-key"},
	}))
	// Errors that escape handlers (404s, panics caught by Recover) still
	// come back in the envelope the frontend parses.
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := "internal error"
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			}
		}
		if !c.Response().Committed {
			_ = c.JSON(code, echo.Map{"success": false, "message": msg})
		}
	}

	router.Register(e, cfg, db, rdb, h, users, keys)

	// The email worker drains the queue independently of the HTTP server.
	go func() {
		if err := queue.StartEmailConsumer(); err != nil {
			log.Printf("email consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
