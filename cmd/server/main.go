package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Bourhlef-Y/fivemarket/internal/config"
	"github.com/Bourhlef-Y/fivemarket/internal/events"
	"github.com/Bourhlef-Y/fivemarket/internal/httpserver"
	"github.com/Bourhlef-Y/fivemarket/internal/logging"
	loggingmw "github.com/Bourhlef-Y/fivemarket/internal/middleware/logging"
	"github.com/Bourhlef-Y/fivemarket/internal/repo"
	"github.com/Bourhlef-Y/fivemarket/internal/search"
	"github.com/Bourhlef-Y/fivemarket/internal/service"
	"github.com/Bourhlef-Y/fivemarket/internal/validate"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := repo.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	r := &repo.GormRepo{DB: db}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
	}

	resourceSvc := &service.ResourceService{
		Repo: r,
		Limits: validate.Limits{
			PriceMin:     cfg.PriceMin,
			PriceMax:     cfg.PriceMax,
			MaxImages:    cfg.MaxImages,
			MaxImageSize: cfg.MaxImageSizeBytes,
			MaxFileSize:  cfg.MaxFileSizeBytes,
		},
	}
	orderSvc := &service.OrderService{Repo: r}
	if producer != nil {
		resourceSvc.Producer = producer
		orderSvc.Producer = producer
	}
	var searchClient *search.Client
	if cfg.ESURL != "" {
		searchClient, err = search.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		resourceSvc.Search = searchClient
	}

	cartSvc := &service.CartService{Repo: r}
	listingSvc := &service.ListingService{Repo: r}
	sellerSvc := &service.SellerService{Repo: r, PlatformCommission: cfg.PlatformCommission}
	authSvc := &service.AuthService{
		Repo:          r,
		JWTSecret:     cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
	}

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:     &httpserver.AuthHTTP{Svc: authSvc},
		ResourceHandler: &httpserver.ResourceHTTP{Svc: resourceSvc},
		ListingHandler:  &httpserver.ListingHTTP{Svc: listingSvc, Search: searchClient},
		CartHandler:     &httpserver.CartHTTP{Svc: cartSvc},
		OrderHandler:    &httpserver.OrderHTTP{Svc: orderSvc, PaymentSynchronous: os.Getenv("PAYMENT_SYNCHRONOUS") == "true"},
		SellerHandler:   &httpserver.SellerHTTP{Svc: sellerSvc},
		JWTSecret:       cfg.JWTAccessSecret,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("fivemarket listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if producer != nil {
		_ = producer.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("fivemarket stopped")
}
