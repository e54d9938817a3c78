package main

import (
	"context"
	"errors"
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

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/guard"
	loggingmw "github.com/Skotchmaster/storefront/internal/middleware/logging"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/storage"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.APIURL, "API_URL")

	logger := logging.New(cfg.ServiceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := storage.Open(ctx, cfg.StorageDSN)
	cancel()
	if err != nil {
		log.Fatalf("storage open: %v", err)
	}
	kv := storage.New(db, cfg.StorageScope)

	var pub events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		pub = events.NewProducer(cfg.KafkaBrokers)
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers)
	}
	emitter := events.NewEmitter(pub, logger)
	go emitter.Run()

	var mirror *search.Mirror
	if cfg.ESURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		es, err := search.NewClient(ctx, search.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
		}, logger)
		cancel()
		if err != nil {
			logger.Warn("search_disabled", "error", err)
		} else {
			mirror = search.NewMirror(es, cfg.ESIndex)
		}
	}

	client := apiclient.NewClient(cfg.APIURL, cfg.APITimeout)

	cartStore := cart.NewStore(kv)
	cartStore.Load(logging.IntoContext(context.Background(), logger))
	cartStore.Subscribe(events.CartListener(emitter, cfg.StorageScope))

	sessions := session.NewStore(kv)
	sessions.Subscribe(func(ch session.Change) {
		if ch.Session == nil {
			logger.Info("session_destroyed")
			return
		}
		logger.Info("session_saved", "user_id", ch.Session.ID, "role", ch.Session.Role)
	})

	query := catalog.NewSearch(cfg.SearchDebounce, func(q string) {
		logger.Debug("search_query_committed", "query", q)
	})
	defer query.Stop()

	qr := checkout.StaticQR(cfg.QRISImageURL)
	if cfg.QRISSource == "random" {
		qr = checkout.RandomQR(client, cfg.QRISImageURL)
	}
	flow := checkout.NewFlow(cartStore, sessions, client, qr)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Secure())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	err = httpserver.Register(e, &httpserver.Deps{
		Storefront: &httpserver.StorefrontHTTP{
			API:      client,
			Cart:     cartStore,
			Sessions: sessions,
			Checkout: flow,
			Query:    query,
			Mirror:   mirror,
			Events:   emitter,
		},
		Guard: guard.New(sessions),
	})
	if err != nil {
		log.Fatalf("routes: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("storefront_listening", "addr", srv.Addr, "api_url", cfg.APIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	if err := emitter.Close(shutdownCtx); err != nil {
		logger.Warn("events_close_failed", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("storefront_stopped")
}
