package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hamas2/hamak/config"
	"github.com/hamas2/hamak/database"
	"github.com/hamas2/hamak/events"
	"github.com/hamas2/hamak/handlers"
	"github.com/hamas2/hamak/middleware"
	"github.com/hamas2/hamak/routes"
	"github.com/hamas2/hamak/service"
	"github.com/hamas2/hamak/session"
	"github.com/hamas2/hamak/storage"
	"github.com/hamas2/hamak/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	cfg.ConfigureLogging()
	logrus.Info("starting hamak server")

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open record store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logrus.WithError(err).Warn("closing record store")
		}
	}()

	uploader, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open blob storage")
	}

	hub := websocket.NewManager()
	go hub.Start(ctx)

	publishers := events.Multi{hub}
	if cfg.AMQP.URL != "" {
		amqpPub, err := events.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			logrus.WithError(err).Warn("event exchange unavailable, continuing with websocket only")
		} else {
			defer amqpPub.Close()
			publishers = append(publishers, amqpPub)
		}
	}

	limits := storage.Limits{
		MaxVideoBytes: cfg.Storage.MaxVideoBytes,
		MaxImageBytes: cfg.Storage.MaxImageBytes,
	}
	svc := service.New(store, uploader, service.Options{
		Limits:        limits,
		PublicBaseURL: cfg.PublicBaseURL,
		Events:        publishers,
	})
	issuer := session.NewIssuer(cfg.Session.Secret, cfg.Session.TTL)

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit, cfg.RateWindow)
	go sweep(ctx, limiter, cfg.RateWindow)

	router := routes.SetupRouter(routes.Deps{
		Handler: handlers.New(svc, issuer, handlers.Options{
			Limits:         limits,
			RequestTimeout: cfg.RequestTimeout,
			UploadTimeout:  cfg.UploadTimeout,
		}),
		Sessions:    issuer,
		Hub:         hub,
		RateLimiter: limiter,
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.UploadTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.Port).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("forced shutdown")
	}
	logrus.Info("server stopped")
}

// openStore retries the connection a few times; hosted databases are often
// still starting when the server boots.
func openStore(ctx context.Context, cfg config.Store) (database.Store, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		store, err := database.Open(ctx, cfg)
		if err == nil {
			return store, nil
		}
		lastErr = err
		logrus.WithError(err).WithField("attempt", attempt).Warn("record store connection failed")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return nil, errors.Wrap(lastErr, "connect record store")
}

func sweep(ctx context.Context, rl *middleware.IPRateLimiter, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}
