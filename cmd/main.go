package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mokarrom17/joblagbe-server/infrastructure"
	"github.com/mokarrom17/joblagbe-server/interfaces"
)

func main() {
	// Load .env
	_ = godotenv.Load()
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect MongoDB (process-wide singleton)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := infrastructure.NewMongoStore(ctx,
		getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		getEnv("DB_NAME", "JObLagvbe"),
	)
	cancel()
	if err != nil {
		logrus.WithError(err).Fatal("mongodb connection failed")
	}
	logrus.Info("connected to mongodb")

	// Init Firebase token verifier
	verifier, err := infrastructure.NewFirebaseVerifier(context.Background())
	if err != nil {
		logrus.WithError(err).Fatal("firebase init failed")
	}

	// Optional event bus; the in-process consumer keeps an audit log of
	// application activity until a dedicated notification worker exists.
	var events interfaces.EventPublisher
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		bus, err := infrastructure.NewEventBus(url)
		if err != nil {
			logrus.WithError(err).Fatal("rabbitmq connection failed")
		}
		defer bus.Close()

		err = bus.Consume(func(ev infrastructure.ApplicationEvent) {
			logrus.WithFields(logrus.Fields{
				"type":           ev.Type,
				"application_id": ev.ApplicationID,
				"status":         ev.Status,
			}).Info("application event")
		})
		if err != nil {
			logrus.WithError(err).Fatal("rabbitmq consumer failed")
		}
		events = bus
		logrus.Info("connected to rabbitmq")
	}

	// Setup gin router
	router := gin.New()
	router.Use(gin.Recovery(), interfaces.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	interfaces.NewHTTPHandler(router, verifier, store.Jobs, store.Applications, store.Blogs, events)

	srv := &http.Server{
		Addr:    ":" + getEnv("PORT", "3000"),
		Handler: router,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logrus.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("server shutdown failed")
		}
		if err := store.Close(shutdownCtx); err != nil {
			logrus.WithError(err).Error("mongodb disconnect failed")
		}
	}()

	logrus.WithField("addr", srv.Addr).Info("server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Fatal("server stopped")
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// corsOrigins reads the allow-list from CORS_ORIGINS (comma separated),
// defaulting to the production front-end origins.
func corsOrigins() []string {
	raw := os.Getenv("CORS_ORIGINS")
	if raw == "" {
		return []string{
			"http://localhost:5173",
			"https://joblagbe-b552e.web.app",
			"https://joblagbe-b552e.firebaseapp.com",
		}
	}

	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
