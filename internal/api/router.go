package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/giftloop/giftloop/internal/draw"
	"github.com/giftloop/giftloop/internal/handlers"
	"github.com/giftloop/giftloop/internal/middleware"
	"github.com/giftloop/giftloop/internal/queue"
)

// Options carries the dependencies and tunables the router needs.
type Options struct {
	DB   *gorm.DB
	Jobs queue.Queue

	// Draw cost model, forwarded to the manual draw trigger.
	Estimator   draw.EstimatorConfig
	MaxAttempts int

	// ExposeMetrics mounts the Prometheus scrape endpoint on /metrics.
	ExposeMetrics bool
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if opts.Jobs == nil {
		return nil, fmt.Errorf("job queue must be provided")
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.NoRoute(middleware.NotFoundHandler)

	r.GET("/health", handlers.Health(opts.DB))
	if opts.ExposeMetrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	exchangeHandler, err := handlers.NewExchangeHandler(opts.DB, opts.Jobs, opts.Estimator, opts.MaxAttempts)
	if err != nil {
		return nil, err
	}
	enrollmentHandler, err := handlers.NewEnrollmentHandler(opts.DB)
	if err != nil {
		return nil, err
	}
	participantHandler, err := handlers.NewParticipantHandler(opts.DB)
	if err != nil {
		return nil, err
	}

	api := r.Group("/api")
	registerExchangeRoutes(api, exchangeHandler, enrollmentHandler)
	registerParticipantRoutes(api, participantHandler)

	return r, nil
}
