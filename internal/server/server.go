// Package server exposes the HTTP surface: form intake, the review
// proxy, and health/service descriptors. Handlers translate transport
// concerns into calls on the intake and review packages; wire shapes
// and messages match what the frontend already consumes.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mmigration/backend/internal/intake"
	"github.com/mmigration/backend/internal/reviews"
)

// Version is reported by the root descriptor.
const Version = "1.0.0"

// PlaceFinder resolves a free-text business query to a place. The
// classic Places client implements it; other providers do not, and the
// lookup endpoint reports unconfigured for them.
type PlaceFinder interface {
	FindPlace(ctx context.Context, query string) (*reviews.Place, error)
}

// Server holds handler dependencies. provider and finder may be nil
// when the review service is not configured; sharePointConfigured only
// affects the health report, the intake service degrades on its own.
type Server struct {
	intake               *intake.Service
	provider             reviews.Provider
	finder               PlaceFinder
	sharePointConfigured bool
	logger               *slog.Logger
}

// Options collects the dependencies for New.
type Options struct {
	Intake               *intake.Service
	Provider             reviews.Provider
	Finder               PlaceFinder
	SharePointConfigured bool
	CORSOrigin           string
	Logger               *slog.Logger
}

// New builds the gin engine with all routes and middleware attached.
func New(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		intake:               opts.Intake,
		provider:             opts.Provider,
		finder:               opts.Finder,
		sharePointConfigured: opts.SharePointConfigured,
		logger:               logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(AccessLog(logger))
	engine.Use(CORS(opts.CORSOrigin))

	engine.GET("/", s.handleRoot)
	engine.GET("/health", s.handleHealth)

	api := engine.Group("/api")
	{
		api.GET("/forms/health", s.handleHealth)
		api.POST("/forms", s.handleSubmit)
		api.POST("/forms/:id", s.handleSubmit)
		api.GET("/reviews", s.handleReviews)
		api.GET("/reviews/stats", s.handleReviewStats)
		api.GET("/reviews/place-id", s.handlePlaceLookup)
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint no encontrado"})
	})

	return engine
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "mmigration-backend",
		"version": Version,
		"endpoints": gin.H{
			"health":  "/health",
			"forms":   "/api/forms",
			"reviews": "/api/reviews",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	sharepoint := "not_configured"
	if s.sharePointConfigured {
		sharepoint = "configured"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"sharepoint": sharepoint,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
