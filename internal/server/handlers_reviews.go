package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const msgReviewsUnconfigured = "El servicio de reseñas no está configurado"

// handleReviews returns the configured business's reviews.
func (s *Server) handleReviews(c *gin.Context) {
	if s.provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": msgReviewsUnconfigured,
			"data":    []any{},
		})

		return
	}

	list, err := s.provider.Reviews(c.Request.Context())
	if err != nil {
		s.logger.Error("fetching reviews failed",
			slog.String("error", err.Error()),
			slog.String("request_id", c.GetString("request_id")),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Error al obtener las reseñas",
			"data":    []any{},
		})

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    list,
		"total":   len(list),
	})
}

// handleReviewStats returns aggregate rating data.
func (s *Server) handleReviewStats(c *gin.Context) {
	if s.provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": msgReviewsUnconfigured,
			"data":    nil,
		})

		return
	}

	stats, err := s.provider.Stats(c.Request.Context())
	if err != nil {
		s.logger.Error("fetching review stats failed",
			slog.String("error", err.Error()),
			slog.String("request_id", c.GetString("request_id")),
		)
		// The upstream message is safe to expose: the providers never
		// put credentials in it.
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": err.Error(),
			"data":    nil,
		})

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// handlePlaceLookup resolves a free-text business query to a place
// identifier. Used once during operator setup, not by the frontend.
func (s *Server) handlePlaceLookup(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Falta el parámetro query",
		})

		return
	}

	if s.finder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"message": msgReviewsUnconfigured,
		})

		return
	}

	place, err := s.finder.FindPlace(c.Request.Context(), query)
	if err != nil {
		s.logger.Error("place lookup failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
			slog.String("request_id", c.GetString("request_id")),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Error interno del servidor",
		})

		return
	}

	if place == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "No se encontró ningún negocio para esa búsqueda",
		})

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    place,
	})
}
