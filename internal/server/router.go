// Package server assembles the gin engine: middleware plus route
// registration for the API handlers.
package server

import (
	"github.com/gin-gonic/gin"

	"github.com/visitly-dev/visitly/internal/api"
)

// New builds the HTTP router for the daemon.
func New(h *api.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORS())

	r.POST("/ping", h.Ping)
	r.GET("/stats/summary", h.Summary)
	r.GET("/pings/grouped", h.Grouped)
	r.GET("/pings/unique-activity", h.UniqueActivity)
	r.GET("/healthz", h.Health)

	return r
}

// CORS allows any origin: the stats endpoints are read-only and carry no
// caller-identifying data.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
