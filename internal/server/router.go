// Package server exposes the Qibla bearing, daily timetables and the
// next-prayer countdown over HTTP.
package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mustafadnc15/ezan-saati-pro/internal/app"
	"github.com/mustafadnc15/ezan-saati-pro/internal/schedule"
)

// Options configures the router.
type Options struct {
	Method int
	School int
	// Lang selects display names ("en" or "tr").
	Lang string
	// TimeLayout is the Go layout used for prayer times, "15:04" by default.
	TimeLayout string
	// AllowedOrigins restricts CORS. Empty allows every origin.
	AllowedOrigins []string
	// Now is the clock, time.Now when nil.
	Now func() time.Time
	// Refresh keeps the default location's timetable current. /health
	// reports whether it is running.
	Refresh *schedule.Task
}

// NewRouter creates and configures the Gin router. state supplies the
// default location for requests that carry none.
func NewRouter(src DaySource, state *app.State, opts Options) *gin.Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TimeLayout == "" {
		opts.TimeLayout = "15:04"
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	corsConfig := cors.DefaultConfig()
	if len(opts.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = opts.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	h := NewHandler(src, state, opts)

	v1 := router.Group("/v1")
	v1.GET("/qibla", h.GetQibla)
	v1.GET("/timetable", h.GetTimetable)
	v1.GET("/next", h.GetNext)

	router.GET("/health", h.HealthCheck)

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
