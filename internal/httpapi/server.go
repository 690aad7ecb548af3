// Package httpapi exposes the operator-facing HTTP surface: liveness, a
// status snapshot of the running bot, and Prometheus metrics. It serves no
// chat traffic; the event pipeline is fed by the transport collaborator.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Status is the point-in-time snapshot served at /status.
type Status struct {
	BotName       string `json:"bot_name"`
	Public        bool   `json:"public"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	CachedUsers   int    `json:"cached_users"`
	CachedGroups  int    `json:"cached_groups"`
	CachedRosters int    `json:"cached_rosters"`
	RecallEntries int    `json:"recall_entries"`
	Persistent    bool   `json:"persistent"`
}

// StatusFunc produces the current snapshot. It is called per request and
// must be safe for concurrent use.
type StatusFunc func() Status

// Options configures the admin server.
type Options struct {
	Addr         string
	GinMode      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewServer builds the admin HTTP server. Middleware order: RequestID first
// so logs and panic responses carry the correlation ID, then the access
// logger, then recovery.
func NewServer(opts Options, status StatusFunc, log zerolog.Logger) *http.Server {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	log = log.With().Str("component", "admin").Logger()

	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger(log))
	r.Use(Recovery(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, status())
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &http.Server{
		Addr:         opts.Addr,
		Handler:      r,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
}
