package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/certifypro-backend/internal/response"
	"github.com/stemsi/certifypro-backend/internal/service"
)

// Pinger checks that a backing store is reachable.
type Pinger func(ctx context.Context) error

// SystemHandler reports liveness and the state of backing stores.
type SystemHandler struct {
	sessionService *service.ExamSessionService
	pingers        map[string]Pinger
	storageDriver  string
	startTime      time.Time
	log            zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler. pingers maps a store name
// (e.g. "postgres", "redis") to its health check.
func NewSystemHandler(sessionService *service.ExamSessionService, storageDriver string, pingers map[string]Pinger, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		sessionService: sessionService,
		pingers:        pingers,
		storageDriver:  storageDriver,
		startTime:      time.Now(),
		log:            log.With().Str("component", "system_handler").Logger(),
	}
}

type healthStatus struct {
	Status       string            `json:"status"`
	Uptime       string            `json:"uptime"`
	Storage      string            `json:"storage"`
	LiveSessions int               `json:"live_sessions"`
	Goroutines   int               `json:"goroutines"`
	GoVersion    string            `json:"go_version"`
	Checks       map[string]string `json:"checks"`
}

// Health godoc
// GET /health
// Returns 503 when any backing store fails its ping.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := healthStatus{
		Status:       "ok",
		Uptime:       formatDuration(time.Since(h.startTime)),
		Storage:      h.storageDriver,
		LiveSessions: h.sessionService.Count(),
		Goroutines:   runtime.NumGoroutine(),
		GoVersion:    runtime.Version(),
		Checks:       make(map[string]string, len(h.pingers)),
	}

	code := http.StatusOK
	for name, ping := range h.pingers {
		if err := ping(ctx); err != nil {
			h.log.Warn().Err(err).Str("store", name).Msg("Health check failed")
			status.Checks[name] = "unavailable"
			status.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		status.Checks[name] = "ok"
	}

	response.Success(c, code, status)
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
