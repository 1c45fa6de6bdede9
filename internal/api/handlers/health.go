package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type SessionCounter interface {
	Len() int
}

// HealthHandler reports liveness. The database is optional; when it is not
// configured it is reported as disabled rather than down.
type HealthHandler struct {
	db       Pinger
	sessions SessionCounter
}

func NewHealthHandler(db Pinger, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{db: db, sessions: sessions}
}

func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok", "database": "disabled"}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = "down"
		} else {
			body["database"] = "up"
		}
	}
	if h.sessions != nil {
		body["wizard_sessions"] = h.sessions.Len()
	}

	c.JSON(status, body)
}
