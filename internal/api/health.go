// Package api holds the HTTP handlers of the order service.
package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/api/respond"
)

// HealthHandler handles health check endpoints
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// global health flag (1 = healthy, 0 = unhealthy)
var healthyFlag atomic.Int32

var (
	serviceIsHealthy  = func() bool { return healthyFlag.Load() == 1 }
	serviceComponents = func() map[string]bool { return nil }
)

// BindServiceHealth lets run.go inject the aggregated health function.
func BindServiceHealth(f func() bool) { serviceIsHealthy = f }

// BindComponentHealth lets run.go expose per-dependency state.
func BindComponentHealth(f func() map[string]bool) { serviceComponents = f }

// CheckHealth handles GET /api/health
// Always returns 200; body reports healthy/unhealthy. 500 indicates handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if serviceIsHealthy() {
		status = "healthy"
	}
	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if c := serviceComponents(); len(c) > 0 {
		response["components"] = c
	}
	respond.WriteJSON(w, http.StatusOK, response)
}
