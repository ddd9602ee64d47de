package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// Health godoc
// @Summary      Health check
// @Description  Returns the health status of the service
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// GetStatus godoc
// @Summary      Upstream API status
// @Description  Returns the last known status of every monitored upstream API
// @Tags         status
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/status [get]
func (h *Handler) GetStatus(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-status")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{"apis": h.monitor.Statuses()})
}

// TriggerStatusCheck godoc
// @Summary      Re-check upstream APIs
// @Description  Probes every enabled upstream API now and returns the refreshed table
// @Tags         status
// @Produce      json
// @Param        X-API-Key  header  string  false  "Admin key when ADMIN_API_KEY is set"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/status/check [post]
func (h *Handler) TriggerStatusCheck(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trigger-status-check")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{"apis": h.monitor.CheckAll(ctx)})
}

// CheckEndpoint godoc
// @Summary      Probe an arbitrary endpoint
// @Description  Issues a GET against url and reports online/offline with latency
// @Tags         status
// @Produce      json
// @Param        url        query   string  true   "http(s) URL to probe"
// @Param        X-API-Key  header  string  false  "Admin key when ADMIN_API_KEY is set"
// @Success      200  {object}  domain.HealthCheckResult
// @Failure      400  {object}  map[string]string
// @Router       /api/health/check [get]
func (h *Handler) CheckEndpoint(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.check-endpoint")
	defer span.End()

	raw := c.Query("url")
	u, err := url.Parse(raw)
	if raw == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must be an absolute http or https URL"})
		return
	}
	span.SetAttributes(attribute.String("url", u.String()))

	c.JSON(http.StatusOK, h.checker.CheckEndpoint(ctx, u.String()))
}
