package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pulsedash/pulse-backend-go/internal/database/models"
	"github.com/pulsedash/pulse-backend-go/internal/websocket"
	"github.com/pulsedash/pulse-backend-go/pkg/utils"
)

// SampleRequest is one metric observation in an ingest payload.
type SampleRequest struct {
	Name      string    `json:"name" binding:"required"`
	Category  string    `json:"category"`
	Unit      string    `json:"unit"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp" binding:"required"`
}

// IngestRequest accepts a single sample or a batch.
type IngestRequest struct {
	Sample  *SampleRequest  `json:"sample"`
	Samples []SampleRequest `json:"samples"`
}

// IngestSamples stores one or many samples and notifies websocket
// subscribers per affected metric.
func (h *Handlers) IngestSamples(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid ingest payload: "+err.Error())
		return
	}

	incoming := req.Samples
	if req.Sample != nil {
		incoming = append(incoming, *req.Sample)
	}
	if len(incoming) == 0 {
		utils.SendError(c, http.StatusBadRequest, "Payload must contain sample or samples")
		return
	}

	samples := make([]*models.MetricSample, 0, len(incoming))
	perMetric := map[string]int{}
	for _, s := range incoming {
		samples = append(samples, &models.MetricSample{
			Name:      s.Name,
			Category:  s.Category,
			Unit:      s.Unit,
			Value:     s.Value,
			Timestamp: s.Timestamp,
		})
		perMetric[s.Name]++
	}

	if err := h.repos.Metrics.InsertSamples(c.Request.Context(), samples); err != nil {
		h.logger.WithError(err).Error("Failed to store samples")
		utils.SendError(c, http.StatusInternalServerError, "Failed to store samples")
		return
	}

	for metric, count := range perMetric {
		h.hub.BroadcastToMetric(metric, websocket.NewSamplesIngestedMessage(metric, count))
	}

	utils.SendCreated(c, gin.H{"stored": len(samples)})
}

// ListMetrics returns the distinct stored metrics with sample counts.
func (h *Handlers) ListMetrics(c *gin.Context) {
	metrics, err := h.repos.Metrics.ListMetrics(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list metrics")
		utils.SendError(c, http.StatusInternalServerError, "Failed to list metrics")
		return
	}
	utils.SendSuccessWithMeta(c, metrics, gin.H{"count": len(metrics)})
}

// MetricHistory returns stored samples for one metric, filtered by
// ?since= (RFC3339) and ?limit=.
func (h *Handlers) MetricHistory(c *gin.Context) {
	name := c.Param("name")

	since := time.Time{}
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.SendError(c, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		since = parsed
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.SendError(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	samples, err := h.repos.Metrics.GetHistory(c.Request.Context(), name, since, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load history")
		utils.SendError(c, http.StatusInternalServerError, "Failed to load history")
		return
	}
	if len(samples) == 0 {
		utils.SendError(c, http.StatusNotFound, "No samples for metric "+name)
		return
	}

	utils.SendSuccessWithMeta(c, samples, gin.H{"metric": name, "count": len(samples)})
}
