package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/pulsedash/pulse-backend-go/pkg/utils"
)

// Health reports service, database and host status for the dashboard's
// status widget.
func (h *Handlers) Health(c *gin.Context) {
	dbStatus := "healthy"
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		dbStatus = "unhealthy"
	}

	sampleCount, err := h.repos.Metrics.CountSamples(c.Request.Context())
	if err != nil {
		sampleCount = -1
	}

	host := gin.H{}
	if vm, err := mem.VirtualMemory(); err == nil {
		host["memory_used_percent"] = vm.UsedPercent
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		host["cpu_percent"] = percents[0]
	}

	utils.SendSuccess(c, gin.H{
		"status":            "ok",
		"database":          dbStatus,
		"stored_samples":    sampleCount,
		"websocket_clients": h.hub.GetClientCount(),
		"uptime_seconds":    int64(time.Since(h.started).Seconds()),
		"host":              host,
	})
}
