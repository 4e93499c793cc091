package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/cpu"
)

// HealthHandler reports the process and connection state.
func (h *Handlers) HealthHandler(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	cpuPercent := 0.0
	if percent, err := cpu.Percent(0, false); err == nil && len(percent) > 0 {
		cpuPercent = percent[0]
	}

	st := h.status()
	code := http.StatusOK
	if st.State != "established" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"state":           st.State,
		"login":           st.Login,
		"joined_channels": st.Joined,
		"latency_ms":      st.Latency.Milliseconds(),
		"uptime":          time.Since(h.started).Truncate(time.Second).String(),
		"cpu_percent":     cpuPercent,
		"mem_sys_mb":      m.Sys / 1024 / 1024,
	})
}
