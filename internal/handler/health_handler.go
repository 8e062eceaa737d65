package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/bookbot/internal/pkg/response"
	"github.com/xxxsen/bookbot/internal/schedule"
)

type UptimeSource interface {
	Uptime() time.Duration
	Limit() time.Duration
	Triggered() bool
}

type JobLister interface {
	Status() []schedule.JobStatus
}

// HealthHandler answers unauthenticated liveness probes. Every source is
// optional.
type HealthHandler struct {
	uptime UptimeSource
	jobs   JobLister
	seeds  func() int
}

func NewHealthHandler(uptime UptimeSource, jobs JobLister, seeds func() int) *HealthHandler {
	return &HealthHandler{uptime: uptime, jobs: jobs, seeds: seeds}
}

func (h *HealthHandler) Get(c *gin.Context) {
	out := gin.H{"status": "ok"}
	if h.uptime != nil {
		out["uptime_sec"] = int64(h.uptime.Uptime().Seconds())
		out["restart_after_sec"] = int64(h.uptime.Limit().Seconds())
		if h.uptime.Triggered() {
			out["status"] = "restarting"
		}
	}
	if h.jobs != nil {
		out["jobs"] = h.jobs.Status()
	}
	if h.seeds != nil {
		out["seeds"] = h.seeds()
	}
	response.Success(c, out)
}
