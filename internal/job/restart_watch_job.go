package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type RestartBudget interface {
	Check() bool
}

// RestartWatchJob raises the restart request once the uptime budget is
// spent. Posters and the server watch the request, not this job.
type RestartWatchJob struct {
	budget   RestartBudget
	reported bool
}

func NewRestartWatchJob(budget RestartBudget) *RestartWatchJob {
	return &RestartWatchJob{budget: budget}
}

func (j *RestartWatchJob) Name() string {
	return "restart_watch"
}

func (j *RestartWatchJob) Run(ctx context.Context) error {
	if j.budget == nil || !j.budget.Check() || j.reported {
		return nil
	}
	j.reported = true
	logutil.GetLogger(ctx).Info("uptime budget spent, restart requested", zap.String("job", j.Name()))
	return nil
}
