package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/bookbot/internal/pkg/timeutil"
)

type PostPruner interface {
	DeleteBefore(ctx context.Context, before int64) (int64, error)
}

type PostHistoryCleanupJob struct {
	posts    PostPruner
	keepDays int
	now      func() time.Time
}

func NewPostHistoryCleanupJob(posts PostPruner, keepDays int) *PostHistoryCleanupJob {
	return &PostHistoryCleanupJob{posts: posts, keepDays: keepDays, now: time.Now}
}

func (j *PostHistoryCleanupJob) Name() string {
	return "post_history_cleanup"
}

func (j *PostHistoryCleanupJob) Run(ctx context.Context) error {
	if j.posts == nil {
		return nil
	}
	keepDays := j.keepDays
	if keepDays <= 0 {
		keepDays = 30
	}
	cutoff := j.now().Add(-time.Duration(keepDays) * 24 * time.Hour).UnixMilli()
	deleted, err := j.posts.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logutil.GetLogger(ctx).Info("post history pruned",
			zap.Int64("deleted", deleted),
			zap.Time("before", timeutil.FromUnix(cutoff)))
	}
	return nil
}
