package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Start(ctx context.Context)
	Stop()
}

// JobStatus is what the health endpoint reports per background job.
type JobStatus struct {
	Name      string `json:"name"`
	Spec      string `json:"spec"`
	Running   bool   `json:"running"`
	Runs      int64  `json:"runs"`
	LastRunAt int64  `json:"last_run_at,omitempty"`
	LastError string `json:"last_error,omitempty"`
	NextRunAt int64  `json:"next_run_at,omitempty"`
}

type entry struct {
	job     Job
	spec    string
	id      cron.EntryID
	running atomic.Bool

	mu      sync.Mutex
	runs    int64
	lastRun time.Time
	lastErr string
}

type CronScheduler struct {
	cron *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	entries map[string]*entry
}

// NewCronScheduler accepts five-field specs and descriptors such as
// "@every 1m" or "@daily".
func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &CronScheduler{
		cron:    cron.New(cron.WithParser(parser)),
		ctx:     context.Background(),
		entries: make(map[string]*entry),
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	logger := logutil.GetLogger(context.Background()).With(zap.String("job", name), zap.String("spec", spec))
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[name]; ok {
		return fmt.Errorf("job %s already scheduled", name)
	}
	e := &entry{job: job, spec: spec}
	id, err := c.cron.AddFunc(spec, func() { c.run(e) })
	if err != nil {
		logger.Error("schedule job failed", zap.Error(err))
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	e.id = id
	c.entries[name] = e
	logger.Info("job scheduled")
	return nil
}

// Start runs jobs with ctx until Stop. Jobs see ctx cancellation but the
// cron loop itself only ends on Stop.
func (c *CronScheduler) Start(ctx context.Context) {
	if ctx != nil {
		c.mu.Lock()
		c.ctx = ctx
		c.mu.Unlock()
	}
	c.cron.Start()
}

// Stop waits for running jobs to return.
func (c *CronScheduler) Stop() {
	<-c.cron.Stop().Done()
}

func (c *CronScheduler) Status() []JobStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]JobStatus, 0, len(c.entries))
	for name, e := range c.entries {
		st := JobStatus{Name: name, Spec: e.spec, Running: e.running.Load()}
		if next := c.cron.Entry(e.id).Next; !next.IsZero() {
			st.NextRunAt = next.UnixMilli()
		}
		e.mu.Lock()
		st.Runs = e.runs
		st.LastError = e.lastErr
		if !e.lastRun.IsZero() {
			st.LastRunAt = e.lastRun.UnixMilli()
		}
		e.mu.Unlock()
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// run executes one tick of e. A tick that lands while the previous one is
// still going is dropped.
func (c *CronScheduler) run(e *entry) {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()
	logger := logutil.GetLogger(ctx).With(zap.String("job", e.job.Name()), zap.String("spec", e.spec))
	if !e.running.CompareAndSwap(false, true) {
		logger.Info("job skipped: still running")
		return
	}
	defer e.running.Store(false)

	start := time.Now()
	err := c.invoke(ctx, e.job)
	elapsed := time.Since(start)

	e.mu.Lock()
	e.runs++
	e.lastRun = start
	e.lastErr = ""
	if err != nil {
		e.lastErr = err.Error()
	}
	e.mu.Unlock()

	if err != nil {
		logger.Error("job failed", zap.Error(err), zap.Duration("duration", elapsed))
		return
	}
	logger.Debug("job finished", zap.Duration("duration", elapsed))
}

func (c *CronScheduler) invoke(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name(), r)
		}
	}()
	return job.Run(ctx)
}
