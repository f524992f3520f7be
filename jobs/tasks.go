package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/salesdesk/salesdesk/internal/dashboard"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup pre-populates the dashboard cache.
	TaskDashboardWarmup = "dashboard:warmup"
)

// DashboardWarmupPayload carries scheduling metadata for the warmup job.
type DashboardWarmupPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewDashboardWarmupTask constructs an Asynq task for the dashboard warmup.
func NewDashboardWarmupTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(DashboardWarmupPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, body, asynq.Queue(QueueDefault)), nil
}

// DashboardWarmupJob recomputes the dashboard summary so the first request
// after an invalidation is served from cache.
type DashboardWarmupJob struct {
	Dashboard *dashboard.Service
	Logger    *slog.Logger
	clock     func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(dashboardSvc *dashboard.Service, logger *slog.Logger) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Dashboard: dashboardSvc,
		Logger:    logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger()
	logger.Info("starting dashboard warmup")

	warmCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := j.now()
	if _, err := j.Dashboard.Summary(warmCtx); err != nil {
		logger.Error("warmup failed", slog.Any("error", err))
		return err
	}

	logger.Info("completed dashboard warmup", slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
