package tracking

import (
	"context"
	"time"

	"clipfuel-platform/pkg/taskname"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

type Task struct {
	service *Service
}

func NewTask(service *Service) *Task {
	return &Task{service: service}
}

// HandleSettleRun is the asynq entry point for one settlement pass. Item
// errors stay inside the summary; an error returned here means the pass
// itself could not run and asynq should retry it.
func (t *Task) HandleSettleRun(ctx context.Context, _ *asynq.Task) error {
	ctx, span := otel.Tracer("tracking").Start(ctx, "tracking.settle.run")
	defer span.End()

	passID := "pass-" + uuid.NewString()
	zapLog := zap.L().With(zap.String("pass_id", passID))
	zapLog.Info("▶️ start settlement pass")

	summary, err := t.service.RunSettlementPass(ctx)
	if err != nil {
		zapLog.Error("settlement pass failed", zap.Error(err))
		return err
	}

	zapLog.Info("🎉 settlement pass processed",
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed),
	)
	return nil
}

func (t *Task) HandlePendingRun(ctx context.Context, _ *asynq.Task) error {
	ctx, span := otel.Tracer("tracking").Start(ctx, "tracking.pending.run")
	defer span.End()

	summary, err := t.service.RunPendingPass(ctx)
	if err != nil {
		zap.L().Error("pending pass failed", zap.Error(err))
		return err
	}

	zap.L().Info("pending pass processed",
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed),
	)
	return nil
}

// RegisterHandlers binds the tracking tasks onto the worker mux.
func RegisterHandlers(mux *asynq.ServeMux, task *Task) {
	mux.HandleFunc(taskname.TrackingSettleRun, task.HandleSettleRun)
	mux.HandleFunc(taskname.TrackingPendingRun, task.HandlePendingRun)
}

// RegisterSchedules enqueues the recurring passes. Unique collapses a
// scheduled run that fires while the previous one is still queued; the
// settlement pass is safe under re-run either way.
func RegisterSchedules(scheduler *asynq.Scheduler, settings Settings) error {
	if _, err := scheduler.Register(
		settings.SettleSchedule,
		asynq.NewTask(taskname.TrackingSettleRun, nil),
		asynq.Queue("default"),
		asynq.Unique(30*time.Minute),
		asynq.MaxRetry(2),
	); err != nil {
		return err
	}

	if _, err := scheduler.Register(
		settings.PendingSchedule,
		asynq.NewTask(taskname.TrackingPendingRun, nil),
		asynq.Queue("low"),
		asynq.Unique(time.Hour),
		asynq.MaxRetry(1),
	); err != nil {
		return err
	}

	return nil
}
