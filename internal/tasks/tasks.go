// Package tasks runs the service's background jobs on asynq.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/usecase"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeOrphanSweep = "maintenance:orphan_sweep"

	queueMaintenance = "maintenance"
	sweepTimeout     = 15 * time.Minute
)

type OrphanSweepPayload struct {
	DryRun bool `json:"dry_run"`
}

// Sweeper is the part of the orphan maintenance usecase the worker drives.
type Sweeper interface {
	Sweep(ctx context.Context, dryRun bool) (domain.SweepReport, error)
}

func NewOrphanSweepTask(dryRun bool) (*asynq.Task, error) {
	payload, err := json.Marshal(OrphanSweepPayload{DryRun: dryRun})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOrphanSweep, payload,
		asynq.Queue(queueMaintenance),
		asynq.MaxRetry(3),
		asynq.Timeout(sweepTimeout),
	), nil
}

// RedisOpt builds the asynq connection from the service's Redis settings.
func RedisOpt(addr, password string, db int) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: addr, Password: password, DB: db}
}

type TaskProcessor struct {
	sweeper Sweeper
	logger  *logger.Logger
}

func NewTaskProcessor(sweeper Sweeper, log *logger.Logger) *TaskProcessor {
	return &TaskProcessor{sweeper: sweeper, logger: log.Named("TaskProcessor")}
}

func (p *TaskProcessor) HandleOrphanSweepTask(ctx context.Context, t *asynq.Task) error {
	var payload OrphanSweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal orphan sweep payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	report, err := p.sweeper.Sweep(ctx, payload.DryRun)
	if errors.Is(err, usecase.ErrJournalDisabled) {
		p.logger.Warn("Orphan sweep skipped: upload journal is not configured")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("orphan sweep: %w", err)
	}

	p.logger.Info("Orphan sweep finished",
		zap.Bool("dry_run", payload.DryRun),
		zap.Int("scanned", report.Scanned),
		zap.Int("reconciled", report.Reconciled),
		zap.Int("purged", report.Purged),
		zap.Int("failed", report.Failed),
	)
	return nil
}

// Mux routes every task type to its handler.
func (p *TaskProcessor) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOrphanSweep, p.HandleOrphanSweepTask)
	return mux
}

// NewServer builds the worker. Start it with Start(processor.Mux()).
func NewServer(opt asynq.RedisClientOpt, log *logger.Logger) *asynq.Server {
	log = log.Named("Asynq")
	return asynq.NewServer(opt, asynq.Config{
		Concurrency: 2,
		Queues: map[string]int{
			queueMaintenance: 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error("Task failed", zap.String("type", task.Type()), zap.ByteString("payload", task.Payload()), zap.Error(err))
		}),
		Logger: zapAsynqLogger{log.Sugar()},
	})
}

// NewScheduler enqueues an orphan sweep on cronspec. An empty cronspec
// returns nil.
func NewScheduler(opt asynq.RedisClientOpt, cronspec string, log *logger.Logger) (*asynq.Scheduler, error) {
	if cronspec == "" {
		return nil, nil
	}
	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Logger: zapAsynqLogger{log.Named("AsynqScheduler").Sugar()},
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				log.Warn("Failed to enqueue scheduled task", zap.Error(err))
			}
		},
	})
	task, err := NewOrphanSweepTask(false)
	if err != nil {
		return nil, err
	}
	entryID, err := scheduler.Register(cronspec, task)
	if err != nil {
		return nil, fmt.Errorf("register orphan sweep %q: %w", cronspec, err)
	}
	log.Info("Orphan sweep scheduled", zap.String("cron", cronspec), zap.String("entry_id", entryID))
	return scheduler, nil
}

// zapAsynqLogger adapts zap to asynq.Logger.
type zapAsynqLogger struct {
	s *zap.SugaredLogger
}

func (l zapAsynqLogger) Debug(args ...interface{}) { l.s.Debug(args...) }
func (l zapAsynqLogger) Info(args ...interface{})  { l.s.Info(args...) }
func (l zapAsynqLogger) Warn(args ...interface{})  { l.s.Warn(args...) }
func (l zapAsynqLogger) Error(args ...interface{}) { l.s.Error(args...) }
func (l zapAsynqLogger) Fatal(args ...interface{}) { l.s.Fatal(args...) }
