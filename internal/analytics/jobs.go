package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-sellerstats/internal/lock"
	"github.com/noah-isme/backend-sellerstats/internal/obs"
	"github.com/noah-isme/backend-sellerstats/internal/repo"
	"github.com/noah-isme/backend-sellerstats/internal/sellerstats"
)

// TaskSellerReport is the asynq task type for queued seller reports.
const TaskSellerReport = "analytics:seller_report"

type reportPayload struct {
	RunID         string `json:"run_id"`
	BonusPolicy   string `json:"bonus_policy"`
	RevenuePolicy string `json:"revenue_policy"`
}

// TaskClient is satisfied by *asynq.Client.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Jobs enqueues report runs on asynq.
type Jobs struct {
	Client   TaskClient
	Queue    string
	MaxRetry int
}

// NewReportTask builds the task for a pending run.
func NewReportTask(run repo.Run) (*asynq.Task, error) {
	payload, err := json.Marshal(reportPayload{
		RunID:         run.ID.String(),
		BonusPolicy:   run.BonusPolicy,
		RevenuePolicy: run.RevenuePolicy,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSellerReport, payload), nil
}

// EnqueueReport implements ReportEnqueuer. The run id doubles as the task id
// so a run is never queued twice.
func (j Jobs) EnqueueReport(ctx context.Context, run repo.Run) error {
	if j.Client == nil {
		return errors.New("analytics: task client not configured")
	}
	task, err := NewReportTask(run)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.TaskID(run.ID.String())}
	if j.Queue != "" {
		opts = append(opts, asynq.Queue(j.Queue))
	}
	if j.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(j.MaxRetry))
	}
	if _, err := j.Client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return err
	}
	return nil
}

// ReportProcessor is the subset of Service used by the worker.
type ReportProcessor interface {
	Process(ctx context.Context, runID uuid.UUID, bonusPolicy, revenuePolicy string) error
	MarkFailed(ctx context.Context, runID uuid.UUID, cause error) error
}

// RunLocker guards a run against concurrent workers. lock.Locker satisfies it.
type RunLocker interface {
	TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// JobHandler processes seller report tasks.
type JobHandler struct {
	Svc     ReportProcessor
	Locks   RunLocker
	LockTTL time.Duration
	Logger  zerolog.Logger
}

// ProcessTask implements asynq.Handler. Data errors are final; anything else
// is retried by asynq until the retry budget runs out.
func (h JobHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if h.Svc == nil {
		return errors.New("analytics: report processor not configured")
	}
	var payload reportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		obs.RecordReportJob("failed")
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	runID, err := uuid.Parse(payload.RunID)
	if err != nil {
		obs.RecordReportJob("failed")
		return fmt.Errorf("invalid run id %q: %w", payload.RunID, asynq.SkipRetry)
	}
	logger := h.Logger.With().Str("run_id", runID.String()).Logger()

	process := func(ctx context.Context) error {
		return h.Svc.Process(ctx, runID, payload.BonusPolicy, payload.RevenuePolicy)
	}
	if h.Locks != nil {
		ttl := h.LockTTL
		if ttl <= 0 {
			ttl = 2 * time.Minute
		}
		err = h.Locks.TryWithLock(ctx, runID.String(), ttl, process)
	} else {
		err = process(ctx)
	}
	switch {
	case errors.Is(err, lock.ErrHeld):
		obs.RecordReportJob("busy")
		logger.Info().Msg("seller report already in progress")
		return err
	case err == nil:
		obs.RecordReportJob("succeeded")
		logger.Info().Msg("seller report completed")
		return nil
	case isDataError(err):
		obs.RecordReportJob("failed")
		logger.Warn().Err(err).Msg("seller report rejected")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	if retried >= maxRetry {
		obs.RecordReportJob("failed")
		if markErr := h.Svc.MarkFailed(ctx, runID, err); markErr != nil {
			logger.Error().Err(markErr).Msg("mark run failed")
		}
	} else {
		obs.RecordReportJob("retry")
	}
	logger.Error().Err(err).Int("retried", retried).Msg("seller report failed")
	return err
}

func isDataError(err error) bool {
	return errors.Is(err, repo.ErrNotFound) ||
		errors.Is(err, sellerstats.ErrInvalidInput) ||
		errors.Is(err, sellerstats.ErrUnknownSeller) ||
		errors.Is(err, sellerstats.ErrUnknownProduct)
}
