package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/backend-sellerstats/internal/common"
	"github.com/noah-isme/backend-sellerstats/internal/obs"
	"github.com/noah-isme/backend-sellerstats/internal/repo"
	"github.com/noah-isme/backend-sellerstats/internal/sellerstats"
)

// DatasetSource provides the stored dataset that queued runs analyze.
type DatasetSource interface {
	LoadDataset(ctx context.Context) (*sellerstats.Dataset, error)
}

// RunRepository persists report runs.
type RunRepository interface {
	Create(ctx context.Context, run *repo.Run) error
	Complete(ctx context.Context, id uuid.UUID, datasetHash string, sellers, records int, report []sellerstats.SellerReport) error
	Fail(ctx context.Context, id uuid.UUID, reason string) error
	Get(ctx context.Context, id uuid.UUID) (repo.Run, error)
	List(ctx context.Context, limit, offset int) ([]repo.Run, error)
}

// ReportEnqueuer schedules background report runs.
type ReportEnqueuer interface {
	EnqueueReport(ctx context.Context, run repo.Run) error
}

// Service runs seller analyses with caching, persistence and instrumentation.
type Service struct {
	Runs            RunRepository
	Source          DatasetSource
	Queue           ReportEnqueuer
	R               *redis.Client
	TTL             time.Duration
	BonusPolicy     string
	RevenuePolicy   string
	CheckReferences bool
	Logger          zerolog.Logger
	Now             func() time.Time
}

// Request describes a synchronous analysis.
type Request struct {
	Data          *sellerstats.Dataset
	BonusPolicy   string
	RevenuePolicy string
	Persist       bool
}

// Result is the outcome of an analysis.
type Result struct {
	RunID       *uuid.UUID                 `json:"run_id,omitempty"`
	DatasetHash string                     `json:"dataset_hash"`
	Cached      bool                       `json:"cached"`
	Report      []sellerstats.SellerReport `json:"report"`
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// Analyze computes the seller report for the provided dataset. Identical
// datasets analyzed with the same policies are served from the cache.
func (s *Service) Analyze(ctx context.Context, req Request) (Result, error) {
	if s == nil {
		return Result{}, errors.New("analytics service not configured")
	}
	bonusName, revenueName := s.policyNames(req.BonusPolicy, req.RevenuePolicy)
	opts, err := resolvePolicies(bonusName, revenueName)
	if err != nil {
		return Result{}, err
	}
	if err := sellerstats.Validate(req.Data); err != nil {
		return Result{}, err
	}
	hash, err := datasetHash(req.Data)
	if err != nil {
		return Result{}, err
	}

	result := Result{DatasetHash: hash}
	key := cacheKey("an", "sellers", bonusName, revenueName, hash)
	if report, ok := s.getFromCache(ctx, key); ok {
		obs.RecordCache(true)
		result.Cached = true
		result.Report = report
	} else {
		obs.RecordCache(false)
		report, err := s.run(ctx, repo.SourceRequest, req.Data, opts)
		if err != nil {
			return Result{}, err
		}
		result.Report = report
		s.store(ctx, key, report)
	}

	if req.Persist {
		if s.Runs == nil {
			return Result{}, errors.New("analytics run store not configured")
		}
		finished := s.now()
		run := &repo.Run{
			Status:        repo.RunSucceeded,
			Source:        repo.SourceRequest,
			BonusPolicy:   bonusName,
			RevenuePolicy: revenueName,
			DatasetHash:   hash,
			Sellers:       len(req.Data.Sellers),
			Records:       len(req.Data.PurchaseRecords),
			Report:        result.Report,
			FinishedAt:    &finished,
		}
		if err := s.Runs.Create(ctx, run); err != nil {
			return Result{}, fmt.Errorf("persist run: %w", err)
		}
		result.RunID = &run.ID
	}
	return result, nil
}

// Submit records a pending run over the stored dataset and queues it.
func (s *Service) Submit(ctx context.Context, bonusPolicy, revenuePolicy string) (repo.Run, error) {
	if s == nil || s.Runs == nil || s.Queue == nil {
		return repo.Run{}, errors.New("analytics run queue not configured")
	}
	bonusName, revenueName := s.policyNames(bonusPolicy, revenuePolicy)
	if _, err := resolvePolicies(bonusName, revenueName); err != nil {
		return repo.Run{}, err
	}
	run := repo.Run{
		Status:        repo.RunPending,
		Source:        repo.SourceStore,
		BonusPolicy:   bonusName,
		RevenuePolicy: revenueName,
	}
	if err := s.Runs.Create(ctx, &run); err != nil {
		return repo.Run{}, fmt.Errorf("create run: %w", err)
	}
	if err := s.Queue.EnqueueReport(ctx, run); err != nil {
		if failErr := s.Runs.Fail(ctx, run.ID, "enqueue failed"); failErr != nil {
			s.Logger.Error().Err(failErr).Str("run_id", run.ID.String()).Msg("mark run failed")
		}
		return repo.Run{}, fmt.Errorf("enqueue run: %w", err)
	}
	obs.RecordReportJob("enqueued")
	return run, nil
}

// Process executes a queued run against the stored dataset and records the
// outcome. Runs that are no longer pending are left untouched.
func (s *Service) Process(ctx context.Context, runID uuid.UUID, bonusPolicy, revenuePolicy string) error {
	if s == nil || s.Runs == nil || s.Source == nil {
		return errors.New("analytics run processing not configured")
	}
	current, err := s.Runs.Get(ctx, runID)
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}
	if current.Status != repo.RunPending {
		s.Logger.Debug().Str("run_id", runID.String()).Str("status", current.Status).Msg("run already settled")
		return nil
	}
	opts, err := resolvePolicies(bonusPolicy, revenuePolicy)
	if err != nil {
		return s.fail(ctx, runID, err)
	}
	data, err := s.Source.LoadDataset(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	report, err := s.run(ctx, repo.SourceStore, data, opts)
	if err != nil {
		return s.fail(ctx, runID, err)
	}
	hash, err := datasetHash(data)
	if err != nil {
		return err
	}
	if err := s.Runs.Complete(ctx, runID, hash, len(data.Sellers), len(data.PurchaseRecords), report); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// MarkFailed records an infrastructure failure once retries are exhausted.
func (s *Service) MarkFailed(ctx context.Context, runID uuid.UUID, cause error) error {
	if s == nil || s.Runs == nil {
		return errors.New("analytics run store not configured")
	}
	return s.Runs.Fail(ctx, runID, cause.Error())
}

// GetRun returns a persisted run.
func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (repo.Run, error) {
	if s == nil || s.Runs == nil {
		return repo.Run{}, errors.New("analytics run store not configured")
	}
	return s.Runs.Get(ctx, id)
}

// ListRuns lists persisted runs newest first.
func (s *Service) ListRuns(ctx context.Context, limit, offset int) ([]repo.Run, error) {
	if s == nil || s.Runs == nil {
		return nil, errors.New("analytics run store not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Runs.List(ctx, limit, offset)
}

func (s *Service) run(ctx context.Context, source string, data *sellerstats.Dataset, opts sellerstats.Options) ([]sellerstats.SellerReport, error) {
	_, span := otel.Tracer("analytics").Start(ctx, "sellerstats.analyze")
	defer span.End()
	if data != nil {
		span.SetAttributes(
			attribute.String("analytics.source", source),
			attribute.Int("analytics.sellers", len(data.Sellers)),
			attribute.Int("analytics.purchase_records", len(data.PurchaseRecords)),
		)
	}

	start := time.Now()
	var err error
	if s.CheckReferences {
		err = sellerstats.CheckReferences(data)
	}
	var report []sellerstats.SellerReport
	if err == nil {
		report, err = sellerstats.Analyze(data, opts)
	}
	elapsed := time.Since(start)

	result := outcome(err)
	obs.RecordAnalysis(source, result, elapsed)
	var evt *zerolog.Event
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
		evt = s.Logger.Warn().Err(err)
	} else {
		evt = s.Logger.Info()
	}
	evt.Str("source", source).
		Str("result", result).
		Int("sellers", len(report)).
		Int64("duration_ms", elapsed.Milliseconds()).
		Msg("seller_analysis")
	return report, err
}

func (s *Service) fail(ctx context.Context, runID uuid.UUID, cause error) error {
	if err := s.Runs.Fail(ctx, runID, cause.Error()); err != nil {
		return fmt.Errorf("mark run failed: %w", err)
	}
	return cause
}

func (s *Service) policyNames(bonus, revenue string) (string, string) {
	bonus = strings.ToLower(strings.TrimSpace(bonus))
	revenue = strings.ToLower(strings.TrimSpace(revenue))
	if bonus == "" {
		bonus = s.BonusPolicy
	}
	if revenue == "" {
		revenue = s.RevenuePolicy
	}
	if bonus == "" {
		bonus = sellerstats.DefaultBonusPolicy
	}
	if revenue == "" {
		revenue = sellerstats.DefaultRevenuePolicy
	}
	return bonus, revenue
}

func resolvePolicies(bonusName, revenueName string) (sellerstats.Options, error) {
	bonus, err := sellerstats.LookupBonusPolicy(bonusName)
	if err != nil {
		return sellerstats.Options{}, err
	}
	revenue, err := sellerstats.LookupRevenuePolicy(revenueName)
	if err != nil {
		return sellerstats.Options{}, err
	}
	return sellerstats.Options{Revenue: revenue, Bonus: bonus}, nil
}

func datasetHash(data *sellerstats.Dataset) (string, error) {
	hash, err := common.HashJSON(data)
	if err != nil {
		return "", fmt.Errorf("hash dataset: %w", err)
	}
	return hash, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, sellerstats.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, sellerstats.ErrUnknownSeller), errors.Is(err, sellerstats.ErrUnknownProduct):
		return "lookup_failed"
	default:
		return "error"
	}
}

func (s *Service) getFromCache(ctx context.Context, key string) ([]sellerstats.SellerReport, bool) {
	if s.R == nil || s.TTL <= 0 {
		return nil, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.Logger.Warn().Err(err).Str("key", key).Msg("analytics cache read")
		}
		return nil, false
	}
	var report []sellerstats.SellerReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false
	}
	return report, true
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.R.Set(ctx, key, data, s.TTL).Err(); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("analytics cache write")
	}
}
