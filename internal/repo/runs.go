package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-sellerstats/internal/sellerstats"
)

// Run statuses.
const (
	RunPending   = "pending"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Run sources.
const (
	SourceRequest = "request"
	SourceStore   = "store"
)

// Run is a persisted seller report computation.
type Run struct {
	ID            uuid.UUID                  `json:"id"`
	Status        string                     `json:"status"`
	Source        string                     `json:"source"`
	BonusPolicy   string                     `json:"bonus_policy"`
	RevenuePolicy string                     `json:"revenue_policy"`
	DatasetHash   string                     `json:"dataset_hash,omitempty"`
	Sellers       int                        `json:"sellers"`
	Records       int                        `json:"records"`
	Report        []sellerstats.SellerReport `json:"report,omitempty"`
	Error         string                     `json:"error,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
	FinishedAt    *time.Time                 `json:"finished_at,omitempty"`
}

// RunStore persists report runs.
type RunStore struct {
	DB DB
}

const runColumns = `id, status, source, bonus_policy, revenue_policy, dataset_hash, sellers, records, report, error, created_at, finished_at`

// Create inserts a new run. A zero ID is replaced with a random one.
func (s RunStore) Create(ctx context.Context, run *Run) error {
	if s.DB == nil {
		return errors.New("repo: run store not configured")
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = RunPending
	}
	report, err := encodeReport(run.Report)
	if err != nil {
		return err
	}
	return s.DB.QueryRow(ctx, `INSERT INTO report_runs (id, status, source, bonus_policy, revenue_policy, dataset_hash, sellers, records, report, error, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING created_at`,
		pgUUID(run.ID), run.Status, run.Source, run.BonusPolicy, run.RevenuePolicy, run.DatasetHash,
		run.Sellers, run.Records, report, run.Error, run.FinishedAt,
	).Scan(&run.CreatedAt)
}

// Complete stores the report of a finished run.
func (s RunStore) Complete(ctx context.Context, id uuid.UUID, datasetHash string, sellers, records int, report []sellerstats.SellerReport) error {
	if s.DB == nil {
		return errors.New("repo: run store not configured")
	}
	encoded, err := encodeReport(report)
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `UPDATE report_runs SET status = $2, dataset_hash = $3, sellers = $4, records = $5, report = $6, error = '', finished_at = now() WHERE id = $1`,
		pgUUID(id), RunSucceeded, datasetHash, sellers, records, encoded)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Fail marks a run as failed with the provided reason.
func (s RunStore) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	if s.DB == nil {
		return errors.New("repo: run store not configured")
	}
	tag, err := s.DB.Exec(ctx, `UPDATE report_runs SET status = $2, error = $3, finished_at = now() WHERE id = $1`,
		pgUUID(id), RunFailed, reason)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns a single run including its report.
func (s RunStore) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	if s.DB == nil {
		return Run{}, errors.New("repo: run store not configured")
	}
	row := s.DB.QueryRow(ctx, `SELECT `+runColumns+` FROM report_runs WHERE id = $1`, pgUUID(id))
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return run, err
}

// List returns runs newest first. Reports are omitted to keep listings small.
func (s RunStore) List(ctx context.Context, limit, offset int) ([]Run, error) {
	if s.DB == nil {
		return nil, errors.New("repo: run store not configured")
	}
	rows, err := s.DB.Query(ctx, `SELECT `+runColumns+` FROM report_runs ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Run, error) {
		return scanRun(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan runs: %w", err)
	}
	for i := range runs {
		runs[i].Report = nil
	}
	return runs, nil
}

func scanRun(row pgx.Row) (Run, error) {
	var (
		run    Run
		id     pgtype.UUID
		report []byte
	)
	if err := row.Scan(&id, &run.Status, &run.Source, &run.BonusPolicy, &run.RevenuePolicy, &run.DatasetHash,
		&run.Sellers, &run.Records, &report, &run.Error, &run.CreatedAt, &run.FinishedAt); err != nil {
		return Run{}, err
	}
	run.ID = uuid.UUID(id.Bytes)
	if len(report) > 0 {
		if err := json.Unmarshal(report, &run.Report); err != nil {
			return Run{}, fmt.Errorf("decode report: %w", err)
		}
	}
	return run, nil
}

func encodeReport(report []sellerstats.SellerReport) ([]byte, error) {
	if report == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return encoded, nil
}
