package analytics_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-sellerstats/internal/repo"
	"github.com/noah-isme/backend-sellerstats/internal/sellerstats"
)

type memoryRuns struct {
	mu   sync.Mutex
	runs map[uuid.UUID]repo.Run
}

func newMemoryRuns() *memoryRuns {
	return &memoryRuns{runs: map[uuid.UUID]repo.Run{}}
}

func (m *memoryRuns) Create(_ context.Context, run *repo.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	run.CreatedAt = time.Now()
	m.runs[run.ID] = *run
	return nil
}

func (m *memoryRuns) Complete(_ context.Context, id uuid.UUID, hash string, sellers, records int, report []sellerstats.SellerReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return repo.ErrNotFound
	}
	now := time.Now()
	run.Status = repo.RunSucceeded
	run.DatasetHash = hash
	run.Sellers = sellers
	run.Records = records
	run.Report = report
	run.FinishedAt = &now
	m.runs[id] = run
	return nil
}

func (m *memoryRuns) Fail(_ context.Context, id uuid.UUID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return repo.ErrNotFound
	}
	run.Status = repo.RunFailed
	run.Error = reason
	m.runs[id] = run
	return nil
}

func (m *memoryRuns) Get(_ context.Context, id uuid.UUID) (repo.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return repo.Run{}, repo.ErrNotFound
	}
	return run, nil
}

func (m *memoryRuns) List(_ context.Context, limit, offset int) ([]repo.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repo.Run, 0, len(m.runs))
	for _, run := range m.runs {
		run.Report = nil
		out = append(out, run)
	}
	if offset >= len(out) {
		return []repo.Run{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type staticSource struct {
	data  *sellerstats.Dataset
	err   error
	calls int
}

func (s *staticSource) LoadDataset(context.Context) (*sellerstats.Dataset, error) {
	s.calls++
	return s.data, s.err
}

type recordingQueue struct {
	runs []repo.Run
	err  error
}

func (q *recordingQueue) EnqueueReport(_ context.Context, run repo.Run) error {
	if q.err != nil {
		return q.err
	}
	q.runs = append(q.runs, run)
	return nil
}

func sampleDataset() *sellerstats.Dataset {
	return &sellerstats.Dataset{
		Sellers:  []sellerstats.Seller{{ID: "s1", FirstName: "A", LastName: "B"}},
		Products: []sellerstats.Product{{SKU: "x", PurchasePrice: 10}},
		PurchaseRecords: []sellerstats.PurchaseRecord{{
			SellerID:    "s1",
			TotalAmount: 100,
			Items:       []sellerstats.PurchaseItem{{SKU: "x", SalePrice: 50, Quantity: 2}},
		}},
	}
}

const sampleJSON = `{"sellers":[{"id":"s1","first_name":"A","last_name":"B"}],"products":[{"sku":"x","purchase_price":10}],"purchase_records":[{"seller_id":"s1","total_amount":100,"items":[{"sku":"x","sale_price":50,"quantity":2,"discount":0}]}]}`
