package pipeline

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Luc0-0/Samarth/internal/model"
	"github.com/Luc0-0/Samarth/internal/store"
	"github.com/Luc0-0/Samarth/pkg/datagov"
)

// --- Executor Mock ---

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) Execute(ctx context.Context, plan *model.QueryPlan) (*store.ExecResult, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.ExecResult), args.Error(1)
}

func (m *mockExecutor) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	args := m.Called(ctx, table, columns, rows)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockExecutor) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockExecutor) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockExecutor) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- Portal Client Mock ---

type mockLiveClient struct {
	mock.Mock
}

func (m *mockLiveClient) Fetch(ctx context.Context, resourceID string, filters map[string]string, limit int) ([]datagov.Record, error) {
	args := m.Called(ctx, resourceID, filters, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datagov.Record), args.Error(1)
}

// --- Audit Sink Capture ---

type captureSink struct {
	mu      sync.Mutex
	records []*model.ProvenanceRecord
}

func (s *captureSink) Record(rec *model.ProvenanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *captureSink) Close() error { return nil }

func (s *captureSink) all() []*model.ProvenanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.ProvenanceRecord(nil), s.records...)
}
