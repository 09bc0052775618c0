package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/remora-mcp/remora/internal/backend"
)

// errTest is a generic transient backend failure for tests.
var errTest = errors.New("backend unavailable")

// fakeBackend is an in-process backend.Client for engine tests. Each
// method can be overridden per-test; unset methods succeed with empty
// results. Calls are recorded for assertions.
type fakeBackend struct {
	mu sync.Mutex

	searchFn       func(p backend.SearchParams) ([]backend.SearchHit, error)
	listViewsFn    func() ([]backend.SummaryView, error)
	createViewFn   func(v backend.SummaryView) (backend.SummaryView, error)
	partitionsFn   func(viewID string, f backend.PartitionFilters) ([]backend.Partition, error)
	runViewFn      func(viewID string) error
	writeWMFn      func(sessionID string, wm backend.WorkingMemory) error
	createFn       func(entries []backend.Entry, namespace string) error
	deleteFn       func(ids []string) error
	healthFn       func() error

	searches     []backend.SearchParams
	created      []backend.Entry
	deleted      [][]string
	wmWrites     []backend.WorkingMemory
	wmSessionIDs []string
	runCalls     []string
}

func (f *fakeBackend) Search(_ context.Context, p backend.SearchParams) ([]backend.SearchHit, error) {
	f.mu.Lock()
	f.searches = append(f.searches, p)
	f.mu.Unlock()
	if f.searchFn != nil {
		return f.searchFn(p)
	}
	return nil, nil
}

func (f *fakeBackend) CreateEntries(_ context.Context, entries []backend.Entry, namespace string) error {
	f.mu.Lock()
	f.created = append(f.created, entries...)
	f.mu.Unlock()
	if f.createFn != nil {
		return f.createFn(entries, namespace)
	}
	return nil
}

func (f *fakeBackend) DeleteEntries(_ context.Context, ids []string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, ids)
	f.mu.Unlock()
	if f.deleteFn != nil {
		return f.deleteFn(ids)
	}
	return nil
}

func (f *fakeBackend) ListSummaryViews(_ context.Context) ([]backend.SummaryView, error) {
	if f.listViewsFn != nil {
		return f.listViewsFn()
	}
	return nil, nil
}

func (f *fakeBackend) CreateSummaryView(_ context.Context, v backend.SummaryView) (backend.SummaryView, error) {
	if f.createViewFn != nil {
		return f.createViewFn(v)
	}
	v.ID = "sv-created"
	return v, nil
}

func (f *fakeBackend) ListPartitions(_ context.Context, viewID string, filters backend.PartitionFilters) ([]backend.Partition, error) {
	if f.partitionsFn != nil {
		return f.partitionsFn(viewID, filters)
	}
	return nil, nil
}

func (f *fakeBackend) RunSummaryView(_ context.Context, viewID string) error {
	f.mu.Lock()
	f.runCalls = append(f.runCalls, viewID)
	f.mu.Unlock()
	if f.runViewFn != nil {
		return f.runViewFn(viewID)
	}
	return nil
}

func (f *fakeBackend) WriteWorkingMemory(_ context.Context, sessionID string, wm backend.WorkingMemory) error {
	f.mu.Lock()
	f.wmWrites = append(f.wmWrites, wm)
	f.wmSessionIDs = append(f.wmSessionIDs, sessionID)
	f.mu.Unlock()
	if f.writeWMFn != nil {
		return f.writeWMFn(sessionID, wm)
	}
	return nil
}

func (f *fakeBackend) Health(_ context.Context) error {
	if f.healthFn != nil {
		return f.healthFn()
	}
	return nil
}
