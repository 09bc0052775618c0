package memory

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/remora-mcp/remora/internal/backend"
)

// summaryPrompt is the fixed extraction prompt given to the store when
// creating the rolling summary view.
const summaryPrompt = "Summarize what is durably true about this user and conversation: " +
	"stated preferences, decisions made, identifying details, and recurring topics. " +
	"Write compact prose. Omit greetings, one-off small talk, and anything superseded " +
	"by a later statement."

// ViewManager owns the lifecycle of the server-side rolling summary
// view: discovery, creation, partition lookup, refresh triggering, and
// recreation after the view disappears server-side.
//
// The cached view id is process-wide mutable state. It is only touched
// through this type: set on a successful Ensure, cleared when the store
// reports the id unknown. A raced clear/set pair is acceptable — the
// next access re-resolves.
type ViewManager struct {
	client backend.Client
	opts   Options

	mu     sync.Mutex
	viewID string
}

// NewViewManager creates a manager in the unresolved state; the view is
// looked up or created lazily on first use (or eagerly via Ensure).
func NewViewManager(client backend.Client, opts Options) *ViewManager {
	return &ViewManager{client: client, opts: opts.withDefaults()}
}

// ID returns the cached view id, empty while unresolved.
func (m *ViewManager) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewID
}

func (m *ViewManager) setID(id string) {
	m.mu.Lock()
	m.viewID = id
	m.mu.Unlock()
}

// invalidate clears the cached id only if it still holds stale,
// so a concurrent re-resolve is not wiped out.
func (m *ViewManager) invalidate(stale string) {
	m.mu.Lock()
	if m.viewID == stale {
		m.viewID = ""
	}
	m.mu.Unlock()
}

// Ensure resolves the summary view id: adopt an existing view matching
// the configured name, or create one with the configured grouping,
// namespace filter and time window. Failures are logged, not raised —
// the caller proceeds without a summary and a later call retries.
func (m *ViewManager) Ensure(ctx context.Context) {
	if m.ID() != "" {
		return
	}

	views, err := m.client.ListSummaryViews(ctx)
	if err != nil {
		log.Printf("WARNING: memory: list summary views: %v", err)
		return
	}
	for _, view := range views {
		if view.Name == m.opts.SummaryViewName {
			m.setID(view.ID)
			return
		}
	}

	created, err := m.client.CreateSummaryView(ctx, backend.SummaryView{
		Name:           m.opts.SummaryViewName,
		GroupBy:        m.opts.SummaryGroupBy,
		Namespace:      m.opts.Namespace,
		TimeWindowDays: m.opts.SummaryTimeWindowDays,
		Prompt:         summaryPrompt,
	})
	if err != nil {
		log.Printf("WARNING: memory: create summary view: %v", err)
		return
	}
	m.setID(created.ID)
}

// Partition returns the current summary partition for the configured
// grouping, or nil when no summary is available. When the cached id
// turns out to be stale (deleted server-side), the cache is cleared and
// this call returns nil — the next use re-resolves via Ensure, keeping
// latency on the hot path bounded.
func (m *ViewManager) Partition(ctx context.Context) *backend.Partition {
	m.Ensure(ctx)
	id := m.ID()
	if id == "" {
		return nil
	}

	partitions, err := m.client.ListPartitions(ctx, id, backend.PartitionFilters{
		Namespace: m.opts.Namespace,
		UserID:    m.opts.UserID,
	})
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			log.Printf("WARNING: memory: summary view %s gone, will recreate", id)
			m.invalidate(id)
		} else {
			log.Printf("WARNING: memory: list partitions: %v", err)
		}
		return nil
	}
	if len(partitions) == 0 {
		return nil
	}

	match := m.matchPartition(partitions)
	if match.MemoryCount == 0 {
		return nil
	}
	return match
}

// matchPartition selects the partition whose group matches every
// configured grouping dimension, falling back to the first partition
// when none matches exactly.
func (m *ViewManager) matchPartition(partitions []backend.Partition) *backend.Partition {
	expected := map[string]string{
		"user_id":   m.opts.UserID,
		"namespace": m.opts.Namespace,
	}
	for i := range partitions {
		p := &partitions[i]
		ok := true
		for _, field := range m.opts.SummaryGroupBy {
			if p.Group[field] != expected[field] {
				ok = false
				break
			}
		}
		if ok {
			return p
		}
	}
	return &partitions[0]
}

// TriggerRefresh fires an asynchronous recompute of the summary view.
// It does not wait for completion; failures are logged only. A stale id
// invalidates the cache so the next use recreates the view.
func (m *ViewManager) TriggerRefresh(ctx context.Context) {
	id := m.ID()
	if id == "" {
		return
	}
	go func() {
		if err := m.client.RunSummaryView(context.WithoutCancel(ctx), id); err != nil {
			if errors.Is(err, backend.ErrNotFound) {
				m.invalidate(id)
			}
			log.Printf("WARNING: memory: refresh summary view: %v", err)
		}
	}()
}
