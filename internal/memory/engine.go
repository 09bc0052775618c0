package memory

import (
	"context"
	"log"
	"time"

	"github.com/remora-mcp/remora/internal/backend"
)

// Engine coordinates capture, recall and manual store/forget against
// the remote memory store. All store failures on the hook paths degrade
// to "proceed without this data" — they are logged and never propagate
// to the host, so a store outage cannot block the agent's response.
type Engine struct {
	client   backend.Client
	sessions *SessionStore
	views    *ViewManager
	opts     Options
}

// NewEngine constructs the orchestration engine. sessions may be nil
// when no local state directory is available; capture then treats every
// call as a fresh session with cutoff zero.
func NewEngine(client backend.Client, sessions *SessionStore, opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		client:   client,
		sessions: sessions,
		views:    NewViewManager(client, opts),
		opts:     opts,
	}
}

// Views exposes the summary view manager (startup warm-up, tests).
func (e *Engine) Views() *ViewManager {
	return e.views
}

// CaptureResult reports what a capture call did.
type CaptureResult struct {
	SessionID string `json:"session_id"`
	Captured  int    `json:"captured"`
	Skipped   int    `json:"skipped"`
}

// Capture normalizes the turn list, keeps only messages newer than the
// session's last capture boundary, writes them to the store's
// working-memory log and advances the boundary. Called from the
// post-turn hook; re-invocation with the same turns captures nothing
// new.
func (e *Engine) Capture(ctx context.Context, sessionKey string, turns []Turn) CaptureResult {
	sessionID := DeriveSessionID(sessionKey, e.opts.SessionID)
	result := CaptureResult{SessionID: sessionID}

	var cutoff time.Time
	if e.sessions != nil {
		cutoff = e.sessions.Cutoff(sessionID)
	}

	messages := Normalize(turns, cutoff)
	result.Skipped = len(turns) - len(messages)
	if len(messages) == 0 {
		return result
	}

	wm := backend.WorkingMemory{
		Messages:           make([]backend.WorkingMessage, 0, len(messages)),
		Namespace:          e.opts.Namespace,
		UserID:             e.opts.UserID,
		ExtractionStrategy: e.opts.ExtractionStrategy,
		ExtractionPrompt:   e.opts.ExtractionPrompt,
	}
	latest := cutoff
	for _, msg := range messages {
		wm.Messages = append(wm.Messages, backend.WorkingMessage{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt.Format(time.RFC3339Nano),
		})
		if msg.CreatedAt.After(latest) {
			latest = msg.CreatedAt
		}
	}

	if err := e.client.WriteWorkingMemory(ctx, sessionID, wm); err != nil {
		// Boundary not advanced: the same messages are retried on the
		// next capture instead of being lost.
		log.Printf("WARNING: memory: write working memory: %v", err)
		return result
	}
	result.Captured = len(messages)

	if e.sessions != nil {
		if err := e.sessions.RecordCutoff(sessionID, latest); err != nil {
			log.Printf("WARNING: memory: record cutoff: %v", err)
		}
	}

	e.views.TriggerRefresh(ctx)
	return result
}

// RecallHit is one scored result of a manual memory search.
type RecallHit struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Score    float64  `json:"score"`
	Topics   []string `json:"topics,omitempty"`
	Entities []string `json:"entities,omitempty"`
}

// SearchMemories runs a direct semantic search for the memory_recall
// tool, filtered by the configured score floor.
func (e *Engine) SearchMemories(ctx context.Context, query string, limit int) ([]RecallHit, error) {
	if limit <= 0 {
		limit = e.opts.RecallLimit
	}
	hits, err := e.client.Search(ctx, backend.SearchParams{
		Query:             query,
		Limit:             limit,
		Namespace:         e.opts.Namespace,
		UserID:            e.opts.UserID,
		DistanceThreshold: 1 - e.opts.MinScore,
	})
	if err != nil {
		return nil, err
	}
	var out []RecallHit
	for _, hit := range hits {
		score := scoreFromDistance(hit.Dist)
		if score < e.opts.MinScore {
			continue
		}
		out = append(out, RecallHit{
			ID:       hit.ID,
			Text:     hit.Text,
			Score:    score,
			Topics:   hit.Topics,
			Entities: hit.Entities,
		})
	}
	return out, nil
}

// Health checks store availability, best-effort.
func (e *Engine) Health(ctx context.Context) error {
	return e.client.Health(ctx)
}
