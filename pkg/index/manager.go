// Package index owns the index lifecycle: building snapshots from the
// corpus, atomically swapping them live, keeping exactly one backup per
// granularity, and rolling back to it. Readers obtain snapshots through a
// single atomic pointer read and are never blocked by a rebuild; snapshot
// construction happens outside any lock on data the writer privately owns
// until the swap.
package index

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/shelfworksco/stacks/pkg/embeddings"
	"github.com/shelfworksco/stacks/pkg/papers"
	"github.com/shelfworksco/stacks/pkg/vector"
)

// Status describes one granularity's index state. Reading it never blocks on
// an in-progress rebuild.
type Status struct {
	DocumentCount   int       `json:"document_count"`
	LastUpdated     time.Time `json:"last_updated"`
	Hybrid          bool      `json:"hybrid"`
	HasBackup       bool      `json:"has_backup"`
	BackupTimestamp time.Time `json:"backup_timestamp,omitzero"`
}

// RebuildResult reports a completed rebuild.
type RebuildResult struct {
	DocumentCount int           `json:"document_count"`
	Duration      time.Duration `json:"duration"`
}

// RollbackResult reports a completed rollback.
type RollbackResult struct {
	RestoredDocumentCount int `json:"restored_document_count"`
}

// slot holds one granularity's live/backup pair. The live pointer is the
// only state readers touch; mu guards the backup fields and the swap itself.
type slot struct {
	live atomic.Pointer[vector.Snapshot]

	mu       sync.Mutex
	backup   *vector.Snapshot
	backupAt time.Time

	// busy serializes writers (rebuild and rollback) without making
	// status or reads wait.
	busy atomic.Bool
}

// Manager owns the live/backup snapshot pair for both granularities.
type Manager struct {
	store    papers.Store
	embedder embeddings.Embedder
	opts     vector.BuildOptions
	logger   *zap.Logger

	paper     slot
	paragraph slot
}

// NewManager creates an index manager over the given corpus store and
// embedder. Both granularities start empty; queries fail with
// ErrIndexNotReady until the first successful rebuild.
func NewManager(store papers.Store, embedder embeddings.Embedder, opts vector.BuildOptions, logger *zap.Logger) *Manager {
	if opts.Dimension <= 0 {
		opts.Dimension = embedder.Dimension()
	}

	return &Manager{
		store:    store,
		embedder: embedder,
		opts:     opts,
		logger:   logger,
	}
}

func (m *Manager) slot(g vector.Granularity) *slot {
	if g == vector.GranularityParagraph {
		return &m.paragraph
	}
	return &m.paper
}

// Live returns the granularity's currently-queryable snapshot, or
// ErrIndexNotReady when nothing has been indexed yet. The returned snapshot
// is immutable; callers may query it for as long as they hold it, regardless
// of concurrent rebuilds.
func (m *Manager) Live(g vector.Granularity) (*vector.Snapshot, error) {
	snap := m.slot(g).live.Load()
	if snap == nil {
		return nil, ErrIndexNotReady
	}
	return snap, nil
}

// Status reports the granularity's document count, build time, variant, and
// backup availability.
func (m *Manager) Status(g vector.Granularity) Status {
	s := m.slot(g)

	var status Status
	if snap := s.live.Load(); snap != nil {
		status.DocumentCount = snap.Len()
		status.LastUpdated = snap.BuiltAt()
		status.Hybrid = snap.Hybrid()
	}

	s.mu.Lock()
	if s.backup != nil {
		status.HasBackup = true
		status.BackupTimestamp = s.backupAt
	}
	s.mu.Unlock()

	return status
}

// Rebuild enumerates the current corpus, embeds every unit, constructs a new
// snapshot, and atomically swaps it live. The snapshot being replaced becomes
// the new backup, overwriting any prior one. Individual units that fail to
// embed are logged and skipped; a rebuild with zero usable units fails with
// a RebuildError and leaves both live and backup untouched.
func (m *Manager) Rebuild(ctx context.Context, g vector.Granularity) (*RebuildResult, error) {
	s := m.slot(g)
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrRebuildInProgress
	}
	defer s.busy.Store(false)

	start := time.Now()
	m.logger.Info("starting index rebuild", zap.String("granularity", string(g)))

	docs, err := m.collect(ctx, g)
	if err != nil {
		return nil, &RebuildError{Granularity: g, Err: err}
	}

	snap, err := vector.NewSnapshot(g, docs, m.opts)
	if err != nil {
		return nil, &RebuildError{Granularity: g, Err: err}
	}

	// The swap is the only critical section: the old live snapshot
	// becomes the backup and the privately-built one goes live.
	s.mu.Lock()
	if old := s.live.Load(); old != nil {
		s.backup = old
		s.backupAt = time.Now().UTC()
	}
	s.live.Store(snap)
	s.mu.Unlock()

	result := &RebuildResult{
		DocumentCount: snap.Len(),
		Duration:      time.Since(start),
	}

	m.logger.Info("index rebuild complete",
		zap.String("granularity", string(g)),
		zap.Int("documents", result.DocumentCount),
		zap.Bool("hybrid", snap.Hybrid()),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

// Rollback atomically exchanges the live snapshot and the backup. The
// snapshot just replaced becomes the new backup, so a follow-up rollback
// undoes the undo.
func (m *Manager) Rollback(g vector.Granularity) (*RollbackResult, error) {
	s := m.slot(g)
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrRebuildInProgress
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	if s.backup == nil {
		s.mu.Unlock()
		return nil, ErrNoBackup
	}

	restored := s.backup
	s.backup = s.live.Load()
	s.backupAt = time.Now().UTC()
	s.live.Store(restored)
	s.mu.Unlock()

	m.logger.Info("index rolled back",
		zap.String("granularity", string(g)),
		zap.Int("documents", restored.Len()),
	)

	return &RollbackResult{RestoredDocumentCount: restored.Len()}, nil
}

// collect enumerates the corpus and embeds one unit per document.
func (m *Manager) collect(ctx context.Context, g vector.Granularity) ([]vector.Document, error) {
	var units []embedUnit

	switch g {
	case vector.GranularityParagraph:
		paragraphs, err := m.store.ListParagraphs(ctx)
		if err != nil {
			return nil, err
		}
		units = make([]embedUnit, 0, len(paragraphs))
		for _, p := range paragraphs {
			units = append(units, embedUnit{id: p.ID, paperID: p.PaperID, text: p.EmbeddingText()})
		}
	default:
		all, err := m.store.ListPapers(ctx)
		if err != nil {
			return nil, err
		}
		units = make([]embedUnit, 0, len(all))
		for _, p := range all {
			units = append(units, embedUnit{id: p.ID, paperID: p.ID, text: p.EmbeddingText()})
		}
	}

	if len(units) == 0 {
		return nil, vector.ErrNoDocuments
	}

	docs := make([]vector.Document, 0, len(units))
	skipped := 0
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		emb, err := m.embedder.Embed(ctx, u.text)
		if err != nil {
			// Best-effort corpus coverage: one bad unit must not
			// abort the whole rebuild.
			skipped++
			m.logger.Warn("skipping unit that failed to embed",
				zap.String("granularity", string(g)),
				zap.String("id", u.id),
				zap.Error(err),
			)
			continue
		}
		docs = append(docs, vector.Document{ID: u.id, PaperID: u.paperID, Embedding: emb})
	}

	if skipped > 0 {
		m.logger.Warn("rebuild skipped units",
			zap.String("granularity", string(g)),
			zap.Int("skipped", skipped),
			zap.Int("embedded", len(docs)),
		)
	}
	if len(docs) == 0 {
		return nil, vector.ErrNoDocuments
	}

	return docs, nil
}

type embedUnit struct {
	id      string
	paperID string
	text    string
}
