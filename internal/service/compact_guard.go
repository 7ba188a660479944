package service

import (
	"context"
	"sync"
)

// ExportedCompactGuard is an exported alias so _test packages can test the guard.
type ExportedCompactGuard = compactGuard

// ─────────────────────────────────────────────────────────────
// compactGuard — prevents concurrent compaction of the same page
// ─────────────────────────────────────────────────────────────

// compactGuard keeps a page from being swept twice concurrently when a
// long sweep overlaps the next cron tick.
type compactGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock attempts to mark pageID as being swept. Returns true if successful.
// Returns false if a sweep for the page is already in progress.
func (g *compactGuard) TryLock(pageID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[pageID]; ok {
		return false // already sweeping
	}
	g.running[pageID] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock marks the sweep as finished. Must be called after TryLock returns true.
func (g *compactGuard) Unlock(pageID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, pageID)
	g.wg.Done()
}

// WaitAll blocks until all in-flight sweeps complete or ctx is cancelled.
func (g *compactGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
