package app

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// pageWatcher polls the database for changes to the active page,
// detecting external modifications (e.g. from the standalone MCP process)
// and emitting events so an embedding frontend auto-refreshes.
type pageWatcher struct {
	ctx context.Context
	app *App
	mu  sync.Mutex
	// Active page tracking
	pageID     string
	notebookID string
	lastBlock  string // blocks fingerprint (count + max updated_at)
	// Page list tracking (sidebar refresh)
	lastPageList string // pages fingerprint (count + max updated_at)
	stopCh       chan struct{}
}

func newPageWatcher(ctx context.Context, app *App) *pageWatcher {
	return &pageWatcher{ctx: ctx, app: app}
}

// SetPage updates the watched page ID. Called when user navigates to a page.
func (w *pageWatcher) SetPage(pageID, notebookID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pageID = pageID
	w.notebookID = notebookID
	// Reset tracked state when switching pages
	w.lastBlock = ""
	w.lastPageList = ""
}

// Start begins the polling loop. Should be called once on app startup.
func (w *pageWatcher) Start() {
	w.stopCh = make(chan struct{})
	go w.pollLoop()
}

// Stop terminates the polling loop.
func (w *pageWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
	}
}

func (w *pageWatcher) pollLoop() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.stopCh:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *pageWatcher) check() {
	w.mu.Lock()
	pageID := w.pageID
	notebookID := w.notebookID
	w.mu.Unlock()

	if pageID == "" {
		return
	}

	db := w.app.db.Conn()

	// ── Check blocks MAX(updated_at) and count ──────────
	var blockUpdated string
	var blockCount int
	err := db.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(updated_at), '') FROM blocks WHERE page_id = ?`, pageID,
	).Scan(&blockCount, &blockUpdated)
	if err != nil {
		return
	}

	// ── Check page list changes (sidebar) ───────────────
	var pageListFingerprint string
	if notebookID != "" {
		var pageCount int
		var pagesMaxUpdated string
		err = db.QueryRow(
			`SELECT COUNT(*), COALESCE(MAX(updated_at), '') FROM pages WHERE notebook_id = ?`, notebookID,
		).Scan(&pageCount, &pagesMaxUpdated)
		if err == nil {
			pageListFingerprint = fmt.Sprintf("%d:%s", pageCount, pagesMaxUpdated)
		}
	}

	// ── Build fingerprints and compare ──────────────────
	blockFingerprint := fmt.Sprintf("%d:%s", blockCount, blockUpdated)

	w.mu.Lock()
	blocksChanged := w.lastBlock != "" && w.lastBlock != blockFingerprint
	pagesChanged := w.lastPageList != "" && pageListFingerprint != "" && w.lastPageList != pageListFingerprint
	w.lastBlock = blockFingerprint
	if pageListFingerprint != "" {
		w.lastPageList = pageListFingerprint
	}
	w.mu.Unlock()

	// ── Emit events ────────────────────────────────────
	if blocksChanged {
		w.app.emitter.Emit(w.ctx, "external:blocks-changed", map[string]string{"pageId": pageID})
	}
	if pagesChanged {
		w.app.emitter.Emit(w.ctx, "external:pages-changed", map[string]string{"notebookId": notebookID})
	}
}
