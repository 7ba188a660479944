package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"boards/internal/domain"
	"boards/internal/layoutfile"
	"boards/internal/service"
	"boards/internal/storage"
)

// compactionCron is the schedule for the background gap-closing sweep.
const compactionCron = "*/5 * * * *"

// App wires storage, services, and watchers into one host process.
// A frontend embeds it and binds the exported methods; the standalone
// MCP entry point drives it headless.
type App struct {
	ctx     context.Context
	dataDir string

	db        *storage.DB
	notebooks *storage.NotebookStore
	blocks    *storage.BlockStore

	emitter     service.EventEmitter
	canvas      *service.CanvasService
	maintenance *service.Maintenance
	layouts     *layoutfile.Watcher
	watcher     *pageWatcher
}

// New creates a new App. Events flow out through emitter.
func New(emitter service.EventEmitter) *App {
	return &App{emitter: emitter}
}

// DataDir resolves the data directory. BOARDS_DATA_DIR overrides the
// default under the user's home.
func DataDir() string {
	if dir := os.Getenv("BOARDS_DATA_DIR"); dir != "" {
		return dir
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".local", "share", "boards")
}

// Startup opens the database and starts the background workers.
func (a *App) Startup(ctx context.Context) error {
	a.ctx = ctx
	a.dataDir = DataDir()

	db, err := storage.New(filepath.Join(a.dataDir, "boards.db"), a.dataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db
	a.notebooks = storage.NewNotebookStore(db)
	a.blocks = storage.NewBlockStore(db)

	a.canvas = service.NewCanvasService(a.blocks, a.notebooks, a.emitter)

	a.maintenance = service.NewMaintenance(a.canvas)
	if err := a.maintenance.Start(compactionCron); err != nil {
		return fmt.Errorf("start maintenance: %w", err)
	}

	// Saved layout files apply back to their page when edited externally.
	layouts, err := layoutfile.NewWatcher(func(pageID string, f *layoutfile.File) {
		if err := a.canvas.ReplaceLayout(a.ctx, pageID, f.Positions()); err != nil {
			log.Printf("app: apply layout file for page %s: %v", pageID, err)
		}
	})
	if err != nil {
		return fmt.Errorf("create layout watcher: %w", err)
	}
	a.layouts = layouts

	a.watcher = newPageWatcher(ctx, a)
	a.watcher.Start()

	return nil
}

// Shutdown stops the workers and closes the database.
func (a *App) Shutdown() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.layouts != nil {
		a.layouts.Close()
	}
	if a.maintenance != nil {
		a.maintenance.Stop()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// Canvas exposes the canvas service for the MCP server.
func (a *App) Canvas() *service.CanvasService { return a.canvas }

// Notebooks exposes the notebook store for the MCP server.
func (a *App) Notebooks() *storage.NotebookStore { return a.notebooks }

// Blocks exposes the block store for the MCP server.
func (a *App) Blocks() *storage.BlockStore { return a.blocks }

// ── Page bindings ──────────────────────────────────────────

// OpenPage opens a canvas session, exports its layout file, and watches
// the file for external edits.
func (a *App) OpenPage(pageID string) (*domain.PageState, error) {
	state, err := a.canvas.OpenPage(a.ctx, pageID)
	if err != nil {
		return nil, err
	}
	a.watcher.SetPage(pageID, state.Page.NotebookID)

	path := a.layoutPath(pageID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return state, nil
	}
	f := layoutfile.FromBlocks(pageID, state.Page.GridColumns, state.Blocks)
	if err := layoutfile.Save(path, f); err != nil {
		log.Printf("app: export layout for page %s: %v", pageID, err)
		return state, nil
	}
	if err := a.layouts.WatchFile(pageID, path); err != nil {
		log.Printf("app: watch layout for page %s: %v", pageID, err)
	}
	return state, nil
}

// ClosePage drops the session and stops watching its layout file.
func (a *App) ClosePage(pageID string) {
	a.layouts.StopWatching(pageID)
	a.canvas.ClosePage(pageID)
}

func (a *App) layoutPath(pageID string) string {
	return filepath.Join(a.db.DataDir(), "layouts", pageID+".layout.json")
}
