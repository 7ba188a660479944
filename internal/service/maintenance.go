package service

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// ─────────────────────────────────────────────────────────────
// Maintenance — periodic compaction sweep over open pages
// ─────────────────────────────────────────────────────────────

// Maintenance periodically compacts every open page so gaps left by
// deletions do not accumulate across long sessions.
type Maintenance struct {
	canvas *CanvasService
	sched  *cron.Cron
	guard  compactGuard
}

func NewMaintenance(canvas *CanvasService) *Maintenance {
	return &Maintenance{canvas: canvas}
}

// Start schedules the sweep. cronExpr uses the standard 5-field format,
// e.g. "*/5 * * * *".
func (m *Maintenance) Start(cronExpr string) error {
	if m.sched != nil {
		return nil
	}
	m.sched = cron.New()
	if _, err := m.sched.AddFunc(cronExpr, m.RunOnce); err != nil {
		m.sched = nil
		return err
	}
	m.sched.Start()
	log.Printf("maintenance: compaction sweep scheduled (%s)", cronExpr)
	return nil
}

// RunOnce sweeps every open page immediately. Pages already being swept
// are skipped.
func (m *Maintenance) RunOnce() {
	for _, pageID := range m.canvas.OpenPages() {
		if !m.guard.TryLock(pageID) {
			continue
		}
		moved, err := m.canvas.Arrange(pageID)
		m.guard.Unlock(pageID)
		if err != nil {
			log.Printf("maintenance: compact page %s: %v", pageID, err)
			continue
		}
		if moved {
			log.Printf("maintenance: compacted page %s", pageID)
		}
	}
}

// Stop halts the schedule and waits for in-flight sweeps.
func (m *Maintenance) Stop() {
	if m.sched != nil {
		<-m.sched.Stop().Done()
		m.sched = nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.guard.WaitAll(ctx)
}
