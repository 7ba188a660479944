package service_test

import (
	"context"
	"testing"
	"time"

	"boards/internal/service"
)

// ─────────────────────────────────────────────────────────────
// compactGuard tests
// ─────────────────────────────────────────────────────────────

func TestCompactGuard_TryLock(t *testing.T) {
	var g service.ExportedCompactGuard

	if !g.TryLock("page-1") {
		t.Fatal("expected first TryLock to succeed")
	}
	if g.TryLock("page-1") {
		t.Fatal("expected second TryLock for same page to fail")
	}
	if !g.TryLock("page-2") {
		t.Fatal("expected TryLock for different page to succeed")
	}
	g.Unlock("page-1")
	g.Unlock("page-2")

	if !g.TryLock("page-1") {
		t.Fatal("expected TryLock to succeed after unlock")
	}
	g.Unlock("page-1")
}

func TestCompactGuard_WaitAll(t *testing.T) {
	var g service.ExportedCompactGuard

	if !g.TryLock("page-a") {
		t.Fatal("expected lock to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Unlock("page-a")
	}()

	select {
	case <-done:
		// success
	case <-time.After(1 * time.Second):
		t.Fatal("WaitAll timed out")
	}
}

// ─────────────────────────────────────────────────────────────
// MockEmitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "canvas:event", map[string]string{"foo": "bar"})
	m.Emit(ctx, "canvas:event2", nil)

	if len(m.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(m.Events))
	}
	if m.Events[0].Event != "canvas:event" {
		t.Errorf("expected 'canvas:event', got %q", m.Events[0].Event)
	}
	if got := len(m.Named("canvas:event2")); got != 1 {
		t.Errorf("expected 1 match for canvas:event2, got %d", got)
	}
}
