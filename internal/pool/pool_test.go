package pool

import (
	"testing"

	"github.com/shaiso/Dispatch/internal/domain"
)

func TestPool_AddRemoveIdempotent(t *testing.T) {
	p := New()

	p.AddWorker("w-1")
	p.SetCapabilities("w-1", domain.WorkerCapabilities{SupportedCapabilities: []string{"search"}})

	// Повторная регистрация не сбрасывает состояние
	p.AddWorker("w-1")
	workers := p.GetAllWorkers()
	if len(workers) != 1 {
		t.Fatalf("expected 1 worker, got %d", len(workers))
	}
	if !workers[0].Capabilities.Supports("search") {
		t.Error("re-adding a worker must not reset its capabilities")
	}

	p.RemoveWorker("w-1")
	p.RemoveWorker("w-1") // повторное удаление — no-op
	if len(p.GetAllWorkers()) != 0 {
		t.Error("expected empty pool after remove")
	}
}

func TestPool_GetAvailableWorker_LeastLoaded(t *testing.T) {
	p := New()
	p.AddWorker("w-1")
	p.AddWorker("w-2")
	p.AddWorker("w-3")

	p.AddLoad("w-1")
	p.AddLoad("w-1")
	p.AddLoad("w-2")

	w := p.GetAvailableWorker("")
	if w == nil {
		t.Fatal("expected a worker")
	}
	if w.WorkerID != "w-3" {
		t.Errorf("expected least-loaded w-3, got %s", w.WorkerID)
	}
}

func TestPool_GetAvailableWorker_CapabilityFilter(t *testing.T) {
	p := New()
	p.AddWorker("w-1")
	p.AddWorker("w-2")
	p.SetCapabilities("w-2", domain.WorkerCapabilities{SupportedCapabilities: []string{"search", "summarize"}})

	// w-1 менее загружен, но возможность есть только у w-2
	p.AddLoad("w-2")

	w := p.GetAvailableWorker("search")
	if w == nil {
		t.Fatal("expected a worker")
	}
	if w.WorkerID != "w-2" {
		t.Errorf("expected w-2, got %s", w.WorkerID)
	}

	if got := p.GetAvailableWorker("translate"); got != nil {
		t.Errorf("expected nil for unsupported capability, got %s", got.WorkerID)
	}
}

func TestPool_GetAvailableWorker_SkipsBusyAndOffline(t *testing.T) {
	p := New()
	p.AddWorker("w-1")
	p.AddWorker("w-2")
	p.SetStatus("w-1", domain.WorkerStatusBusy)
	p.SetStatus("w-2", domain.WorkerStatusOffline)

	if w := p.GetAvailableWorker(""); w != nil {
		t.Errorf("expected nil, got %s", w.WorkerID)
	}
}

func TestPool_GetAvailableWorker_RespectsMaxConcurrent(t *testing.T) {
	p := New()
	p.AddWorker("w-1")
	p.SetCapabilities("w-1", domain.WorkerCapabilities{MaxConcurrent: 2})

	p.AddLoad("w-1")
	p.AddLoad("w-1")

	// Загрузка достигла MaxConcurrent — воркер не выдаётся
	if w := p.GetAvailableWorker(""); w != nil {
		t.Errorf("expected nil for saturated worker, got %s", w.WorkerID)
	}

	p.ReleaseLoad("w-1")
	if w := p.GetAvailableWorker(""); w == nil {
		t.Error("expected worker after load release")
	}
}

func TestPool_GetAvailableWorker_DeterministicTieBreak(t *testing.T) {
	p := New()
	p.AddWorker("w-b")
	p.AddWorker("w-a")
	p.AddWorker("w-c")

	// Все с нулевой загрузкой — для фиксированного снапшота
	// результат должен быть одним и тем же
	for i := 0; i < 10; i++ {
		w := p.GetAvailableWorker("")
		if w == nil || w.WorkerID != "w-a" {
			t.Fatalf("iteration %d: expected w-a, got %+v", i, w)
		}
	}
}

func TestPool_SnapshotIsolation(t *testing.T) {
	p := New()
	p.AddWorker("w-1")

	snapshot := p.GetAllWorkers()
	snapshot[0].CurrentLoad = 99

	if w := p.GetAvailableWorker(""); w == nil || w.CurrentLoad != 0 {
		t.Error("mutating a snapshot must not affect the registry")
	}
}

func TestPool_ReleaseLoadFloor(t *testing.T) {
	p := New()
	p.AddWorker("w-1")

	p.ReleaseLoad("w-1")
	workers := p.GetAllWorkers()
	if workers[0].CurrentLoad != 0 {
		t.Errorf("load must not go below zero, got %d", workers[0].CurrentLoad)
	}
}
