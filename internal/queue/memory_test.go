package queue

import (
	"context"
	"sync"
	"testing"

	"github.com/shaiso/Dispatch/internal/domain"
)

func TestMemoryQueue_PriorityOrdering(t *testing.T) {
	q := NewMemoryQueue(nil)
	ctx := context.Background()

	// Ставим в порядке 1, 10, 5 — забирать должны в порядке 10, 5, 1
	for _, p := range []int{1, 10, 5} {
		item := &domain.WorkItem{Type: "test", Priority: p}
		if err := q.Enqueue(ctx, item); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	for _, want := range []int{10, 5, 1} {
		item, err := q.Dequeue(ctx, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item == nil {
			t.Fatalf("expected item with priority %d, got nil", want)
		}
		if item.Priority != want {
			t.Errorf("expected priority %d, got %d", want, item.Priority)
		}
	}
}

func TestMemoryQueue_FIFOTieBreak(t *testing.T) {
	q := NewMemoryQueue(nil)
	ctx := context.Background()

	// Одинаковый priority — порядок постановки решает
	a := &domain.WorkItem{ID: "item-a", Priority: 5}
	b := &domain.WorkItem{ID: "item-b", Priority: 5}
	if err := q.Enqueue(ctx, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Enqueue(ctx, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := q.Dequeue(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != "item-a" {
		t.Errorf("expected item-a first, got %s", first.ID)
	}

	second, err := q.Dequeue(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != "item-b" {
		t.Errorf("expected item-b second, got %s", second.ID)
	}
}

func TestMemoryQueue_PreferredWorkerFilter(t *testing.T) {
	q := NewMemoryQueue(nil)
	ctx := context.Background()

	pinned := &domain.WorkItem{ID: "pinned", Priority: 10, PreferredWorkerID: "agent-2"}
	free := &domain.WorkItem{ID: "free", Priority: 1}
	if err := q.Enqueue(ctx, pinned); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Enqueue(ctx, free); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// agent-1 не должен получить item, закреплённый за agent-2,
	// даже при более высоком priority
	item, err := q.Dequeue(ctx, "agent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item == nil || item.ID != "free" {
		t.Fatalf("expected free item for agent-1, got %+v", item)
	}

	// agent-2 получает свой закреплённый item
	item, err = q.Dequeue(ctx, "agent-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item == nil || item.ID != "pinned" {
		t.Fatalf("expected pinned item for agent-2, got %+v", item)
	}
}

func TestMemoryQueue_DequeueWithoutWorkerSkipsPinned(t *testing.T) {
	q := NewMemoryQueue(nil)
	ctx := context.Background()

	if err := q.Enqueue(ctx, &domain.WorkItem{ID: "pinned", PreferredWorkerID: "agent-9"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	item, err := q.Dequeue(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item != nil {
		t.Errorf("expected nil for anonymous dequeue, got %s", item.ID)
	}
}

func TestMemoryQueue_EmptyDequeue(t *testing.T) {
	q := NewMemoryQueue(nil)

	item, err := q.Dequeue(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("empty queue must not error: %v", err)
	}
	if item != nil {
		t.Errorf("expected nil item, got %+v", item)
	}
}

func TestMemoryQueue_EnqueueValidation(t *testing.T) {
	q := NewMemoryQueue(nil)
	ctx := context.Background()

	if err := q.Enqueue(ctx, nil); err != ErrNilItem {
		t.Errorf("expected ErrNilItem, got %v", err)
	}

	item := &domain.WorkItem{ID: "dup"}
	if err := q.Enqueue(ctx, item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Enqueue(ctx, &domain.WorkItem{ID: "dup"}); err != ErrDuplicateID {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestMemoryQueue_EnqueueGeneratesID(t *testing.T) {
	q := NewMemoryQueue(nil)
	item := &domain.WorkItem{Type: "test"}

	if err := q.Enqueue(context.Background(), item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ID == "" {
		t.Error("expected generated id")
	}
	if item.CreatedAt.IsZero() {
		t.Error("expected CreatedAt assigned by the store")
	}
}

func TestMemoryQueue_PeekDoesNotMutate(t *testing.T) {
	q := NewMemoryQueue(nil)
	ctx := context.Background()

	if err := q.Enqueue(ctx, &domain.WorkItem{ID: "only"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		item, err := q.Peek(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item == nil || item.ID != "only" {
			t.Fatalf("peek %d: expected item, got %+v", i, item)
		}
	}

	count, err := q.PendingCount(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("peek must not claim: expected 1 pending, got %d", count)
	}
}

func TestMemoryQueue_PendingCount(t *testing.T) {
	q := NewMemoryQueue(nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := q.Enqueue(ctx, &domain.WorkItem{Type: "test"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if _, err := q.Dequeue(ctx, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, err := q.PendingCount(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 4 {
		t.Errorf("expected 4 pending, got %d", count)
	}
}

func TestMemoryQueue_ConcurrentDequeueNoDuplicates(t *testing.T) {
	q := NewMemoryQueue(nil)
	ctx := context.Background()

	const total = 200
	for i := 0; i < total; i++ {
		if err := q.Enqueue(ctx, &domain.WorkItem{Type: "test", Priority: i % 7}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// total конкурентных Dequeue должны вернуть total разных items
	var mu sync.Mutex
	seen := make(map[string]int)

	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item, err := q.Dequeue(ctx, "")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if item == nil {
				t.Error("dequeue lost an eligible item")
				return
			}
			mu.Lock()
			seen[item.ID]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != total {
		t.Errorf("expected %d distinct items, got %d", total, len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("item %s claimed %d times", id, n)
		}
	}

	count, err := q.PendingCount(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty queue, got %d pending", count)
	}
}

func TestMemoryQueue_CancelledContext(t *testing.T) {
	q := NewMemoryQueue(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Отменённый контекст — отказ до любой мутации
	if err := q.Enqueue(ctx, &domain.WorkItem{ID: "x"}); err == nil {
		t.Error("expected context error on enqueue")
	}
	if _, err := q.Dequeue(ctx, ""); err == nil {
		t.Error("expected context error on dequeue")
	}

	count, err := q.PendingCount(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("cancelled enqueue must not mutate state, got %d pending", count)
	}
}
