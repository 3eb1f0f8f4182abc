package queue

import (
	"context"
	"sync"
	"time"

	"github.com/shaiso/Dispatch/internal/domain"
	"github.com/shaiso/Dispatch/internal/telemetry"
)

// memoryRecord — запись очереди вместе с порядковым номером постановки.
//
// seq — монотонный счётчик, назначаемый под мьютексом. Он, а не
// CreatedAt, используется как tie-break: time.Now() в пределах одного
// процесса может совпасть у двух подряд идущих Enqueue.
type memoryRecord struct {
	record domain.QueueRecord
	seq    uint64
}

// MemoryQueue — процессная реализация Queue.
//
// Один мьютекс закрывает весь шаг select+mark, поэтому N конкурентных
// Dequeue против M ≥ N подходящих записей получают N разных items.
type MemoryQueue struct {
	mu      sync.Mutex
	records map[string]*memoryRecord
	nextSeq uint64
	metrics *telemetry.Metrics
}

// NewMemoryQueue создаёт пустую in-memory очередь.
// metrics может быть nil — тогда метрики не пишутся.
func NewMemoryQueue(metrics *telemetry.Metrics) *MemoryQueue {
	return &MemoryQueue{
		records: make(map[string]*memoryRecord),
		metrics: metrics,
	}
}

// Enqueue ставит item в очередь.
func (q *MemoryQueue) Enqueue(ctx context.Context, item *domain.WorkItem) error {
	if item == nil {
		return ErrNilItem
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	item.EnsureID()
	if item.ID == "" {
		return ErrEmptyID
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.records[item.ID]; exists {
		return ErrDuplicateID
	}

	q.nextSeq++
	item.CreatedAt = time.Now()
	q.records[item.ID] = &memoryRecord{
		record: domain.QueueRecord{
			Item:   *item,
			Status: domain.ItemStatusPending,
		},
		seq: q.nextSeq,
	}

	q.metrics.ItemEnqueued(item.Type)
	return nil
}

// Dequeue атомарно забирает следующий подходящий item.
func (q *MemoryQueue) Dequeue(ctx context.Context, workerID string) (*domain.WorkItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	best := q.selectBest(workerID)
	if best == nil {
		return nil, nil
	}

	now := time.Now()
	best.record.Status = domain.ItemStatusAssigned
	best.record.AssignedAt = &now

	item := best.record.Item
	q.metrics.ItemDequeued(item.Type)
	return &item, nil
}

// Peek возвращает следующий item без мутации.
func (q *MemoryQueue) Peek(ctx context.Context) (*domain.WorkItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	best := q.selectBest("")
	if best == nil {
		return nil, nil
	}

	item := best.record.Item
	return &item, nil
}

// PendingCount возвращает количество PENDING записей.
func (q *MemoryQueue) PendingCount(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for _, rec := range q.records {
		if rec.record.Status == domain.ItemStatusPending {
			count++
		}
	}
	return count, nil
}

// selectBest находит PENDING запись с максимальным priority
// (при равенстве — с минимальным seq), подходящую воркеру.
// Вызывается только под мьютексом.
func (q *MemoryQueue) selectBest(workerID string) *memoryRecord {
	var best *memoryRecord
	for _, rec := range q.records {
		if rec.record.Status != domain.ItemStatusPending {
			continue
		}
		preferred := rec.record.Item.PreferredWorkerID
		if preferred != "" && preferred != workerID {
			continue
		}
		if best == nil || better(rec, best) {
			best = rec
		}
	}
	return best
}

// better возвращает true, если a должен быть выдан раньше b.
func better(a, b *memoryRecord) bool {
	if a.record.Item.Priority != b.record.Item.Priority {
		return a.record.Item.Priority > b.record.Item.Priority
	}
	return a.seq < b.seq
}
