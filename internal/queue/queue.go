package queue

import (
	"context"

	"github.com/shaiso/Dispatch/internal/domain"
)

// Queue — очередь work items с атомарным claim.
//
// Реализации: MemoryQueue (этот пакет) и repo.ItemQueue (Postgres).
// Внешняя семантика у обеих идентична.
type Queue interface {
	// Enqueue ставит item в очередь в статусе PENDING.
	// Пустой ID заполняется генерацией. Порядок постановки назначает
	// хранилище — это единственный tie-break при равном priority.
	Enqueue(ctx context.Context, item *domain.WorkItem) error

	// Dequeue атомарно забирает следующий подходящий PENDING item
	// (priority DESC, порядок постановки ASC) и переводит его в
	// ASSIGNED. workerID фильтрует items по preferred worker: item с
	// непустым PreferredWorkerID выдаётся только этому воркеру.
	// Возвращает (nil, nil), если подходящих items нет.
	Dequeue(ctx context.Context, workerID string) (*domain.WorkItem, error)

	// Peek возвращает item, который вернул бы Dequeue без workerID,
	// не меняя его статус. Возвращает (nil, nil) для пустой очереди.
	Peek(ctx context.Context) (*domain.WorkItem, error)

	// PendingCount возвращает количество PENDING записей.
	PendingCount(ctx context.Context) (int, error)
}
