package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Dispatch/internal/mq"
)

// handleItemEnqueued обрабатывает событие о новом item из очереди
// items.enqueued.
func (s *Service) handleItemEnqueued(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.ItemEnqueuedPayload](&delivery.Message)
	if err != nil {
		s.logger.Error("failed to parse item.enqueued payload", "error", err)
		return err
	}

	s.logger.Debug("received item.enqueued event",
		"item_id", payload.ItemID,
		"type", payload.Type,
		"priority", payload.Priority,
	)

	// Событие — сигнал "в очереди что-то есть", а не поручение на
	// конкретный item: распределяем голову очереди. Сам item мог уже
	// уйти другому экземпляру координатора — это не ошибка.
	if _, err := s.dispatchNext(ctx); err != nil {
		s.logger.Error("failed to dispatch after item.enqueued",
			"item_id", payload.ItemID,
			"error", err,
		)
		return err
	}

	return nil
}

// dispatchNext распределяет один item из головы очереди.
//
// Возвращает (false, nil), если очередь пуста или подходящего воркера
// нет — оба случая штатные, item остаётся PENDING до следующего цикла.
func (s *Service) dispatchNext(ctx context.Context) (bool, error) {
	// 1. Смотрим голову очереди
	item, err := s.queue.Peek(ctx)
	if err != nil {
		return false, fmt.Errorf("peek queue: %w", err)
	}
	if item == nil {
		return false, nil
	}

	// 2. Выбираем воркера
	decision, err := s.router.RouteTask(ctx, item, s.pool.GetAllWorkers())
	if err != nil {
		return false, fmt.Errorf("route item %s: %w", item.ID, err)
	}
	if !decision.Selected() {
		s.logger.Debug("no worker for pending item", "item_id", item.ID)
		return false, nil
	}

	// 3. Атомарно забираем item для выбранного воркера.
	// Claim мог выиграть другой экземпляр — тогда просто выходим.
	claimed, err := s.queue.Dequeue(ctx, decision.Worker.WorkerID)
	if err != nil {
		return false, fmt.Errorf("claim item for %s: %w", decision.Worker.WorkerID, err)
	}
	if claimed == nil {
		return false, nil
	}

	// 4. Учитываем нагрузку
	s.pool.AddLoad(decision.Worker.WorkerID)

	s.logger.Info("item assigned",
		"item_id", claimed.ID,
		"worker_id", decision.Worker.WorkerID,
		"strategy", decision.Strategy,
	)

	// 5. Публикуем событие назначения
	s.publishAssigned(ctx, mq.ItemAssignedPayload{
		ItemID:   claimed.ID,
		WorkerID: decision.Worker.WorkerID,
		Strategy: string(decision.Strategy),
	})

	return true, nil
}

// publishAssigned публикует событие items.assigned с повторами.
//
// Ошибка публикации не отменяет назначение: item уже ASSIGNED в
// очереди, воркер подхватит его при следующем обращении.
func (s *Service) publishAssigned(ctx context.Context, payload mq.ItemAssignedPayload) {
	if s.publisher == nil {
		return
	}

	err := s.retryPolicy.Execute(ctx, func(ctx context.Context) error {
		return s.publisher.PublishItemAssigned(ctx, payload)
	})
	if err != nil {
		s.logger.Warn("failed to publish item.assigned",
			"item_id", payload.ItemID,
			"worker_id", payload.WorkerID,
			"error", err,
		)
	}
}

// CompleteItem фиксирует завершение item воркером: снимает нагрузку
// в реестре и обновляет историю swarm-координатора.
func (s *Service) CompleteItem(workerID string, success bool, duration time.Duration) {
	s.pool.ReleaseLoad(workerID)
	if s.swarm != nil {
		s.swarm.RecordCompletion(workerID, success, duration)
	}
}
