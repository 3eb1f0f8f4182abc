package router

import (
	"context"
	"errors"

	"github.com/shaiso/Dispatch/internal/domain"
)

// Router — стратегия маршрутизации: по item и снапшоту воркеров
// выбирает ноль или одного воркера.
//
// Реализации: DecisionTreeRouter, LLMRouter, SwarmRouter.
// "Воркера нет" — нормальный исход (Decision.Worker == nil), не ошибка.
type Router interface {
	RouteTask(ctx context.Context, item *domain.WorkItem, workers []domain.WorkerInfo) (*domain.RoutingDecision, error)
}

// Ошибки роутеров.
var (
	// ErrNilItem — в RouteTask передан nil item.
	ErrNilItem = errors.New("work item is nil")
)

// noWorker — решение "подходящего воркера нет".
func noWorker() *domain.RoutingDecision {
	return &domain.RoutingDecision{}
}

// availableOf отбирает из снапшота воркеров в статусе AVAILABLE.
func availableOf(workers []domain.WorkerInfo) []domain.WorkerInfo {
	out := make([]domain.WorkerInfo, 0, len(workers))
	for _, w := range workers {
		if w.IsAvailable() {
			out = append(out, w)
		}
	}
	return out
}
