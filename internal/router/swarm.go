package router

import (
	"context"
	"log/slog"

	"github.com/shaiso/Dispatch/internal/domain"
	"github.com/shaiso/Dispatch/internal/swarm"
	"github.com/shaiso/Dispatch/internal/telemetry"
)

// SwarmRouter — роутер поверх swarm-координатора.
//
// Координатор выбирает множество воркеров; роутер берёт из него
// лучшего (первого в ранжировании эвристики). Снапшот воркеров
// координатор берёт сам из своего pool — аргумент workers
// игнорируется, он нужен только для единообразия сигнатуры.
type SwarmRouter struct {
	coordinator *swarm.Coordinator
	strategy    domain.SwarmStrategy
	logger      *slog.Logger
	metrics     *telemetry.Metrics
}

// NewSwarm создаёт роутер поверх координатора.
// strategy — эвристика по умолчанию (пустая → ParticleSwarm).
func NewSwarm(c *swarm.Coordinator, strategy domain.SwarmStrategy, logger *slog.Logger, metrics *telemetry.Metrics) *SwarmRouter {
	if strategy == "" {
		strategy = domain.SwarmParticle
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SwarmRouter{
		coordinator: c,
		strategy:    strategy,
		logger:      logger,
		metrics:     metrics,
	}
}

// RouteTask выбирает воркера через swarm-распределение.
func (r *SwarmRouter) RouteTask(ctx context.Context, item *domain.WorkItem, workers []domain.WorkerInfo) (*domain.RoutingDecision, error) {
	if item == nil {
		return nil, ErrNilItem
	}

	result, err := r.coordinator.DistributeTask(ctx, item, r.strategy)
	if err != nil {
		return nil, err
	}
	if len(result.Workers) == 0 {
		return noWorker(), nil
	}

	worker := result.Workers[0]
	r.metrics.RoutingDecision(string(domain.StrategySwarmBased))
	r.logger.Debug("task routed by swarm",
		"item_id", item.ID,
		"worker_id", worker.WorkerID,
		"heuristic", r.strategy,
		"confidence", result.Confidence,
	)

	return &domain.RoutingDecision{
		Worker:   &worker,
		Strategy: domain.StrategySwarmBased,
	}, nil
}
