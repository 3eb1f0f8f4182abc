package router

import (
	"context"
	"log/slog"

	"github.com/shaiso/Dispatch/internal/domain"
	"github.com/shaiso/Dispatch/internal/pool"
	"github.com/shaiso/Dispatch/internal/telemetry"
)

// DefaultHighPriorityThreshold — порог "срочного" item по умолчанию.
const DefaultHighPriorityThreshold = 7

// DecisionTreeRouter — детерминированное дерево решений.
//
// Фиксированный упорядоченный набор кандидатов-стратегий пробуется
// до первого успеха (логическое ИЛИ); каждый кандидат — guard + action
// (провал guard'а обрывает кандидата и передаёт ход следующему):
//
//  1. PriorityBased    — priority ≥ порога → наименее загруженный
//     воркер с требуемой возможностью (или из всех, если возможность
//     не задана)
//  2. CapabilityBased  — возможность задана → первый воркер снапшота,
//     который её поддерживает
//  3. LoadBalanced     — больше одного доступного воркера →
//     делегируем pool.GetAvailableWorker
//  4. Fallback         — безусловно pool.GetAvailableWorker без
//     фильтра
//
// Если ни один кандидат не дал воркера — "воркера нет", не ошибка.
type DecisionTreeRouter struct {
	pool      *pool.Pool
	threshold int
	logger    *slog.Logger
	metrics   *telemetry.Metrics
}

// DecisionTreeConfig — настройки DecisionTreeRouter.
type DecisionTreeConfig struct {
	// HighPriorityThreshold — порог priority для ветки PriorityBased
	// (default: 7).
	HighPriorityThreshold int

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger

	// Metrics — sink метрик (опционально).
	Metrics *telemetry.Metrics
}

// NewDecisionTree создаёт роутер поверх реестра воркеров.
func NewDecisionTree(p *pool.Pool, cfg DecisionTreeConfig) *DecisionTreeRouter {
	threshold := cfg.HighPriorityThreshold
	if threshold <= 0 {
		threshold = DefaultHighPriorityThreshold
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DecisionTreeRouter{
		pool:      p,
		threshold: threshold,
		logger:    logger,
		metrics:   cfg.Metrics,
	}
}

// RouteTask выбирает воркера по дереву решений.
func (r *DecisionTreeRouter) RouteTask(ctx context.Context, item *domain.WorkItem, workers []domain.WorkerInfo) (*domain.RoutingDecision, error) {
	if item == nil {
		return nil, ErrNilItem
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	available := availableOf(workers)

	// 1. PriorityBased: срочный item — наименее загруженному
	// подходящему воркеру
	if item.Priority >= r.threshold {
		if w := leastLoaded(available, item.RequiredCapability); w != nil {
			return r.decided(item, w, domain.StrategyPriorityBased), nil
		}
	}

	// 2. CapabilityBased: первый воркер с требуемой возможностью
	if item.RequiredCapability != "" {
		for i := range available {
			if available[i].Capabilities.Supports(item.RequiredCapability) {
				return r.decided(item, &available[i], domain.StrategyCapabilityBased), nil
			}
		}
	}

	// 3. LoadBalanced: есть из кого выбирать — спрашиваем pool
	if len(available) > 1 {
		if w := r.pool.GetAvailableWorker(item.RequiredCapability); w != nil {
			return r.decided(item, w, domain.StrategyLoadBalanced), nil
		}
	}

	// 4. Fallback: любой доступный воркер
	if w := r.pool.GetAvailableWorker(""); w != nil {
		return r.decided(item, w, domain.StrategyFallback), nil
	}

	r.logger.Debug("no worker for item", "item_id", item.ID)
	return noWorker(), nil
}

// decided оформляет решение и пишет метрику.
func (r *DecisionTreeRouter) decided(item *domain.WorkItem, w *domain.WorkerInfo, strategy domain.RoutingStrategy) *domain.RoutingDecision {
	r.metrics.RoutingDecision(string(strategy))
	r.logger.Debug("task routed",
		"item_id", item.ID,
		"worker_id", w.WorkerID,
		"strategy", strategy,
	)
	return &domain.RoutingDecision{Worker: w, Strategy: strategy}
}

// leastLoaded возвращает наименее загруженного воркера с возможностью
// capability (или из всех, если capability пустая). Tie-break —
// порядок снапшота (первый из равных).
func leastLoaded(workers []domain.WorkerInfo, capability string) *domain.WorkerInfo {
	var best *domain.WorkerInfo
	for i := range workers {
		w := &workers[i]
		if capability != "" && !w.Capabilities.Supports(capability) {
			continue
		}
		if best == nil || w.CurrentLoad < best.CurrentLoad {
			best = w
		}
	}
	return best
}
