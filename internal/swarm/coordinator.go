package swarm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Dispatch/internal/domain"
	"github.com/shaiso/Dispatch/internal/pool"
	"github.com/shaiso/Dispatch/internal/telemetry"
)

// Значения конфигурации по умолчанию.
const (
	defaultLearningRate       = 0.1
	defaultRecencyWindow      = 5 * time.Minute
	defaultRecencyBonus       = 1.2
	defaultCapabilityBonus    = 1.1
	defaultConsensusThreshold = 0.7
	defaultPheromone          = 0.5
	defaultWindowCapacity     = 1000

	particleLimit  = 3
	antColonyLimit = 2
	flockingLimit  = 3
	consensusLimit = 2
)

// Config — настройки координатора.
type Config struct {
	// LearningRate — α экспоненциального скользящего среднего
	// successRate (default: 0.1).
	LearningRate float64

	// RecencyWindow — окно, в котором недавно назначенный воркер
	// получает бонус к fitness (default: 5m).
	RecencyWindow time.Duration

	// RecencyBonus — множитель fitness за недавнее назначение
	// (default: 1.2).
	RecencyBonus float64

	// CapabilityBonus — множитель fitness за заявленные возможности
	// (default: 1.1).
	CapabilityBonus float64

	// ConsensusThreshold — доля от максимального голоса, начиная с
	// которой голос проходит (default: 0.7).
	ConsensusThreshold float64

	// WindowCapacity — ёмкость окна длительностей (default: 1000).
	WindowCapacity int
}

// withDefaults заполняет незаданные поля значениями по умолчанию.
func (c Config) withDefaults() Config {
	if c.LearningRate <= 0 {
		c.LearningRate = defaultLearningRate
	}
	if c.RecencyWindow <= 0 {
		c.RecencyWindow = defaultRecencyWindow
	}
	if c.RecencyBonus <= 0 {
		c.RecencyBonus = defaultRecencyBonus
	}
	if c.CapabilityBonus <= 0 {
		c.CapabilityBonus = defaultCapabilityBonus
	}
	if c.ConsensusThreshold <= 0 {
		c.ConsensusThreshold = defaultConsensusThreshold
	}
	if c.WindowCapacity <= 0 {
		c.WindowCapacity = defaultWindowCapacity
	}
	return c
}

// agentState — обучаемое состояние участника роя.
//
// Владелец — координатор; мутации только под его мьютексом.
type agentState struct {
	joinedAt        time.Time
	taskCount       int
	successRate     float64
	lastAssignedAt  time.Time
	lastCompletedAt time.Time
}

// Coordinator — координатор роя.
type Coordinator struct {
	cfg     Config
	pool    *pool.Pool
	logger  *slog.Logger
	metrics *telemetry.Metrics

	mu          sync.Mutex
	agents      map[string]*agentState
	activeTasks int
	durations   []time.Duration // скользящее окно завершений

	now func() time.Time // подменяется в тестах
}

// NewCoordinator создаёт координатор поверх реестра воркеров.
// logger и metrics могут быть nil.
func NewCoordinator(p *pool.Pool, cfg Config, logger *slog.Logger, metrics *telemetry.Metrics) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		cfg:     cfg.withDefaults(),
		pool:    p,
		logger:  logger,
		metrics: metrics,
		agents:  make(map[string]*agentState),
		now:     time.Now,
	}
}

// AddAgent включает воркера в рой.
// Начальный successRate — 1.0 (презумпция работоспособности).
// Идемпотентен: существующее состояние не сбрасывается.
func (c *Coordinator) AddAgent(workerID string) {
	if workerID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.agents[workerID]; exists {
		return
	}
	c.agents[workerID] = &agentState{
		joinedAt:    c.now(),
		successRate: 1.0,
	}
	c.logger.Debug("agent joined swarm", "worker_id", workerID)
}

// RemoveAgent исключает воркера из роя и уничтожает его состояние.
func (c *Coordinator) RemoveAgent(workerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.agents[workerID]; exists {
		delete(c.agents, workerID)
		c.logger.Debug("agent left swarm", "worker_id", workerID)
	}
}

// DistributeTask выбирает множество воркеров для item по заданной
// эвристике.
//
// Кандидаты — участники роя в статусе AVAILABLE (снапшот из pool).
// Выбранным воркерам фиксируется назначение (taskCount, recency,
// activeTasks). Отсутствие кандидатов — нормальный исход: пустой
// набор воркеров, confidence 0.
func (c *Coordinator) DistributeTask(ctx context.Context, item *domain.WorkItem, strategy domain.SwarmStrategy) (*domain.DistributionResult, error) {
	if item == nil {
		return nil, ErrNilItem
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshot := c.pool.GetAllWorkers()

	c.mu.Lock()
	defer c.mu.Unlock()

	candidates := make([]domain.WorkerInfo, 0, len(snapshot))
	for _, w := range snapshot {
		if !w.IsAvailable() {
			continue
		}
		if _, member := c.agents[w.WorkerID]; !member {
			continue
		}
		candidates = append(candidates, w)
	}

	result := &domain.DistributionResult{Strategy: strategy}
	if len(candidates) == 0 {
		return result, nil
	}

	var selected []domain.WorkerInfo
	switch strategy {
	case domain.SwarmParticle:
		selected = c.particleSwarm(item, candidates)
	case domain.SwarmAntColony:
		selected = c.antColony(candidates)
	case domain.SwarmFlocking:
		selected = c.flocking(candidates)
	case domain.SwarmConsensus:
		selected = c.consensus(item, candidates)
	default:
		return nil, ErrUnknownStrategy
	}

	result.Workers = selected
	result.Confidence = c.confidence(selected, len(candidates))

	now := c.now()
	for _, w := range selected {
		state := c.agents[w.WorkerID]
		state.taskCount++
		state.lastAssignedAt = now
		c.activeTasks++
	}

	c.metrics.Distribution(string(strategy))
	c.logger.Debug("task distributed",
		"item_id", item.ID,
		"strategy", strategy,
		"selected", len(selected),
		"candidates", len(candidates),
		"confidence", result.Confidence,
	)

	return result, nil
}

// confidence — 0.7 × средний successRate выбранных +
// 0.3 × (выбрано / доступно). По построению лежит в [0, 1].
// Вызывается под мьютексом.
func (c *Coordinator) confidence(selected []domain.WorkerInfo, available int) float64 {
	if len(selected) == 0 || available == 0 {
		return 0
	}

	sum := 0.0
	for _, w := range selected {
		sum += c.successRateOf(w.WorkerID)
	}
	avgSuccess := sum / float64(len(selected))
	coverage := float64(len(selected)) / float64(available)

	return 0.7*avgSuccess + 0.3*coverage
}

// successRateOf возвращает successRate воркера
// (defaultPheromone для неизвестных). Вызывается под мьютексом.
func (c *Coordinator) successRateOf(workerID string) float64 {
	if state, ok := c.agents[workerID]; ok {
		return state.successRate
	}
	return defaultPheromone
}

// RecordCompletion фиксирует завершение item воркером.
//
// successRate обновляется EMA: rate ← α·outcome + (1−α)·rate,
// outcome ∈ {0, 1}. Длительность попадает в скользящее окно.
// Завершение от воркера вне роя игнорируется.
func (c *Coordinator) RecordCompletion(workerID string, success bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.agents[workerID]
	if !ok {
		return
	}

	outcome := 0.0
	if success {
		outcome = 1.0
	}
	state.successRate = c.cfg.LearningRate*outcome + (1-c.cfg.LearningRate)*state.successRate
	state.lastCompletedAt = c.now()

	if c.activeTasks > 0 {
		c.activeTasks--
	}

	c.durations = append(c.durations, duration)
	if len(c.durations) > c.cfg.WindowCapacity {
		c.durations = c.durations[1:]
	}

	c.metrics.ObserveCompletion(duration)
	c.logger.Debug("completion recorded",
		"worker_id", workerID,
		"success", success,
		"duration", duration,
		"success_rate", state.successRate,
	)
}

// GetStatistics возвращает агрегированную статистику роя.
func (c *Coordinator) GetStatistics() domain.SwarmStatistics {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := domain.SwarmStatistics{
		AgentCount:  len(c.agents),
		ActiveTasks: c.activeTasks,
	}

	if len(c.durations) > 0 {
		var total time.Duration
		for _, d := range c.durations {
			total += d
		}
		stats.AvgCompletionTime = total / time.Duration(len(c.durations))
	}

	if len(c.agents) > 0 {
		sumRate := 0.0
		counts := make([]float64, 0, len(c.agents))
		for _, state := range c.agents {
			sumRate += state.successRate
			counts = append(counts, float64(state.taskCount))
		}
		avgRate := sumRate / float64(len(c.agents))
		stats.EfficiencyScore = 0.6*avgRate + 0.4*(1/(1+variance(counts)))
	}

	return stats
}

// variance — дисперсия выборки (population variance).
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}
