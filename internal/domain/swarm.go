package domain

import "time"

// SwarmStrategy — эвристика распределения, используемая координатором.
//
// Закрытое множество вариантов: вызывающая сторона выбирает стратегию
// значением, без runtime-обнаружения плагинов.
type SwarmStrategy string

const (
	// SwarmParticle — particle swarm: top-3 по fitness
	// (successRate × recencyBonus × capabilityBonus).
	SwarmParticle SwarmStrategy = "PARTICLE_SWARM"

	// SwarmAntColony — ant colony: top-2 по уровню "феромона"
	// (successRate, 0.5 для неизвестных воркеров).
	SwarmAntColony SwarmStrategy = "ANT_COLONY"

	// SwarmFlocking — flocking: крупнейшая группа воркеров с одинаковым
	// набором возможностей, максимум 3.
	SwarmFlocking SwarmStrategy = "FLOCKING"

	// SwarmConsensus — consensus: голосование по соответствию
	// возможностей, проходят голоса ≥ 70% от максимума, максимум 2.
	SwarmConsensus SwarmStrategy = "CONSENSUS"
)

// DistributionResult — результат распределения item по swarm.
//
// В отличие от RoutingDecision, может содержать несколько воркеров
// (избыточное/параллельное выполнение). Пустой набор воркеров с
// Confidence == 0 означает "кандидатов нет".
type DistributionResult struct {
	// Workers — выбранные воркеры в порядке убывания score.
	Workers []WorkerInfo `json:"workers"`

	// Strategy — применённая эвристика.
	Strategy SwarmStrategy `json:"strategy"`

	// Confidence — оценка качества решения в [0, 1]:
	// 0.7 × средний successRate выбранных + 0.3 × доля выбранных.
	Confidence float64 `json:"confidence"`
}

// SwarmStatistics — агрегированная статистика координатора.
type SwarmStatistics struct {
	// AgentCount — количество воркеров в swarm.
	AgentCount int `json:"agent_count"`

	// ActiveTasks — items, назначенные но ещё не завершённые.
	ActiveTasks int `json:"active_tasks"`

	// AvgCompletionTime — среднее время выполнения по скользящему окну.
	AvgCompletionTime time.Duration `json:"avg_completion_time"`

	// EfficiencyScore — 0.6 × средний successRate +
	// 0.4 × 1/(1 + дисперсия количества tasks по воркерам).
	EfficiencyScore float64 `json:"efficiency_score"`
}
