package domain

// RoutingStrategy — метка стратегии, принявшей решение о маршрутизации.
type RoutingStrategy string

const (
	// StrategyPriorityBased — высокоприоритетный item ушёл наименее
	// загруженному воркеру с нужной возможностью.
	StrategyPriorityBased RoutingStrategy = "PriorityBased"

	// StrategyCapabilityBased — первый воркер с требуемой возможностью.
	StrategyCapabilityBased RoutingStrategy = "CapabilityBased"

	// StrategyLoadBalanced — наименее загруженный воркер из pool.
	StrategyLoadBalanced RoutingStrategy = "LoadBalanced"

	// StrategyFallback — безусловный fallback на любой доступный воркер.
	StrategyFallback RoutingStrategy = "Fallback"

	// StrategyLLMAssisted — решение принято внешней completion-функцией.
	StrategyLLMAssisted RoutingStrategy = "LLMAssisted"

	// StrategySwarmBased — решение принято swarm-координатором.
	StrategySwarmBased RoutingStrategy = "SwarmBased"
)

// RoutingDecision — результат одного решения о маршрутизации.
//
// Эфемерный объект: создаётся на один вызов RouteTask и не хранится.
// Worker == nil означает "подходящего воркера нет" — это нормальный
// исход, не ошибка.
type RoutingDecision struct {
	// Worker — выбранный воркер (nil, если никто не подошёл).
	Worker *WorkerInfo `json:"worker,omitempty"`

	// Strategy — стратегия, принявшая решение.
	Strategy RoutingStrategy `json:"strategy,omitempty"`

	// Reasoning — пояснение решения (заполняется LLM-роутером).
	Reasoning string `json:"reasoning,omitempty"`
}

// Selected возвращает true, если воркер был выбран.
func (d *RoutingDecision) Selected() bool {
	return d != nil && d.Worker != nil
}
