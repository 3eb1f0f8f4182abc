package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shaiso/Dispatch/internal/domain"
	"github.com/shaiso/Dispatch/internal/telemetry"
)

// CompleteFunc — внешняя completion-функция (LLM).
// Может падать и зависать; вызывающая сторона ограничивает её
// контекстом. Надёжной не считается.
type CompleteFunc func(ctx context.Context, prompt string) (string, error)

// LLMRouter — роутер, делегирующий выбор воркера внешней
// completion-функции.
//
// Роутер строит текстовое описание item и кандидатов, ожидает в
// ответе JSON {selectedWorkerIndex, reasoning, routingStrategy}
// и валидирует индекс. Любой сбой — ошибка вызова, мусор вместо
// JSON, индекс вне диапазона — логируется и деградирует в выбор
// первого доступного воркера; наружу ошибка не уходит.
type LLMRouter struct {
	complete CompleteFunc
	logger   *slog.Logger
	metrics  *telemetry.Metrics
}

// NewLLM создаёт LLM-роутер.
// logger и metrics могут быть nil.
func NewLLM(complete CompleteFunc, logger *slog.Logger, metrics *telemetry.Metrics) *LLMRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMRouter{complete: complete, logger: logger, metrics: metrics}
}

// llmChoice — ожидаемая структура ответа completion-функции.
type llmChoice struct {
	SelectedWorkerIndex int    `json:"selectedWorkerIndex"`
	Reasoning           string `json:"reasoning"`
	RoutingStrategy     string `json:"routingStrategy"`
}

// RouteTask выбирает воркера через completion-функцию.
func (r *LLMRouter) RouteTask(ctx context.Context, item *domain.WorkItem, workers []domain.WorkerInfo) (*domain.RoutingDecision, error) {
	if item == nil {
		return nil, ErrNilItem
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	available := availableOf(workers)
	if len(available) == 0 {
		return noWorker(), nil
	}

	raw, err := r.complete(ctx, buildPrompt(item, available))
	if err != nil {
		r.logger.Warn("completion call failed, falling back", "item_id", item.ID, "error", err)
		return r.fallback(available), nil
	}

	choice, err := parseChoice(raw)
	if err != nil {
		r.logger.Warn("unparseable completion output, falling back",
			"item_id", item.ID,
			"error", err,
		)
		return r.fallback(available), nil
	}

	if choice.SelectedWorkerIndex < 0 || choice.SelectedWorkerIndex >= len(available) {
		r.logger.Warn("completion returned out-of-range index, falling back",
			"item_id", item.ID,
			"index", choice.SelectedWorkerIndex,
			"workers", len(available),
		)
		return r.fallback(available), nil
	}

	worker := available[choice.SelectedWorkerIndex]
	r.metrics.RoutingDecision(string(domain.StrategyLLMAssisted))
	r.logger.Debug("task routed by completion",
		"item_id", item.ID,
		"worker_id", worker.WorkerID,
		"reasoning", choice.Reasoning,
	)

	return &domain.RoutingDecision{
		Worker:    &worker,
		Strategy:  domain.StrategyLLMAssisted,
		Reasoning: choice.Reasoning,
	}, nil
}

// fallback — первый доступный воркер.
func (r *LLMRouter) fallback(available []domain.WorkerInfo) *domain.RoutingDecision {
	worker := available[0]
	r.metrics.RoutingDecision(string(domain.StrategyFallback))
	return &domain.RoutingDecision{
		Worker:   &worker,
		Strategy: domain.StrategyFallback,
	}
}

// buildPrompt строит описание item и кандидатов для completion-функции.
func buildPrompt(item *domain.WorkItem, workers []domain.WorkerInfo) string {
	var b strings.Builder

	b.WriteString("Select the best worker for the following task.\n\n")
	fmt.Fprintf(&b, "Task: id=%s type=%s priority=%d", item.ID, item.Type, item.Priority)
	if item.RequiredCapability != "" {
		fmt.Fprintf(&b, " required_capability=%s", item.RequiredCapability)
	}
	b.WriteString("\n\nWorkers:\n")

	for i, w := range workers {
		fmt.Fprintf(&b, "%d. id=%s type=%s status=%s load=%d capabilities=[%s] load_pct=%.0f%%\n",
			i,
			w.WorkerID,
			w.WorkerType,
			w.Status,
			w.CurrentLoad,
			strings.Join(w.Capabilities.SupportedCapabilities, ", "),
			w.LoadPercent(),
		)
	}

	b.WriteString("\nRespond with a JSON object: {\"selectedWorkerIndex\": <int>, \"reasoning\": \"<why>\", \"routingStrategy\": \"<name>\"}\n")
	return b.String()
}

// parseChoice извлекает JSON-объект из ответа completion-функции.
//
// Берётся подстрока от первой '{' до последней '}' — модели любят
// оборачивать JSON прозой и markdown-фенсами.
func parseChoice(raw string) (*llmChoice, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in completion output")
	}

	var choice llmChoice
	if err := json.Unmarshal([]byte(raw[start:end+1]), &choice); err != nil {
		return nil, fmt.Errorf("decode completion output: %w", err)
	}
	return &choice, nil
}
