package domain

// WorkerStatus — статус воркера.
type WorkerStatus string

const (
	// WorkerStatusAvailable — воркер доступен для новых items.
	WorkerStatusAvailable WorkerStatus = "AVAILABLE"

	// WorkerStatusBusy — воркер занят (не принимает новые items).
	WorkerStatusBusy WorkerStatus = "BUSY"

	// WorkerStatusOffline — воркер недоступен.
	WorkerStatusOffline WorkerStatus = "OFFLINE"
)

// WorkerCapabilities — заявленные возможности воркера.
type WorkerCapabilities struct {
	// SupportedCapabilities — множество поддерживаемых возможностей.
	SupportedCapabilities []string `json:"supported_capabilities,omitempty"`

	// MaxConcurrent — максимум одновременных items.
	MaxConcurrent int `json:"max_concurrent"`
}

// Supports проверяет, поддерживает ли воркер возможность.
func (c WorkerCapabilities) Supports(capability string) bool {
	for _, cap := range c.SupportedCapabilities {
		if cap == capability {
			return true
		}
	}
	return false
}

// WorkerInfo — снапшот состояния воркера.
//
// Владелец — реестр воркеров (pool); снапшот обновляется при каждом
// опросе. Инвариант CurrentLoad ≤ MaxConcurrent рекомендательный:
// его соблюдают роутеры и pool, сам тип его не навязывает.
type WorkerInfo struct {
	// WorkerID — уникальный идентификатор воркера.
	WorkerID string `json:"worker_id"`

	// WorkerType — тип воркера (например, "llm-agent", "batch").
	WorkerType string `json:"worker_type,omitempty"`

	// Status — текущий статус.
	Status WorkerStatus `json:"status"`

	// CurrentLoad — количество items в работе.
	CurrentLoad int `json:"current_load"`

	// Capabilities — заявленные возможности.
	Capabilities WorkerCapabilities `json:"capabilities"`
}

// IsAvailable возвращает true, если воркер готов принять item.
func (w *WorkerInfo) IsAvailable() bool {
	return w.Status == WorkerStatusAvailable
}

// LoadPercent возвращает загрузку воркера в процентах от MaxConcurrent.
// Если MaxConcurrent не задан, возвращает 0.
func (w *WorkerInfo) LoadPercent() float64 {
	if w.Capabilities.MaxConcurrent <= 0 {
		return 0
	}
	return float64(w.CurrentLoad) / float64(w.Capabilities.MaxConcurrent) * 100
}
