package domain

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus — статус work item в очереди.
//
// Жизненный цикл:
//
//	PENDING → ASSIGNED
//
// Переход выполняется ровно один раз, атомарно, в момент успешного
// Dequeue. Обратного перехода нет: повторная постановка упавшего item —
// ответственность вызывающей стороны (создаётся новая запись).
type ItemStatus string

const (
	// ItemStatusPending — item в очереди, ожидает назначения.
	ItemStatusPending ItemStatus = "PENDING"

	// ItemStatusAssigned — item назначен воркеру.
	ItemStatusAssigned ItemStatus = "ASSIGNED"
)

// WorkItem — единица работы, распределяемая по воркерам.
//
// После постановки в очередь item неизменяем, кроме статуса.
// Priority не имеет фиксированного диапазона — порядок чисто
// относительный (больше = срочнее). Tie-break при равном priority —
// порядок постановки, который назначается хранилищем (не вызывающей
// стороной), чтобы исключить ties из-за рассинхронизации часов
// между процессами.
type WorkItem struct {
	// ID — уникальный идентификатор item.
	// Может быть задан вызывающей стороной; пустой ID заполняется
	// генерацией (см. EnsureID).
	ID string `json:"id"`

	// Type — тег типа работы (например, "search", "summarize").
	Type string `json:"type"`

	// Input — произвольная полезная нагрузка.
	Input map[string]any `json:"input,omitempty"`

	// RequiredCapability — требуемая возможность воркера (опционально).
	RequiredCapability string `json:"required_capability,omitempty"`

	// PreferredWorkerID — предпочтительный воркер (опционально).
	// Item с непустым PreferredWorkerID выдаётся только этому воркеру.
	PreferredWorkerID string `json:"preferred_worker_id,omitempty"`

	// Priority — приоритет (больше = срочнее).
	Priority int `json:"priority"`

	// Timeout — таймаут выполнения (опционально).
	// Хранится и передаётся дальше; enforcement — вне этого ядра.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Metadata — произвольные строковые метаданные.
	Metadata map[string]string `json:"metadata,omitempty"`

	// CreatedAt — время постановки в очередь.
	// Назначается хранилищем при Enqueue.
	CreatedAt time.Time `json:"created_at"`
}

// EnsureID заполняет ID, если вызывающая сторона его не задала.
func (i *WorkItem) EnsureID() {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
}

// QueueRecord — WorkItem вместе с состоянием очереди.
//
// Создаётся в статусе PENDING при Enqueue; переходит в ASSIGNED
// ровно один раз как часть успешного Dequeue.
type QueueRecord struct {
	// Item — сам work item.
	Item WorkItem `json:"item"`

	// Status — текущий статус записи.
	Status ItemStatus `json:"status"`

	// AssignedAt — время назначения (только для ASSIGNED).
	AssignedAt *time.Time `json:"assigned_at,omitempty"`
}
