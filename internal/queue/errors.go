package queue

import "errors"

// Ошибки очереди.
var (
	// ErrNilItem — в Enqueue передан nil item.
	ErrNilItem = errors.New("work item is nil")

	// ErrEmptyID — у item пустой ID после EnsureID (программная ошибка).
	ErrEmptyID = errors.New("work item has empty id")

	// ErrDuplicateID — item с таким ID уже есть в очереди.
	ErrDuplicateID = errors.New("work item id already enqueued")
)
