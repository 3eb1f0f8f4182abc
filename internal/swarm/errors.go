package swarm

import "errors"

// Ошибки координатора.
var (
	// ErrNilItem — в DistributeTask передан nil item.
	ErrNilItem = errors.New("work item is nil")

	// ErrUnknownStrategy — неизвестная эвристика распределения.
	ErrUnknownStrategy = errors.New("unknown swarm strategy")
)
