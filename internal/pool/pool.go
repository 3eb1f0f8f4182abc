package pool

import (
	"sort"
	"sync"

	"github.com/shaiso/Dispatch/internal/domain"
)

// Pool — реестр воркеров.
type Pool struct {
	mu      sync.RWMutex
	workers map[string]*domain.WorkerInfo
}

// New создаёт пустой реестр.
func New() *Pool {
	return &Pool{workers: make(map[string]*domain.WorkerInfo)}
}

// AddWorker регистрирует воркера. Идемпотентен: повторная регистрация
// существующего воркера ничего не меняет.
func (p *Pool) AddWorker(workerID string) {
	if workerID == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.workers[workerID]; exists {
		return
	}
	p.workers[workerID] = &domain.WorkerInfo{
		WorkerID: workerID,
		Status:   domain.WorkerStatusAvailable,
	}
}

// RemoveWorker удаляет воркера. Идемпотентен.
func (p *Pool) RemoveWorker(workerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.workers, workerID)
}

// GetAllWorkers возвращает снапшот всех известных воркеров,
// отсортированный по WorkerID.
func (p *Pool) GetAllWorkers() []domain.WorkerInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]domain.WorkerInfo, 0, len(p.workers))
	for _, w := range p.workers {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].WorkerID < out[j].WorkerID
	})
	return out
}

// GetAvailableWorker возвращает наименее загруженного доступного
// воркера, поддерживающего requiredCapability (если она задана).
// Воркеры с CurrentLoad ≥ MaxConcurrent (при заданном MaxConcurrent)
// не рассматриваются. Возвращает nil, если никто не подошёл.
func (p *Pool) GetAvailableWorker(requiredCapability string) *domain.WorkerInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var best *domain.WorkerInfo
	for _, w := range p.workers {
		if !w.IsAvailable() {
			continue
		}
		if w.Capabilities.MaxConcurrent > 0 && w.CurrentLoad >= w.Capabilities.MaxConcurrent {
			continue
		}
		if requiredCapability != "" && !w.Capabilities.Supports(requiredCapability) {
			continue
		}
		if best == nil ||
			w.CurrentLoad < best.CurrentLoad ||
			(w.CurrentLoad == best.CurrentLoad && w.WorkerID < best.WorkerID) {
			best = w
		}
	}

	if best == nil {
		return nil
	}
	snapshot := *best
	return &snapshot
}

// SetCapabilities обновляет заявленные возможности воркера.
// Неизвестный воркер игнорируется.
func (p *Pool) SetCapabilities(workerID string, caps domain.WorkerCapabilities) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.workers[workerID]; ok {
		w.Capabilities = caps
	}
}

// SetStatus обновляет статус воркера. Неизвестный воркер игнорируется.
func (p *Pool) SetStatus(workerID string, status domain.WorkerStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.workers[workerID]; ok {
		w.Status = status
	}
}

// SetWorkerType обновляет тип воркера. Неизвестный воркер игнорируется.
func (p *Pool) SetWorkerType(workerID, workerType string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.workers[workerID]; ok {
		w.WorkerType = workerType
	}
}

// AddLoad увеличивает счётчик items в работе у воркера.
func (p *Pool) AddLoad(workerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.workers[workerID]; ok {
		w.CurrentLoad++
	}
}

// ReleaseLoad уменьшает счётчик items в работе у воркера.
// Ниже нуля не опускается.
func (p *Pool) ReleaseLoad(workerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.workers[workerID]; ok && w.CurrentLoad > 0 {
		w.CurrentLoad--
	}
}

// AvailableCount возвращает количество воркеров в статусе AVAILABLE.
func (p *Pool) AvailableCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	count := 0
	for _, w := range p.workers {
		if w.IsAvailable() {
			count++
		}
	}
	return count
}
