// Package retry оборачивает ненадёжные операции в bounded retry
// с exponential backoff.
//
// Повторяются только ошибки, которые предикат счёл transient
// (по умолчанию — сетевые и timeout-класса). Непереповторяемая
// ошибка и исчерпание попыток отдают вызывающей стороне последнюю
// ошибку без изменений. Всего попыток при постоянной ошибке —
// MaxRetries + 1.
package retry

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/shaiso/Dispatch/internal/telemetry"
)

// Значения по умолчанию.
const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = time.Second
	DefaultMaxDelay     = 30 * time.Second
)

// Operation — оборачиваемая операция.
type Operation func(ctx context.Context) error

// RetryableFunc — предикат: стоит ли повторять после этой ошибки.
type RetryableFunc func(err error) bool

// Policy — политика повторных попыток.
//
// Нулевое значение непригодно — создавайте через New.
type Policy struct {
	// MaxRetries — количество повторов после первой попытки.
	MaxRetries int

	// InitialDelay — задержка перед первым повтором.
	InitialDelay time.Duration

	// MaxDelay — потолок задержки при exponential backoff.
	MaxDelay time.Duration

	// UseExponentialBackoff — удваивать ли задержку с каждым повтором.
	// Если false, каждая пауза равна InitialDelay.
	UseExponentialBackoff bool

	// Retryable — предикат transient-ошибок.
	Retryable RetryableFunc

	metrics *telemetry.Metrics
}

// Option настраивает Policy.
type Option func(*Policy)

// WithMaxRetries задаёт количество повторов.
func WithMaxRetries(n int) Option {
	return func(p *Policy) { p.MaxRetries = n }
}

// WithInitialDelay задаёт стартовую задержку.
func WithInitialDelay(d time.Duration) Option {
	return func(p *Policy) { p.InitialDelay = d }
}

// WithMaxDelay задаёт потолок задержки.
func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) { p.MaxDelay = d }
}

// WithoutBackoff отключает exponential backoff (плоские паузы).
func WithoutBackoff() Option {
	return func(p *Policy) { p.UseExponentialBackoff = false }
}

// WithRetryable задаёт предикат transient-ошибок.
func WithRetryable(fn RetryableFunc) Option {
	return func(p *Policy) { p.Retryable = fn }
}

// WithMetrics задаёт sink для подсчёта повторов.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Policy) { p.metrics = m }
}

// New создаёт Policy с значениями по умолчанию:
// 3 повтора, 1s → 30s exponential backoff, retry только на
// сетевых/timeout ошибках.
func New(opts ...Option) *Policy {
	p := &Policy{
		MaxRetries:            DefaultMaxRetries,
		InitialDelay:          DefaultInitialDelay,
		MaxDelay:              DefaultMaxDelay,
		UseExponentialBackoff: true,
		Retryable:             IsTransient,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// Execute выполняет операцию с повторами.
//
// Порядок: попытка; при retryable-ошибке и оставшихся попытках —
// пауза min(InitialDelay × 2^(attempt−1), MaxDelay), затем повтор.
// Пауза прерывается отменой контекста (возвращается ctx.Err()).
func (p *Policy) Execute(ctx context.Context, op Operation) error {
	var lastErr error

	for attempt := 1; ; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt > p.MaxRetries || !p.Retryable(lastErr) {
			return lastErr
		}

		select {
		case <-time.After(p.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}

		p.metrics.RetryAttempt()
	}
}

// backoff вычисляет паузу перед повтором номер attempt+1.
func (p *Policy) backoff(attempt int) time.Duration {
	if !p.UseExponentialBackoff {
		return p.InitialDelay
	}

	delay := p.InitialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// IsTransient — предикат по умолчанию: сетевые и timeout-ошибки.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Отказ соединения / разрыв — инфраструктура, не логика
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}
