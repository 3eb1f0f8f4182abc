package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Dispatch/internal/pool"
	"github.com/shaiso/Dispatch/internal/queue"
	"github.com/shaiso/Dispatch/internal/telemetry"
)

// DefaultInterval — период снятия показателей по умолчанию.
const DefaultInterval = 15 * time.Second

// Sampler снимает показатели очереди и реестра по расписанию.
type Sampler struct {
	queue    queue.Queue
	pool     *pool.Pool
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	interval time.Duration

	cron *cron.Cron
}

// Config — конфигурация Sampler.
type Config struct {
	Queue   queue.Queue
	Pool    *pool.Pool
	Metrics *telemetry.Metrics
	Logger  *slog.Logger

	// Interval — период снятия показателей (default: 15s).
	Interval time.Duration
}

// New создаёт сэмплер.
func New(cfg Config) *Sampler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		queue:    cfg.Queue,
		pool:     cfg.Pool,
		metrics:  cfg.Metrics,
		logger:   logger,
		interval: interval,
	}
}

// Start запускает расписание. Первый замер выполняется сразу.
func (s *Sampler) Start(ctx context.Context) error {
	s.sample(ctx)

	c := cron.New()
	_, err := c.AddFunc("@every "+s.interval.String(), func() {
		s.sample(ctx)
	})
	if err != nil {
		return err
	}

	s.cron = c
	c.Start()

	s.logger.Info("monitor started", "interval", s.interval)
	return nil
}

// Stop останавливает расписание и дожидается текущего замера.
func (s *Sampler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// sample снимает один замер.
func (s *Sampler) sample(ctx context.Context) {
	if s.queue != nil {
		pending, err := s.queue.PendingCount(ctx)
		if err != nil {
			s.logger.Warn("pending count failed", "error", err)
		} else {
			s.metrics.SetQueuePending(pending)
		}
	}

	if s.pool != nil {
		s.metrics.SetWorkersAvailable(s.pool.AvailableCount())
	}
}
