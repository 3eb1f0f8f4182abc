package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Dispatch/internal/mq"
	"github.com/shaiso/Dispatch/internal/pool"
	"github.com/shaiso/Dispatch/internal/queue"
	"github.com/shaiso/Dispatch/internal/retry"
	"github.com/shaiso/Dispatch/internal/router"
	"github.com/shaiso/Dispatch/internal/swarm"
)

// Default configuration values.
const (
	defaultPollInterval = 10 * time.Second
	defaultBatchSize    = 50
	defaultPrefetch     = 5
)

// Service — сервис распределения items по воркерам.
//
// Несколько экземпляров могут работать над одной очередью: claim
// атомарный, дубликатов назначений не возникает.
type Service struct {
	queue  queue.Queue
	pool   *pool.Pool
	router router.Router
	swarm  *swarm.Coordinator

	// MQ (опционально; без него — polling-only)
	publisher *mq.Publisher
	conn      *mq.Connection
	consumer  *mq.Consumer

	retryPolicy *retry.Policy

	// Configuration
	pollInterval time.Duration
	batchSize    int

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Service.
type Config struct {
	Queue  queue.Queue
	Pool   *pool.Pool
	Router router.Router

	// Swarm — координатор swarm; нужен для учёта завершений
	// (опционально).
	Swarm *swarm.Coordinator

	// MQ (опционально)
	Publisher *mq.Publisher
	Conn      *mq.Connection

	// RetryPolicy — политика повторов публикации items.assigned
	// (опционально; если nil — используется retry.New()).
	RetryPolicy *retry.Policy

	// Polling configuration
	PollInterval time.Duration // интервал polling (default: 10s)
	BatchSize    int           // количество items за один poll (default: 50)

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Service.
func New(cfg Config) *Service {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	retryPolicy := cfg.RetryPolicy
	if retryPolicy == nil {
		retryPolicy = retry.New()
	}

	return &Service{
		queue:        cfg.Queue,
		pool:         cfg.Pool,
		router:       cfg.Router,
		swarm:        cfg.Swarm,
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		retryPolicy:  retryPolicy,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		logger:       logger,
	}
}

// Start запускает Service.
//
// Запускает:
//   - Consumer для items.enqueued (если есть соединение с MQ)
//   - Polling горутину для fallback
func (s *Service) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	s.logger.Info("starting coordinator",
		"poll_interval", s.pollInterval,
		"batch_size", s.batchSize,
		"event_driven", s.conn != nil,
	)

	if s.conn != nil {
		s.consumer = mq.NewConsumer(s.conn, s.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueItemsEnqueued),
			Handler:  s.handleItemEnqueued,
			Prefetch: defaultPrefetch,
		})

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("item consumer error", "error", err)
			}
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.pollLoop(ctx)
	}()

	s.logger.Info("coordinator started")
	return nil
}

// Stop останавливает Service.
func (s *Service) Stop() {
	s.stoppedMu.Lock()
	s.stopped = true
	s.stoppedMu.Unlock()

	s.logger.Info("stopping coordinator...")

	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	if s.consumer != nil {
		s.consumer.Stop()
	}

	// Ждём завершения горутин
	s.wg.Wait()

	s.logger.Info("coordinator stopped")
}

// IsStopped проверяет, остановлен ли Service.
func (s *Service) IsStopped() bool {
	s.stoppedMu.RLock()
	defer s.stoppedMu.RUnlock()
	return s.stopped
}

// pollLoop — цикл polling для fallback.
func (s *Service) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу при старте (подхватываем items, поставленные
	// пока координатор был выключен)
	s.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

// poll распределяет до batchSize items за один цикл.
func (s *Service) poll(ctx context.Context) {
	for i := 0; i < s.batchSize; i++ {
		dispatched, err := s.dispatchNext(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Error("dispatch failed", "error", err)
			}
			return
		}
		if !dispatched {
			// Очередь пуста или подходящего воркера нет —
			// дожидаемся следующего тика
			return
		}
	}
}
