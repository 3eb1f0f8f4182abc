// Dispatch Coordinator — распределяет work items по воркерам.
//
// Coordinator:
//   - Получает события item.enqueued из RabbitMQ
//   - Периодически опрашивает очередь в Postgres (polling fallback)
//   - Выбирает воркера настроенным роутером (tree, llm, swarm)
//   - Публикует события item.assigned
//
// Координаторы масштабируются горизонтально: claim атомарный.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Dispatch/internal/coordinator"
	"github.com/shaiso/Dispatch/internal/domain"
	"github.com/shaiso/Dispatch/internal/monitor"
	"github.com/shaiso/Dispatch/internal/mq"
	"github.com/shaiso/Dispatch/internal/pool"
	"github.com/shaiso/Dispatch/internal/repo"
	"github.com/shaiso/Dispatch/internal/retry"
	"github.com/shaiso/Dispatch/internal/router"
	"github.com/shaiso/Dispatch/internal/swarm"
	"github.com/shaiso/Dispatch/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting dispatch-coordinator")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Метрики
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(registry)

	// DB pool
	dbPool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("database connected")

	itemQueue := repo.NewItemQueue(dbPool, metrics)

	// Реестр воркеров и swarm-координатор
	workerPool := pool.New()
	swarmCoord := swarm.NewCoordinator(workerPool, swarm.Config{}, logger, metrics)
	seedWorkers(workerPool, swarmCoord, os.Getenv("WORKERS"))

	// RabbitMQ
	var publisher *mq.Publisher
	var mqConn *mq.Connection
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err = mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		// Создаём топологию
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// Роутер
	rt, err := buildRouter(workerPool, swarmCoord, logger, metrics)
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	// Создаём сервис
	svc := coordinator.New(coordinator.Config{
		Queue:     itemQueue,
		Pool:      workerPool,
		Router:    rt,
		Swarm:     swarmCoord,
		Publisher:   publisher,
		Conn:        mqConn,
		RetryPolicy: retry.New(retry.WithMetrics(metrics)),
		Logger:      logger,
	})

	if err := svc.Start(ctx); err != nil {
		logger.Error("failed to start coordinator", "error", err)
		os.Exit(1)
	}

	// Сэмплер показателей очереди и реестра
	sampler := monitor.New(monitor.Config{
		Queue:   itemQueue,
		Pool:    workerPool,
		Metrics: metrics,
		Logger:  logger,
	})
	if err := sampler.Start(ctx); err != nil {
		logger.Error("failed to start monitor", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	port := ":8082"
	if v := os.Getenv("COORDINATOR_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	sampler.Stop()
	svc.Stop()
	logger.Info("dispatch-coordinator stopped")
}

// seedWorkers регистрирует воркеров из переменной WORKERS.
//
// Формат: "w1=search|translate,w2=search,w3" — воркеры через запятую,
// возможности через '|' после '='.
func seedWorkers(p *pool.Pool, c *swarm.Coordinator, spec string) {
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		id, caps, _ := strings.Cut(entry, "=")
		p.AddWorker(id)
		c.AddAgent(id)

		if caps != "" {
			p.SetCapabilities(id, domain.WorkerCapabilities{
				SupportedCapabilities: strings.Split(caps, "|"),
			})
		}
	}
}

// buildRouter собирает роутер по ROUTER_STRATEGY (tree, llm, swarm).
func buildRouter(p *pool.Pool, c *swarm.Coordinator, logger *slog.Logger, metrics *telemetry.Metrics) (router.Router, error) {
	strategy := strings.ToLower(os.Getenv("ROUTER_STRATEGY"))
	switch strategy {
	case "", "tree":
		return router.NewDecisionTree(p, router.DecisionTreeConfig{Logger: logger, Metrics: metrics}), nil

	case "llm":
		url := os.Getenv("LLM_COMPLETION_URL")
		if url == "" {
			return nil, fmt.Errorf("ROUTER_STRATEGY=llm requires LLM_COMPLETION_URL")
		}
		return router.NewLLM(httpComplete(url), logger, metrics), nil

	case "swarm":
		return router.NewSwarm(c, "", logger, metrics), nil

	default:
		return nil, fmt.Errorf("unknown ROUTER_STRATEGY %q", strategy)
	}
}

// httpComplete — completion-функция поверх простого text-in/text-out
// HTTP-эндпойнта.
func httpComplete(url string) router.CompleteFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(prompt))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "text/plain")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("completion endpoint returned %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}
}
