// Package coordinator реализует цикл распределения work items.
//
// Coordinator — связующий компонент системы, который:
//   - Получает события items.enqueued из RabbitMQ (event-driven)
//   - Периодически проверяет PENDING items в очереди (polling fallback)
//   - Выбирает воркера через настроенный Router
//   - Атомарно забирает item из очереди для выбранного воркера
//   - Публикует событие items.assigned
//
// Без RabbitMQ координатор работает в polling-only режиме: латентность
// назначения вырастает до poll interval, семантика не меняется.
//
// Использование:
//
//	svc := coordinator.New(coordinator.Config{
//	    Queue:     itemQueue,
//	    Pool:      workerPool,
//	    Router:    rt,
//	    Publisher: publisher, // опционально
//	    Conn:      conn,      // опционально
//	    Logger:    logger,
//	})
//
//	if err := svc.Start(ctx); err != nil { ... }
//	defer svc.Stop()
package coordinator
