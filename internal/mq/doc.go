// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - item.enqueued — work item поставлен в очередь
//   - item.assigned — work item назначен воркеру
//
// Exchanges:
//   - dispatch.items — события жизненного цикла work items
//   - dispatch.dlq   — dead letter queue
package mq
