// Package cli реализует инструмент командной строки Dispatch.
//
// # Обзор
//
// CLI — операторская утилита для работы с очередью work items.
// Подключается напрямую к Postgres (общее хранилище очереди) и,
// опционально, к RabbitMQ для публикации событий item.enqueued.
//
// # Ключевые компоненты
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: dispatch item peek --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - item: enqueue, peek, pending
//
// Группа создаётся через фабричную функцию (NewItemCmd), принимающую
// queueFn, publisherFn и outputFn — замыкания для ленивого создания
// зависимостей после парсинга PersistentFlags.
package cli
