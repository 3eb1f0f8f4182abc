// Package router реализует семейство стратегий маршрутизации
// work items по воркерам.
//
// # Обзор
//
// Роутер получает item и снапшот воркеров и выбирает ноль или одного
// воркера. Три взаимозаменяемые реализации за одним интерфейсом:
//
//   - DecisionTreeRouter — детерминированное дерево решений:
//     упорядоченные кандидаты-стратегии пробуются до первого успеха
//   - LLMRouter — решение принимает внешняя completion-функция;
//     её ответ валидируется, любой сбой деградирует в fallback
//   - SwarmRouter — делегирует swarm-координатору и берёт
//     лучшего из выбранного им множества
//
// # Деградация вместо ошибок
//
// Роутеры никогда не возвращают ошибку за "не смог уверенно решить":
// неудачный разбор ответа LLM, индекс вне диапазона, пустой снапшот —
// всё это даёт fallback-решение или "воркера нет" (Worker == nil).
// Ошибка возможна только на программную ошибку вызова (nil item).
package router
