// Package swarm реализует координатор распределения work items
// по рою воркеров.
//
// # Обзор
//
// Координатор ведёт обучаемое состояние по каждому участнику роя
// (successRate, счётчики tasks, recency) и распределяет items по
// четырём эвристикам:
//
//   - ParticleSwarm — top-3 по fitness = successRate × recencyBonus ×
//     capabilityBonus
//   - AntColony    — top-2 по "феромону" (successRate)
//   - Flocking     — крупнейшая группа воркеров с одинаковым набором
//     возможностей, максимум 3
//   - Consensus    — голосование по соответствию возможностей,
//     проходят голоса ≥ 70% от максимального, максимум 2
//
// В отличие от роутеров (internal/router), эвристики выбирают
// множество воркеров — для избыточного или параллельного выполнения.
//
// # Обучение
//
// RecordCompletion обновляет successRate воркера экспоненциальным
// скользящим средним (α = 0.1) и пишет длительность выполнения в
// ограниченное окно (1000 записей, старые вытесняются), из которого
// считаются avgCompletionTime и efficiencyScore.
//
// # Конкурентность
//
// Всё состояние роя — под одним мьютексом на экземпляр координатора.
// Обновления состояния одного воркера сериализованы; потерянных
// обновлений нет.
package swarm
