// Package queue определяет контракт очереди work items и её
// in-memory реализацию.
//
// # Контракт
//
//   - Enqueue — назначает порядок постановки и статус PENDING,
//     сохраняет запись.
//   - Dequeue — атомарно забирает одну PENDING запись в порядке
//     (priority DESC, порядок постановки ASC) с учётом фильтра по
//     preferred worker и переводит её в ASSIGNED.
//   - Peek — та же выборка, но без мутации.
//   - PendingCount — количество PENDING записей.
//
// # Корректность claim
//
// Центральное свойство всей подсистемы: два успешных Dequeue никогда
// не возвращают один и тот же item, и Dequeue никогда не "теряет"
// подходящий item. In-memory реализация обеспечивает это одним
// мьютексом вокруг шага select+mark; SQL-реализация (internal/repo) —
// протоколом FOR UPDATE SKIP LOCKED.
//
// Пустая очередь — нормальный исход: Dequeue и Peek возвращают
// (nil, nil), не ошибку.
package queue
