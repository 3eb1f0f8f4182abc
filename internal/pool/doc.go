// Package pool реализует реестр воркеров.
//
// Pool отслеживает известных воркеров, их возможности и текущую
// загрузку, и отвечает на вопрос "какой воркер сейчас лучший" —
// наименее загруженный из доступных, с учётом требуемой возможности.
//
// Состояние процессное, под одним RWMutex. Снапшоты (GetAllWorkers,
// GetAvailableWorker) возвращают копии — мутация снапшота не влияет
// на реестр. Tie-break при равной загрузке детерминирован: среди
// равных побеждает лексикографически меньший WorkerID, чтобы
// результат для фиксированного снапшота был воспроизводим.
package pool
