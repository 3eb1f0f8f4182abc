// Package monitor периодически снимает показатели очереди и реестра
// воркеров и публикует их как Prometheus-гейджи.
//
// Сэмплер работает по расписанию robfig/cron ("@every <interval>");
// каждый тик читает PendingCount очереди и AvailableCount реестра.
// Ошибки чтения логируются и не останавливают расписание.
package monitor
