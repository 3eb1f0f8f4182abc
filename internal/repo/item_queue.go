package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Dispatch/internal/domain"
	"github.com/shaiso/Dispatch/internal/queue"
	"github.com/shaiso/Dispatch/internal/telemetry"
)

// ItemQueue — SQL-реализация queue.Queue поверх Postgres.
//
// Атомарность claim обеспечивается протоколом FOR UPDATE SKIP LOCKED:
// конкурентные Dequeue (в том числе из разных процессов) не блокируются
// на голове очереди, а пропускают уже залоченные строки и забирают
// каждый свою. Tie-break при равном priority — колонка seq (BIGSERIAL),
// которую назначает сама БД: монотонный порядок постановки не зависит
// от часов клиентских процессов.
type ItemQueue struct {
	pool    *pgxpool.Pool
	metrics *telemetry.Metrics

	// Ленивая идемпотентная инициализация схемы. Не sync.Once:
	// неудачная попытка должна повторяться при следующем вызове.
	schemaMu    sync.Mutex
	schemaReady bool
}

// NewItemQueue создаёт очередь поверх пула соединений.
// metrics может быть nil.
func NewItemQueue(pool *pgxpool.Pool, metrics *telemetry.Metrics) *ItemQueue {
	return &ItemQueue{pool: pool, metrics: metrics}
}

// ddl — схема очереди. Выполняется лениво при первом обращении,
// каждый стейтмент идемпотентен.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS work_items (
		id                  TEXT PRIMARY KEY,
		seq                 BIGSERIAL,
		type                TEXT NOT NULL DEFAULT '',
		input               JSONB,
		required_capability TEXT NOT NULL DEFAULT '',
		preferred_worker_id TEXT NOT NULL DEFAULT '',
		priority            INT NOT NULL DEFAULT 0,
		timeout_ms          BIGINT,
		metadata            JSONB,
		status              TEXT NOT NULL DEFAULT 'PENDING',
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		assigned_at         TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS work_items_status_idx ON work_items (status)`,
	`CREATE INDEX IF NOT EXISTS work_items_claim_idx ON work_items (priority DESC, seq ASC) WHERE status = 'PENDING'`,
	`CREATE INDEX IF NOT EXISTS work_items_type_idx ON work_items (type)`,
	`CREATE INDEX IF NOT EXISTS work_items_preferred_idx ON work_items (preferred_worker_id) WHERE preferred_worker_id <> ''`,
}

// ensureSchema создаёт таблицу и индексы, если их ещё нет.
func (r *ItemQueue) ensureSchema(ctx context.Context) error {
	r.schemaMu.Lock()
	defer r.schemaMu.Unlock()

	if r.schemaReady {
		return nil
	}

	for _, stmt := range ddl {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	r.schemaReady = true
	return nil
}

// Enqueue ставит item в очередь в статусе PENDING.
func (r *ItemQueue) Enqueue(ctx context.Context, item *domain.WorkItem) error {
	if item == nil {
		return queue.ErrNilItem
	}
	if err := r.ensureSchema(ctx); err != nil {
		return err
	}

	item.EnsureID()

	inputJSON, err := json.Marshal(item.Input)
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}
	metadataJSON, err := json.Marshal(item.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	var timeoutMs *int64
	if item.Timeout > 0 {
		ms := item.Timeout.Milliseconds()
		timeoutMs = &ms
	}

	query := `
		INSERT INTO work_items (id, type, input, required_capability, preferred_worker_id, priority, timeout_ms, metadata, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'PENDING')
		RETURNING created_at
	`
	err = r.pool.QueryRow(ctx, query,
		item.ID,
		item.Type,
		inputJSON,
		item.RequiredCapability,
		item.PreferredWorkerID,
		item.Priority,
		timeoutMs,
		metadataJSON,
	).Scan(&item.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", queue.ErrDuplicateID, item.ID)
		}
		return fmt.Errorf("insert work item: %w", err)
	}

	r.metrics.ItemEnqueued(item.Type)
	return nil
}

// Dequeue атомарно забирает следующий подходящий item.
//
// SELECT внутри UPDATE пропускает строки, уже залоченные конкурентным
// claim'ом (SKIP LOCKED), поэтому вызов либо получает отличную от
// других запись, либо (nil, nil). Отмена контекста до коммита
// откатывает транзакцию целиком — частично занятых записей не бывает.
func (r *ItemQueue) Dequeue(ctx context.Context, workerID string) (*domain.WorkItem, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}

	query := `
		UPDATE work_items
		SET status = 'ASSIGNED', assigned_at = now()
		WHERE id = (
			SELECT id FROM work_items
			WHERE status = 'PENDING'
			  AND (preferred_worker_id = '' OR preferred_worker_id = $1)
			ORDER BY priority DESC, seq ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, type, input, required_capability, preferred_worker_id, priority, timeout_ms, metadata, created_at
	`
	item, err := scanItem(r.pool.QueryRow(ctx, query, workerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim work item: %w", err)
	}

	r.metrics.ItemDequeued(item.Type)
	return item, nil
}

// Peek возвращает следующий незакреплённый PENDING item без мутации.
func (r *ItemQueue) Peek(ctx context.Context) (*domain.WorkItem, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, type, input, required_capability, preferred_worker_id, priority, timeout_ms, metadata, created_at
		FROM work_items
		WHERE status = 'PENDING' AND preferred_worker_id = ''
		ORDER BY priority DESC, seq ASC
		LIMIT 1
	`
	item, err := scanItem(r.pool.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("peek work item: %w", err)
	}
	return item, nil
}

// PendingCount возвращает количество PENDING записей.
func (r *ItemQueue) PendingCount(ctx context.Context) (int, error) {
	if err := r.ensureSchema(ctx); err != nil {
		return 0, err
	}

	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM work_items WHERE status = 'PENDING'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending items: %w", err)
	}
	return count, nil
}

// scanItem читает WorkItem из строки выборки.
func scanItem(row pgx.Row) (*domain.WorkItem, error) {
	var item domain.WorkItem
	var inputJSON, metadataJSON []byte
	var timeoutMs *int64

	err := row.Scan(
		&item.ID,
		&item.Type,
		&inputJSON,
		&item.RequiredCapability,
		&item.PreferredWorkerID,
		&item.Priority,
		&timeoutMs,
		&metadataJSON,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if inputJSON != nil {
		if err := json.Unmarshal(inputJSON, &item.Input); err != nil {
			return nil, fmt.Errorf("unmarshal input: %w", err)
		}
	}
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &item.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if timeoutMs != nil {
		item.Timeout = time.Duration(*timeoutMs) * time.Millisecond
	}

	return &item, nil
}
