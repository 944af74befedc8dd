package dbmetrics

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// QueryObserver получатель метрик SQL запросов
type QueryObserver interface {
	ObserveQuery(operation string, duration time.Duration, err error)
}

// StatsObserver получатель метрик пула соединений
type StatsObserver interface {
	SetDBStats(open, inUse, idle int)
}

// DB обёртка над *sql.DB, замеряющая длительность запросов
type DB struct {
	*sql.DB
	observer QueryObserver
}

// Wrap оборачивает *sql.DB. observer может быть nil
func Wrap(db *sql.DB, observer QueryObserver) *DB {
	return &DB{DB: db, observer: observer}
}

// Observer полный набор метрик, который умеет принимать WrapWithDefault
type Observer interface {
	QueryObserver
	StatsObserver
}

// WrapWithDefault оборачивает db и запускает сбор статистики пула раз в 15 секунд
// Сбор останавливается закрытием stopCh
func WrapWithDefault(db *sql.DB, observer Observer, stopCh <-chan struct{}) *DB {
	go CollectStats(db, observer, 15*time.Second, stopCh)
	return Wrap(db, observer)
}

// CollectStats периодически публикует sql.DBStats до закрытия stopCh
func CollectStats(db *sql.DB, observer StatsObserver, interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		stats := db.Stats()
		observer.SetDBStats(stats.OpenConnections, stats.InUse, stats.Idle)

		select {
		case <-ticker.C:
		case <-stopCh:
			return
		}
	}
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := db.DB.ExecContext(ctx, query, args...)
	db.observe(query, start, err)
	return res, err
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := db.DB.QueryContext(ctx, query, args...)
	db.observe(query, start, err)
	return rows, err
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := db.DB.QueryRowContext(ctx, query, args...)
	db.observe(query, start, row.Err())
	return row
}

// BeginTx начинает транзакцию
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := db.DB.BeginTx(ctx, opts)
	db.observe("begin", start, err)
	return tx, err
}

func (db *DB) observe(query string, start time.Time, err error) {
	if db.observer == nil {
		return
	}
	if err == sql.ErrNoRows {
		err = nil
	}
	db.observer.ObserveQuery(Operation(query), time.Since(start), err)
}

// Operation возвращает первое ключевое слово запроса в нижнем регистре
func Operation(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}
