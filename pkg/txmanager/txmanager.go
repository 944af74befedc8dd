package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/FrankX3M/wordstat-api/pkg/dbmetrics"
)

var (
	// ErrBeginTx ошибка начала транзакции
	ErrBeginTx = errors.New("txmanager: failed to begin transaction")

	// ErrCommitTx ошибка фиксации транзакции
	ErrCommitTx = errors.New("txmanager: failed to commit transaction")
)

// Beginner источник транзакций: *sql.DB или *dbmetrics.DB
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// TransactionManager выполняет функции в транзакции, передавая её через контекст
// Репозитории достают транзакцию через dbmetrics.GetExecutor
type TransactionManager struct {
	db Beginner
}

// NewTransactionManager создаёт новый менеджер транзакций
func NewTransactionManager(db Beginner) *TransactionManager {
	return &TransactionManager{db: db}
}

// Do выполняет fn в транзакции: commit при nil, rollback при ошибке или панике
//
//	err := tm.Do(ctx, func(ctx context.Context) error {
//	    if err := exports.MarkCompleted(ctx, id, result); err != nil {
//	        return err
//	    }
//	    return users.IncrementExports(ctx, userID)
//	})
func (tm *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return tm.DoWithOptions(ctx, nil, fn)
}

// DoWithOptions как Do, но с явными опциями транзакции
// Вложенный вызов переиспользует уже открытую транзакцию
func (tm *TransactionManager) DoWithOptions(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := tm.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBeginTx, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if fnErr := fn(dbmetrics.WithTx(ctx, tx)); fnErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction rollback failed: %w (original error: %v)", rbErr, fnErr)
		}
		return fnErr
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrCommitTx, err)
	}

	return nil
}
