package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx, so every repository
// can run either standalone or inside a transaction.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Manager hands out repositories bound to a Querier and owns the
// transactional boundary.
type Manager interface {
	DB() Querier
	RunInTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error
	Users(q Querier) UserRepository
	Branches(q Querier) BranchRepository
	Alumni(q Querier) AlumniRepository
}

type postgresManager struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewManager creates a Manager backed by db.
func NewManager(db *sqlx.DB, logger *zap.Logger) Manager {
	return &postgresManager{db: db, logger: logger}
}

func (m *postgresManager) DB() Querier {
	return m.db
}

// RunInTx executes fn inside a single transaction. Any error returned by fn,
// a panic, or a cancelled context rolls back every statement fn issued.
func (m *postgresManager) RunInTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) (err error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			m.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (m *postgresManager) Users(q Querier) UserRepository {
	return NewUserRepository(q, m.logger)
}

func (m *postgresManager) Branches(q Querier) BranchRepository {
	return NewBranchRepository(q, m.logger)
}

func (m *postgresManager) Alumni(q Querier) AlumniRepository {
	return NewAlumniRepository(q, m.logger)
}
