package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/afterschool/sessions-api/internal/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("record not found")

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func newBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Store groups every repository over a single connection or transaction.
// Repository methods are promoted, so a *Store satisfies the narrow store
// interfaces services depend on.
type Store struct {
	*LocationRepository
	*BlockRepository
	*ExclusionRepository
	*SessionRepository
	*OccurrenceRepository
	*StaffRepository
	*SignupRepository
}

// NewStore builds a Store over db
func NewStore(db DBTX) *Store {
	return &Store{
		LocationRepository:   NewLocationRepository(db),
		BlockRepository:      NewBlockRepository(db),
		ExclusionRepository:  NewExclusionRepository(db),
		SessionRepository:    NewSessionRepository(db),
		OccurrenceRepository: NewOccurrenceRepository(db),
		StaffRepository:      NewStaffRepository(db),
		SignupRepository:     NewSignupRepository(db),
	}
}

// TxManager runs units of work inside a database transaction
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a TxManager over pool
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// InTx runs fn with a Store bound to a new transaction. The transaction commits
// when fn returns nil and rolls back otherwise.
func (m *TxManager) InTx(ctx context.Context, fn func(ctx context.Context, store *Store) error) error {
	return db.WithTransaction(ctx, m.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, NewStore(tx))
	})
}

// Repositories holds the pool-backed store and the transaction manager
type Repositories struct {
	*Store
	Tx *TxManager
}

// NewRepositories initializes all repositories
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Store: NewStore(pool),
		Tx:    NewTxManager(pool),
	}
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}
