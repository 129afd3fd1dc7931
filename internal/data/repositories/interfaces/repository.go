// internal/data/repositories/interfaces/repository.go
package interfaces

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository is the common interface every repository embeds for
// transaction management, mirroring the teacher's base-repository
// convention.
type Repository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context, opts ...pgx.TxOptions) (pgx.Tx, error)

	// CommitTx commits an existing transaction.
	CommitTx(ctx context.Context, tx pgx.Tx) error

	// RollbackTx rolls back an existing transaction.
	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
