package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TxQuerier is satisfied by both *sqlx.DB and *sqlx.Tx. Repositories take it
// so the same repository can run on the pool or inside a transaction.
type TxQuerier interface {
	sqlx.ExtContext
}

// WithTx runs fn inside a transaction. A nil return commits; an error or a
// panic rolls back (the panic is re-raised after the rollback).
//
//	err := database.WithTx(ctx, db.Conn, func(tx *sqlx.Tx) error {
//	    serverRepo := repository.NewSQLServerRepo(tx)
//	    ...
//	})
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return
}
