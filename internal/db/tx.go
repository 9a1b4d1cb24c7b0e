package db

import (
	"database/sql"
	"errors"
)

// MakeTx is a function that creates a db transaction
type MakeTx = func() (tx *Queries, discard, commit func() error, err error)

func NewMakeTx(dbtx *sql.DB) MakeTx {
	return func() (tx *Queries, discard, commit func() error, err error) {
		sqltx, err := dbtx.Begin()
		if err != nil {
			return nil, nil, nil, err
		}
		txqry := New(sqltx)
		return txqry,
			func() error {
				err := sqltx.Rollback()
				if errors.Is(err, sql.ErrTxDone) {
					return nil
				}
				return err
			},
			func() error {
				return sqltx.Commit()
			},
			nil
	}
}

// RunTx runs fn inside a transaction, committing only when fn succeeds.
func RunTx(makeTx MakeTx, fn func(tx *Queries) error) error {
	tx, discard, commit, err := makeTx()
	if err != nil {
		return err
	}
	defer discard()

	err = fn(tx)
	if err != nil {
		return err
	}
	return commit()
}
