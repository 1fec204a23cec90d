package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("database: record not found")

type txKey struct{}

// Store runs ent sql builders against the driver, or against the
// transaction bound to the context by InTx.
type Store struct {
	drv *entsql.Driver
}

func NewStore(drv *entsql.Driver) *Store {
	return &Store{drv: drv}
}

// Builder returns a statement builder for the store's dialect.
func (s *Store) Builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.drv.Dialect())
}

func (s *Store) Dialect() string {
	return s.drv.Dialect()
}

func (s *Store) conn(ctx context.Context) dialect.ExecQuerier {
	if tx, ok := ctx.Value(txKey{}).(dialect.Tx); ok {
		return tx
	}
	return s.drv
}

func (s *Store) Exec(ctx context.Context, q entsql.Querier) (sql.Result, error) {
	query, args := q.Query()
	var res sql.Result
	if err := s.conn(ctx).Exec(ctx, query, args, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Insert executes an insert and returns the generated primary key.
func (s *Store) Insert(ctx context.Context, q *entsql.InsertBuilder) (int64, error) {
	res, err := s.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Affected executes q and returns the number of affected rows.
func (s *Store) Affected(ctx context.Context, q entsql.Querier) (int64, error) {
	res, err := s.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Query runs q and calls scan once per row.
func (s *Store) Query(ctx context.Context, q entsql.Querier, scan func(rows *entsql.Rows) error) error {
	query, args := q.Query()
	rows := &entsql.Rows{}
	if err := s.conn(ctx).Query(ctx, query, args, rows); err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// QueryOne is Query for a single row, returning ErrNotFound when empty.
func (s *Store) QueryOne(ctx context.Context, q entsql.Querier, scan func(rows *entsql.Rows) error) error {
	found := false
	err := s.Query(ctx, q, func(rows *entsql.Rows) error {
		if found {
			return nil
		}
		found = true
		return scan(rows)
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Count(ctx context.Context, q entsql.Querier) (int, error) {
	var n int
	err := s.QueryOne(ctx, q, func(rows *entsql.Rows) error {
		return rows.Scan(&n)
	})
	return n, err
}

func (s *Store) Exists(ctx context.Context, q entsql.Querier) (bool, error) {
	n, err := s.Count(ctx, q)
	return n > 0, err
}

// InTx runs fn inside a transaction. Nested calls join the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(dialect.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: rolling back transaction: %v", err, rerr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func IsUniqueViolation(err error) bool {
	return sqlgraph.IsUniqueConstraintError(err)
}

// Args converts a typed slice into builder arguments.
func Args[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
