// Package xpgx is a thin layer over pgxpool that accepts squirrel builders.
package xpgx

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ougirez/boptest/internal/pkg/logger"
)

type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queryxer runs squirrel builders.
type Queryxer interface {
	Execx(ctx context.Context, query sq.Sqlizer) (pgconn.CommandTag, error)
	Queryx(ctx context.Context, query sq.Sqlizer) (pgx.Rows, error)
}

type Tx interface {
	Querier
	Queryxer
}

type Pool interface {
	Querier
	Queryxer
	// InTx runs fn inside a transaction, committing on nil and rolling back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close()
}

type pool struct {
	*pgxpool.Pool
}

type tx struct {
	pgx.Tx
}

// Connect opens a pool and waits until the database answers a ping.
func Connect(ctx context.Context, dsn string, maxConns int32) (Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}

	err = backoff.Retry(
		func() error {
			pingErr := p.Ping(ctx)
			if pingErr != nil {
				logger.Warnf(ctx, "postgres is not ready yet: %s", pingErr.Error())
			}
			return pingErr
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 10),
			ctx,
		),
	)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &pool{p}, nil
}

func (p *pool) Execx(ctx context.Context, query sq.Sqlizer) (pgconn.CommandTag, error) {
	return execx(ctx, p.Pool, query)
}

func (p *pool) Queryx(ctx context.Context, query sq.Sqlizer) (pgx.Rows, error) {
	return queryx(ctx, p.Pool, query)
}

func (p *pool) InTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	pgxTx, err := p.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err == nil {
			return
		}
		// the caller's ctx may already be cancelled
		rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if rbErr := pgxTx.Rollback(rbCtx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.Errorf(ctx, "rollback: %s", rbErr.Error())
		}
	}()

	if err = fn(&tx{pgxTx}); err != nil {
		return err
	}

	if err = pgxTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (t *tx) Execx(ctx context.Context, query sq.Sqlizer) (pgconn.CommandTag, error) {
	return execx(ctx, t.Tx, query)
}

func (t *tx) Queryx(ctx context.Context, query sq.Sqlizer) (pgx.Rows, error) {
	return queryx(ctx, t.Tx, query)
}

func execx(ctx context.Context, q Querier, query sq.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("build sql: %w", err)
	}
	return q.Exec(ctx, sql, args...)
}

func queryx(ctx context.Context, q Querier, query sq.Sqlizer) (pgx.Rows, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql: %w", err)
	}
	return q.Query(ctx, sql, args...)
}

// Getx scans exactly one row into T by db tags. pgx.ErrNoRows when empty.
func Getx[T any](ctx context.Context, q Queryxer, query sq.Sqlizer) (*T, error) {
	rows, err := q.Queryx(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[T])
}

// Selectx scans all rows into T by db tags.
func Selectx[T any](ctx context.Context, q Queryxer, query sq.Sqlizer) ([]*T, error) {
	rows, err := q.Queryx(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[T])
}
