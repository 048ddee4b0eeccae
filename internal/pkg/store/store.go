package store

import (
	"context"

	"github.com/ougirez/boptest/internal/pkg/store/xpgx"
)

type Pool = xpgx.Pool

type Store interface {
	FacetStore
	ResultStore
	Ping(ctx context.Context) error
}

type store struct {
	pool Pool
}

func NewStore(pool Pool) Store {
	return &store{pool}
}

func (s *store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
