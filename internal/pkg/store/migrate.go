package store

import (
	"context"
	"fmt"

	"github.com/ougirez/boptest/internal/pkg/logger"
	"github.com/ougirez/boptest/internal/pkg/store/xpgx"
)

// arbitrary key, keeps parallel replicas from racing on DDL
const migrateLockKey = 7_311_042

var migrations = []string{
	`CREATE SEQUENCE IF NOT EXISTS ` + sequenceName,
	`CREATE TABLE IF NOT EXISTS ` + tableDocuments + ` (
		doc_id uuid PRIMARY KEY,
		collection text NOT NULL,
		numeric_id bigint NOT NULL DEFAULT nextval('` + sequenceName + `'),
		data jsonb NOT NULL,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS documents_collection_numeric_idx ON documents (collection, numeric_id)`,
	`CREATE INDEX IF NOT EXISTS documents_collection_idx ON documents (collection)`,
	`CREATE INDEX IF NOT EXISTS documents_data_gin_idx ON documents USING GIN (data)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS documents_result_facets_uid_idx
		ON documents ((data ->> 'buildingTypeUid')) WHERE collection = 'resultFacets'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS documents_results_uid_idx
		ON documents ((data ->> 'uid')) WHERE collection = 'results'`,
}

// Migrate creates the documents table and its indexes.
func Migrate(ctx context.Context, pool xpgx.Pool) error {
	err := pool.InTx(ctx, func(tx xpgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrateLockKey); err != nil {
			return fmt.Errorf("advisory lock: %w", err)
		}
		for i, stmt := range migrations {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("migration %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Infof(ctx, "applied %d schema statements", len(migrations))
	return nil
}
