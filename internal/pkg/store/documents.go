package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/ougirez/boptest/internal/domain"
	"github.com/ougirez/boptest/internal/pkg/constants"
	"github.com/ougirez/boptest/internal/pkg/store/xpgx"
)

var documentColumns = []string{"doc_id::text AS doc_id", "collection", "numeric_id", "data", "created_at", "updated_at"}

var returningDocument = "RETURNING " + strings.Join(documentColumns, ", ")

type documentRow struct {
	DocID      string    `db:"doc_id"`
	Collection string    `db:"collection"`
	NumericID  int64     `db:"numeric_id"`
	Data       []byte    `db:"data"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func decodeDocument[T any](row *documentRow) (*domain.Document[T], error) {
	doc := &domain.Document[T]{
		DocID:      row.DocID,
		Collection: row.Collection,
		NumericID:  row.NumericID,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if err := sonic.Unmarshal(row.Data, &doc.Data); err != nil {
		return nil, fmt.Errorf("decode %s document %s: %w", row.Collection, row.DocID, err)
	}
	return doc, nil
}

func decodeDocuments[T any](rows []*documentRow) ([]*domain.Document[T], error) {
	docs := make([]*domain.Document[T], 0, len(rows))
	for _, row := range rows {
		doc, err := decodeDocument[T](row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func jsonbValue(data any) (sq.Sqlizer, error) {
	raw, err := sonic.MarshalString(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return sq.Expr("?::jsonb", raw), nil
}

func selectDocuments(collection string) sq.SelectBuilder {
	return builder().Select(documentColumns...).
		From(tableDocuments).
		Where(sq.Eq{"collection": collection})
}

func getDocument[T any](ctx context.Context, q xpgx.Queryxer, query sq.Sqlizer) (*domain.Document[T], error) {
	row, err := xpgx.Getx[documentRow](ctx, q, query)
	if err != nil {
		return nil, wrapErr(err)
	}
	return decodeDocument[T](row)
}

func selectDocumentsx[T any](ctx context.Context, q xpgx.Queryxer, query sq.Sqlizer) ([]*domain.Document[T], error) {
	rows, err := xpgx.Selectx[documentRow](ctx, q, query)
	if err != nil {
		return nil, wrapErr(err)
	}
	return decodeDocuments[T](rows)
}

// insertDocument stores data under a fresh doc id. suffix goes between the
// VALUES list and RETURNING, e.g. an ON CONFLICT clause.
func insertDocument[T any](ctx context.Context, q xpgx.Queryxer, collection string, data T, suffix string) (*domain.Document[T], error) {
	value, err := jsonbValue(data)
	if err != nil {
		return nil, err
	}

	query := builder().Insert(tableDocuments).
		Columns("doc_id", "collection", "data").
		Values(uuid.NewString(), collection, value).
		Suffix(strings.TrimSpace(suffix + " " + returningDocument))

	return getDocument[T](ctx, q, query)
}

func replaceDocument[T any](ctx context.Context, q xpgx.Queryxer, collection, docID string, data T) (*domain.Document[T], error) {
	value, err := jsonbValue(data)
	if err != nil {
		return nil, err
	}

	query := builder().Update(tableDocuments).
		Set("data", value).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"doc_id": docID, "collection": collection}).
		Suffix(returningDocument)

	return getDocument[T](ctx, q, query)
}

func deleteDocument(ctx context.Context, q xpgx.Queryxer, collection, docID string) error {
	query := builder().Delete(tableDocuments).
		Where(sq.Eq{"doc_id": docID, "collection": collection})

	tag, err := q.Execx(ctx, query)
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete %s/%s: %w", collection, docID, constants.ErrDBNotFound)
	}
	return nil
}

// fieldEq matches a top-level text field of the payload. field is inlined so
// the expression indexes on (data ->> 'field') apply.
func fieldEq(field string, value any) sq.Sqlizer {
	return sq.Expr(fmt.Sprintf("data ->> '%s' = ?", field), fmt.Sprint(value))
}
