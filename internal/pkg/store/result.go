package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/bytedance/sonic"
	"github.com/ougirez/boptest/internal/domain"
)

// ResultQuery selects one page of results, newest first.
type ResultQuery struct {
	Filter     domain.ResultFilter
	AccountID  *int64
	SharedOnly bool
	// Cursor is the numeric id of the last row of the previous page.
	Cursor *int64
	Limit  int
}

type ResultPage struct {
	Documents  []*domain.Document[domain.ResultDocument]
	HasNext    bool
	NextCursor *int64
}

type ResultStore interface {
	CreateResult(ctx context.Context, result *domain.ResultDocument) (*domain.Document[domain.ResultDocument], error)
	QueryResults(ctx context.Context, query ResultQuery) (*ResultPage, error)
	FindResultByID(ctx context.Context, id int64) (*domain.Document[domain.ResultDocument], error)
	FindResultByUID(ctx context.Context, uid string) (*domain.Document[domain.ResultDocument], error)
	FindResultsByScenario(ctx context.Context, scenario map[string]any) ([]*domain.Document[domain.ResultDocument], error)
	ReplaceResult(ctx context.Context, doc *domain.Document[domain.ResultDocument]) (*domain.Document[domain.ResultDocument], error)
	DeleteResult(ctx context.Context, docID string) error
}

// numeric payload fields a range filter can target
var kpiFields = map[string]string{
	"cost":              "cost",
	"energy":            "energyUse",
	"thermalDiscomfort": "thermalDiscomfort",
	"aqDiscomfort":      "iaq",
	"emissions":         "emissions",
}

func (s *store) CreateResult(ctx context.Context, result *domain.ResultDocument) (*domain.Document[domain.ResultDocument], error) {
	doc, err := insertDocument(ctx, s.pool, domain.CollectionResults, *result, "")
	if err != nil {
		return nil, fmt.Errorf("insert result %s: %w", result.UID, err)
	}
	return doc, nil
}

func kpiRange(field string, min, max *float64) sq.Sqlizer {
	column := fmt.Sprintf("(data ->> '%s')::float8", kpiFields[field])
	and := sq.And{}
	if min != nil {
		and = append(and, sq.Expr(column+" >= ?", *min))
	}
	if max != nil {
		and = append(and, sq.Expr(column+" <= ?", *max))
	}
	return and
}

// scenarioMatch mirrors domain.ScenarioValueMatches: a scalar matches by its
// text, a list by any of its elements.
func scenarioMatch(key, value string) sq.Sqlizer {
	return sq.Expr(`(data -> 'scenario' ->> ? = ? OR EXISTS (
		SELECT 1 FROM jsonb_array_elements_text(
			CASE WHEN jsonb_typeof(data -> 'scenario' -> ?) = 'array'
				THEN data -> 'scenario' -> ? ELSE '[]'::jsonb END
		) AS elem(v) WHERE elem.v = ?))`, key, value, key, key, value)
}

func applyResultFilter(query sq.SelectBuilder, f domain.ResultFilter) (sq.SelectBuilder, error) {
	switch {
	case f.BuildingTypeUID != "":
		query = query.Where(fieldEq("buildingTypeUid", f.BuildingTypeUID))
	case f.BuildingTypeName != "":
		query = query.Where(fieldEq("buildingTypeName", f.BuildingTypeName))
	}

	if f.BoptestVersion != "" {
		query = query.Where(fieldEq("boptestVersion", f.BoptestVersion))
	}

	if len(f.Tags) > 0 {
		tags, err := sonic.MarshalString(f.Tags)
		if err != nil {
			return query, fmt.Errorf("encode tags filter: %w", err)
		}
		query = query.Where(sq.Expr("data -> 'tags' @> ?::jsonb", tags))
	}

	for key, value := range f.Scenario {
		if value == "" {
			continue
		}
		query = query.Where(scenarioMatch(key, value))
	}

	query = query.Where(kpiRange("cost", f.CostMin, f.CostMax)).
		Where(kpiRange("energy", f.EnergyMin, f.EnergyMax)).
		Where(kpiRange("thermalDiscomfort", f.ThermalDiscomfortMin, f.ThermalDiscomfortMax)).
		Where(kpiRange("aqDiscomfort", f.AQDiscomfortMin, f.AQDiscomfortMax)).
		Where(kpiRange("emissions", f.EmissionsMin, f.EmissionsMax))

	return query, nil
}

func (s *store) QueryResults(ctx context.Context, q ResultQuery) (*ResultPage, error) {
	if q.Limit <= 0 {
		return nil, fmt.Errorf("query results: limit must be positive, got %d", q.Limit)
	}

	query := selectDocuments(domain.CollectionResults).
		Where("(data ->> 'deleted')::boolean IS NOT TRUE")

	if q.SharedOnly {
		query = query.Where("(data ->> 'isShared')::boolean IS TRUE")
	}
	if q.AccountID != nil {
		query = query.Where(sq.Expr("(data ->> 'accountId')::bigint = ?", *q.AccountID))
	}
	if q.Cursor != nil {
		query = query.Where(sq.Lt{"numeric_id": *q.Cursor})
	}

	query, err := applyResultFilter(query, q.Filter)
	if err != nil {
		return nil, err
	}

	query = query.OrderBy("numeric_id DESC").Limit(uint64(q.Limit) + 1)

	docs, err := selectDocumentsx[domain.ResultDocument](ctx, s.pool, query)
	if err != nil {
		return nil, fmt.Errorf("select results: %w", err)
	}

	page := &ResultPage{Documents: docs}
	if len(docs) > q.Limit {
		page.Documents = docs[:q.Limit]
		page.HasNext = true
		last := page.Documents[len(page.Documents)-1].NumericID
		page.NextCursor = &last
	}
	return page, nil
}

func (s *store) FindResultByID(ctx context.Context, id int64) (*domain.Document[domain.ResultDocument], error) {
	query := selectDocuments(domain.CollectionResults).
		Where(sq.Eq{"numeric_id": id}).
		Limit(1)
	return getDocument[domain.ResultDocument](ctx, s.pool, query)
}

func (s *store) FindResultByUID(ctx context.Context, uid string) (*domain.Document[domain.ResultDocument], error) {
	query := selectDocuments(domain.CollectionResults).
		Where(fieldEq("uid", uid)).
		Limit(1)
	return getDocument[domain.ResultDocument](ctx, s.pool, query)
}

// FindResultsByScenario returns live results whose scenario is structurally
// equal (jsonb equality) to the given one.
func (s *store) FindResultsByScenario(ctx context.Context, scenario map[string]any) ([]*domain.Document[domain.ResultDocument], error) {
	if scenario == nil {
		scenario = map[string]any{}
	}
	raw, err := sonic.MarshalString(scenario)
	if err != nil {
		return nil, fmt.Errorf("encode scenario: %w", err)
	}

	query := selectDocuments(domain.CollectionResults).
		Where("(data ->> 'deleted')::boolean IS NOT TRUE").
		Where(sq.Expr("data -> 'scenario' = ?::jsonb", raw)).
		OrderBy("numeric_id")
	return selectDocumentsx[domain.ResultDocument](ctx, s.pool, query)
}

func (s *store) ReplaceResult(ctx context.Context, doc *domain.Document[domain.ResultDocument]) (*domain.Document[domain.ResultDocument], error) {
	return replaceDocument(ctx, s.pool, domain.CollectionResults, doc.DocID, doc.Data)
}

func (s *store) DeleteResult(ctx context.Context, docID string) error {
	return deleteDocument(ctx, s.pool, domain.CollectionResults, docID)
}
