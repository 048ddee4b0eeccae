package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/ougirez/boptest/internal/api/controller"
	"github.com/ougirez/boptest/internal/domain"
	"github.com/ougirez/boptest/internal/domain/dto"
	"github.com/ougirez/boptest/internal/pkg/constants"
	"github.com/ougirez/boptest/internal/pkg/utils"
	"github.com/ougirez/boptest/internal/service/results"
	"github.com/spf13/viper"
)

type fakeResults struct {
	account   domain.Account
	payloads  []*dto.ResultPayload
	filter    domain.ResultFilter
	cursor    *int64
	limit     int
	listOwner int64
	toggled   map[int64]bool
	deleted   []int64
}

func (f *fakeResults) CreateResults(_ context.Context, account domain.Account, payloads []*dto.ResultPayload) []results.Outcome {
	f.account, f.payloads = account, payloads
	out := make([]results.Outcome, len(payloads))
	for i, p := range payloads {
		out[i] = results.Outcome{UID: p.UID, Status: results.OutcomeCreated, ID: int64(i + 1)}
		if p.UID == "bad" {
			out[i].Status = results.OutcomeFailed
		}
	}
	return out
}

func (f *fakeResults) ListShared(_ context.Context, filter domain.ResultFilter, cursor *int64, limit int) (*domain.ResultsPage, error) {
	f.filter, f.cursor, f.limit = filter, cursor, limit
	next := int64(5)
	return &domain.ResultsPage{
		Results:  []*domain.Result{{ID: 6, UID: "r6", Tags: []string{}}},
		PageInfo: domain.PageInfo{HasNext: true, NextCursor: &next},
	}, nil
}

func (f *fakeResults) ListForAccount(_ context.Context, accountID int64, filter domain.ResultFilter, cursor *int64, limit int) (*domain.ResultsPage, error) {
	f.listOwner = accountID
	return &domain.ResultsPage{Results: []*domain.Result{}}, nil
}

func (f *fakeResults) GetShared(_ context.Context, uid string) (*domain.Result, error) {
	if uid != "r1" {
		return nil, fmt.Errorf("result %s: %w", uid, constants.ErrDBNotFound)
	}
	return &domain.Result{ID: 1, UID: "r1"}, nil
}

func (f *fakeResults) SignatureDetails(_ context.Context, uid string) (*domain.SignatureDetails, error) {
	return &domain.SignatureDetails{NumResults: 2, Cost: domain.KPIRange{Min: 1, Max: 3}}, nil
}

func (f *fakeResults) ToggleShared(_ context.Context, id int64, share bool, accountID int64) (*domain.Result, error) {
	if accountID != 7 {
		return nil, constants.ErrForbidden
	}
	if f.toggled == nil {
		f.toggled = make(map[int64]bool)
	}
	f.toggled[id] = share
	return &domain.Result{ID: id, IsShared: share}, nil
}

func (f *fakeResults) DeleteResult(_ context.Context, id int64, accountID int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeFacets struct{}

func (fakeFacets) List(context.Context) ([]*domain.ResultFacet, error) {
	return []*domain.ResultFacet{{BuildingTypeUID: "bt-1", BuildingTypeName: "Office", Tags: []string{"a"}}}, nil
}

func (fakeFacets) Get(_ context.Context, uid string) (*domain.ResultFacet, error) {
	return nil, constants.ErrDBNotFound
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestRouter(t *testing.T, res *fakeResults, db fakePinger) http.Handler {
	t.Helper()
	viper.Set(constants.ViperSecretKey, "test-secret")
	t.Cleanup(func() { viper.Set(constants.ViperSecretKey, "") })

	svc := &APIService{}
	return svc.newRouter(controller.NewController(res, fakeFacets{}, db))
}

func token(t *testing.T, id int64, name string) string {
	t.Helper()
	raw, err := utils.GenerateAuthToken(&utils.AuthTokenWrapper{AccountID: id, DisplayName: name})
	if err != nil {
		t.Fatalf("GenerateAuthToken: %v", err)
	}
	return raw
}

func serve(h http.Handler, method, target, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) domain.ErrorResponse {
	t.Helper()
	var resp domain.ErrorResponse
	if err := sonic.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

const resultBody = `{"results":[{
	"uid":"r1",
	"dateRun":"2020-08-04T23:00:00Z",
	"boptestVersion":"0.6.0",
	"isShared":true,
	"tags":["a"],
	"kpis":{"cost_tot":1,"ener_tot":2,"tdis_tot":3},
	"scenario":{"timePeriod":"peak_heat_day"},
	"buildingType":{"uid":"bt-1","name":"Office"}
}]}`

func TestCreateResultsRequiresToken(t *testing.T) {
	h := newTestRouter(t, &fakeResults{}, fakePinger{})

	rec := serve(h, http.MethodPost, "/api/v1/results", resultBody, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: want=%d got=%d", http.StatusUnauthorized, rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != http.StatusUnauthorized {
		t.Fatalf("body code: want=%d got=%d", http.StatusUnauthorized, resp.Code)
	}

	rec = serve(h, http.MethodPost, "/api/v1/results", resultBody, "garbage")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status: want=%d got=%d", http.StatusUnauthorized, rec.Code)
	}
}

func TestCreateResults(t *testing.T) {
	res := &fakeResults{}
	h := newTestRouter(t, res, fakePinger{})

	rec := serve(h, http.MethodPost, "/api/v1/results", resultBody, token(t, 7, "alice"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if res.account.ID != 7 || res.account.DisplayName != "alice" {
		t.Fatalf("account: got=%+v", res.account)
	}
	if len(res.payloads) != 1 || res.payloads[0].BuildingType.UID != "bt-1" || *res.payloads[0].KPIs.CostTot != 1 {
		t.Fatalf("payloads not bound: %+v", res.payloads)
	}
	if rec.Header().Get(constants.HeaderRequestID) == "" {
		t.Fatalf("request id header missing")
	}
}

func TestCreateResultsCookieAuthAndPartialFailure(t *testing.T) {
	h := newTestRouter(t, &fakeResults{}, fakePinger{})

	body := strings.Replace(resultBody, `"uid":"r1"`, `"uid":"bad"`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/results", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: constants.CookieKeyAuthToken, Value: token(t, 7, "alice")})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusMultiStatus, rec.Code, rec.Body.String())
	}
}

func TestCreateResultsValidation(t *testing.T) {
	h := newTestRouter(t, &fakeResults{}, fakePinger{})
	tok := token(t, 7, "alice")

	cases := map[string]string{
		"empty batch":  `{"results":[]}`,
		"missing kpis": `{"results":[{"uid":"r1","dateRun":"2020-08-04T23:00:00Z"}]}`,
		"bad json":     `{"results":`,
	}
	for name, body := range cases {
		rec := serve(h, http.MethodPost, "/api/v1/results", body, tok)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: want=%d got=%d body=%s", name, http.StatusBadRequest, rec.Code, rec.Body.String())
		}
	}
}

func TestListSharedParsesQuery(t *testing.T) {
	res := &fakeResults{}
	h := newTestRouter(t, res, fakePinger{})

	rec := serve(h, http.MethodGet, "/api/v1/results/shared?limit=10&cursor=42&tags=a,b&scenario.timePeriod=peak&costMax=100", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if res.limit != 10 || res.cursor == nil || *res.cursor != 42 {
		t.Fatalf("paging: limit=%d cursor=%v", res.limit, res.cursor)
	}
	if len(res.filter.Tags) != 2 || res.filter.Scenario["timePeriod"] != "peak" || res.filter.CostMax == nil || *res.filter.CostMax != 100 {
		t.Fatalf("filter: got=%+v", res.filter)
	}

	var page domain.ResultsPage
	if err := sonic.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if !page.PageInfo.HasNext || *page.PageInfo.NextCursor != 5 || page.Results[0].UID != "r6" {
		t.Fatalf("page: got=%+v", page)
	}

	for _, bad := range []string{"limit=x", "cursor=y", "costMin=cheap"} {
		if rec := serve(h, http.MethodGet, "/api/v1/results/shared?"+bad, "", ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: want=%d got=%d", bad, http.StatusBadRequest, rec.Code)
		}
	}
}

func TestListMineUsesCaller(t *testing.T) {
	res := &fakeResults{}
	h := newTestRouter(t, res, fakePinger{})

	if rec := serve(h, http.MethodGet, "/api/v1/results/mine", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: want=%d got=%d", http.StatusUnauthorized, rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/api/v1/results/mine", "", token(t, 9, "bob")); rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	if res.listOwner != 9 {
		t.Fatalf("owner: want=9 got=%d", res.listOwner)
	}
}

func TestGetResultAndSignature(t *testing.T) {
	h := newTestRouter(t, &fakeResults{}, fakePinger{})

	if rec := serve(h, http.MethodGet, "/api/v1/results/r1", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("get: want=%d got=%d", http.StatusOK, rec.Code)
	}
	rec := serve(h, http.MethodGet, "/api/v1/results/missing", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing: want=%d got=%d", http.StatusNotFound, rec.Code)
	}
	if resp := decodeError(t, rec); !strings.Contains(resp.Message, "missing") {
		t.Fatalf("message should name the result: %q", resp.Message)
	}

	rec = serve(h, http.MethodGet, "/api/v1/results/r1/signature", "", "")
	var details domain.SignatureDetails
	if err := sonic.Unmarshal(rec.Body.Bytes(), &details); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if details.NumResults != 2 || details.Cost.Max != 3 {
		t.Fatalf("details: got=%+v", details)
	}
}

func TestToggleShareAndDelete(t *testing.T) {
	res := &fakeResults{}
	h := newTestRouter(t, res, fakePinger{})

	rec := serve(h, http.MethodPatch, "/api/v1/results/3/share", `{"share":true}`, token(t, 7, "alice"))
	if rec.Code != http.StatusOK || !res.toggled[3] {
		t.Fatalf("toggle: status=%d toggled=%v", rec.Code, res.toggled)
	}
	if rec := serve(h, http.MethodPatch, "/api/v1/results/3/share", `{"share":true}`, token(t, 8, "mallory")); rec.Code != http.StatusForbidden {
		t.Fatalf("other account: want=%d got=%d", http.StatusForbidden, rec.Code)
	}
	if rec := serve(h, http.MethodPatch, "/api/v1/results/3/share", `{}`, token(t, 7, "alice")); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing share: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
	if rec := serve(h, http.MethodPatch, "/api/v1/results/abc/share", `{"share":true}`, token(t, 7, "alice")); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}

	if rec := serve(h, http.MethodDelete, "/api/v1/results/3", "", token(t, 7, "alice")); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: want=%d got=%d", http.StatusNoContent, rec.Code)
	}
	if len(res.deleted) != 1 || res.deleted[0] != 3 {
		t.Fatalf("deleted: got=%v", res.deleted)
	}
}

func TestFacetsAndHealth(t *testing.T) {
	h := newTestRouter(t, &fakeResults{}, fakePinger{})

	rec := serve(h, http.MethodGet, "/api/v1/facets", "", "")
	var facets []*domain.ResultFacet
	if err := sonic.Unmarshal(rec.Body.Bytes(), &facets); err != nil {
		t.Fatalf("decode facets: %v", err)
	}
	if len(facets) != 1 || facets[0].BuildingTypeUID != "bt-1" {
		t.Fatalf("facets: got=%+v", facets)
	}
	if rec := serve(h, http.MethodGet, "/api/v1/facets/nope", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing facet: want=%d got=%d", http.StatusNotFound, rec.Code)
	}

	if rec := serve(h, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: want=%d got=%d", http.StatusOK, rec.Code)
	}
	down := newTestRouter(t, &fakeResults{}, fakePinger{err: errors.New("db down")})
	if rec := serve(down, http.MethodGet, "/api/v1/healthz", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("healthz down: want=%d got=%d", http.StatusServiceUnavailable, rec.Code)
	}
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
	h := newTestRouter(t, &fakeResults{}, fakePinger{})
	rec := serve(h, http.MethodGet, "/api/v1/nothing", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: want=%d got=%d", http.StatusNotFound, rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != http.StatusNotFound {
		t.Fatalf("body code: want=%d got=%d", http.StatusNotFound, resp.Code)
	}
}
