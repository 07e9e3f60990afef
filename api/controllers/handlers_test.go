package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/saastools-backend/api/middleware"
	"github.com/angelmondragon/saastools-backend/internal/analytics"
	"github.com/angelmondragon/saastools-backend/internal/invoices"
	"github.com/angelmondragon/saastools-backend/internal/keywords"
	"github.com/angelmondragon/saastools-backend/internal/tools"
	"github.com/angelmondragon/saastools-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
)

func withUser(r *http.Request, id uuid.UUID) *http.Request {
	return r.WithContext(middleware.WithUserID(r.Context(), id.String()))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

type stubToolService struct {
	tools.Service
	listUser *uuid.UUID
	getErr   error
}

func (s *stubToolService) List(ctx context.Context, userID *uuid.UUID) ([]tools.ToolDTO, error) {
	s.listUser = userID
	return []tools.ToolDTO{{Slug: "keyword-research"}}, nil
}

func (s *stubToolService) Get(ctx context.Context, toolID uuid.UUID, userID *uuid.UUID) (*tools.ToolDTO, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &tools.ToolDTO{ID: toolID}, nil
}

func TestToolListForwardsOptionalUser(t *testing.T) {
	svc := &stubToolService{}
	rec := httptest.NewRecorder()
	ToolList(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, svc.listUser)

	userID := uuid.New()
	rec = httptest.NewRecorder()
	ToolList(svc, nil).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil), userID))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.listUser)
	assert.Equal(t, userID, *svc.listUser)
}

func TestToolGetBadIDIs404(t *testing.T) {
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/tools/nope", nil), "toolId", "nope")
	rec := httptest.NewRecorder()
	ToolGet(&stubToolService{}, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type stubResearcher struct {
	err    error
	denied error
}

func (s stubResearcher) Authorize(ctx context.Context, userID uuid.UUID) error {
	return s.denied
}

func (s stubResearcher) Research(ctx context.Context, userID uuid.UUID, req keywords.ResearchRequest) (*keywords.ResearchResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &keywords.ResearchResponse{}, nil
}

func (s stubResearcher) Export(ctx context.Context, userID uuid.UUID, req keywords.ResearchRequest) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("Platform,Keyword\namazon,shoes\n"), nil
}

func TestKeywordExportWritesCSV(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/keyword-research/export",
		strings.NewReader(`{"seed_keyword":"shoes","platforms":["amazon"]}`))
	rec := httptest.NewRecorder()
	KeywordExport(stubResearcher{}, nil).ServeHTTP(rec, withUser(req, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "keywords.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Platform,Keyword"))
}

func TestKeywordResearchRejectsBadInput(t *testing.T) {
	bodies := []string{
		`{"seed_keyword":"","platforms":["amazon"]}`,
		`{"seed_keyword":"shoes","platforms":[]}`,
		`{"seed_keyword":"shoes","platforms":["ebay"]}`,
		`{"seed_keyword":"` + strings.Repeat("a", 101) + `","platforms":["amazon"]}`,
	}
	for _, body := range bodies {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/keyword-research", strings.NewReader(body))
		rec := httptest.NewRecorder()
		KeywordResearch(stubResearcher{}, nil).ServeHTTP(rec, withUser(req, uuid.New()))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestKeywordResearchRequiresUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/keyword-research",
		strings.NewReader(`{"seed_keyword":"shoes","platforms":["amazon"]}`))
	rec := httptest.NewRecorder()
	KeywordResearch(stubResearcher{}, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestKeywordResearchSubscriptionRequired(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/keyword-research",
		strings.NewReader(`{"seed_keyword":"shoes","platforms":["amazon"]}`))
	rec := httptest.NewRecorder()
	svc := stubResearcher{err: pkgerrors.New(pkgerrors.CodeForbidden, "Subscription required for this tool")}
	KeywordResearch(svc, nil).ServeHTTP(rec, withUser(req, uuid.New()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Subscription required for this tool")
}

func TestKeywordResearchChecksAccessBeforeBody(t *testing.T) {
	denied := pkgerrors.New(pkgerrors.CodeForbidden, "Subscription required for this tool")
	for _, body := range []string{`{"seed_keyword":"","platforms":["ebay"]}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/keyword-research", strings.NewReader(body))
		rec := httptest.NewRecorder()
		KeywordResearch(stubResearcher{denied: denied}, nil).ServeHTTP(rec, withUser(req, uuid.New()))
		assert.Equal(t, http.StatusForbidden, rec.Code, body)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/keyword-research/export", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	KeywordExport(stubResearcher{denied: denied}, nil).ServeHTTP(rec, withUser(req, uuid.New()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type stubInvoices struct {
	owner uuid.UUID
}

func (s stubInvoices) ForOwner(ctx context.Context, subscriptionID, userID uuid.UUID) (*invoices.Result, error) {
	if userID != s.owner {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Subscription not found")
	}
	return &invoices.Result{FileName: "invoice-INV-1.pdf", Data: []byte("%PDF-1.3")}, nil
}

func (s stubInvoices) GenerateByID(ctx context.Context, subscriptionID uuid.UUID) (*invoices.Result, error) {
	return &invoices.Result{InvoiceNumber: "INV-1", FileName: "invoice-INV-1.pdf", URL: "/invoices/invoice-INV-1.pdf"}, nil
}

func TestSubscriptionInvoiceOwnerOnly(t *testing.T) {
	owner := uuid.New()
	subID := uuid.New().String()
	svc := stubInvoices{owner: owner}

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "subscriptionId", subID)
	rec := httptest.NewRecorder()
	SubscriptionInvoice(svc, nil).ServeHTTP(rec, withUser(req, owner))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "invoice-INV-1.pdf")

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "subscriptionId", subID)
	rec = httptest.NewRecorder()
	SubscriptionInvoice(svc, nil).ServeHTTP(rec, withUser(req, uuid.New()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminInvoiceGenerate(t *testing.T) {
	rec := postJSON(t, AdminInvoiceGenerate(stubInvoices{}, nil), "/api/admin/v1/invoices", `{"subscription_id":"`+uuid.NewString()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got invoices.Result
	decodeData(t, rec, &got)
	assert.Equal(t, "INV-1", got.InvoiceNumber)

	rec = postJSON(t, AdminInvoiceGenerate(stubInvoices{}, nil), "/api/admin/v1/invoices", `{"subscription_id":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubAnalytics struct {
	req analytics.UsersRequest
}

func (s *stubAnalytics) Dashboard(ctx context.Context) (*analytics.DashboardResponse, error) {
	return &analytics.DashboardResponse{}, nil
}

func (s *stubAnalytics) Users(ctx context.Context, req analytics.UsersRequest) (*analytics.UsersResponse, error) {
	s.req = req
	return &analytics.UsersResponse{CurrentPage: req.Page}, nil
}

func TestAdminUsersParsesQuery(t *testing.T) {
	svc := &stubAnalytics{}
	rec := httptest.NewRecorder()
	AdminUsers(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/v1/users?page=3&limit=25&search=%20jane%20", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, analytics.UsersRequest{Page: 3, Limit: 25, Search: "jane"}, svc.req)

	rec = httptest.NewRecorder()
	AdminUsers(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/v1/users", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.req.Page)
	assert.Equal(t, 10, svc.req.Limit)

	rec = httptest.NewRecorder()
	AdminUsers(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/v1/users?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, ok, ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, ok, down).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, down, ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
