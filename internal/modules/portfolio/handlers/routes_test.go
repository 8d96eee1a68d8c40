package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/factorlens/internal/database"
	"github.com/aristath/factorlens/internal/modules/portfolio"
	"github.com/aristath/factorlens/internal/modules/prices"
	testingpkg "github.com/aristath/factorlens/internal/testing"
)

type fakeUploader struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, aws.ToString(input.Key))
	return &manager.UploadOutput{}, nil
}

func newRouter(t *testing.T, uploader portfolio.Uploader) chi.Router {
	t.Helper()

	provider := testingpkg.NewMockPriceProvider()
	provider.SetSeries("VOO", testingpkg.NewTrendingSeries(301, 0.0005, 0.010, 7))
	provider.SetSeries("XOM", testingpkg.NewTrendingSeries(301, 0.0003, 0.015, 11))

	runs := portfolio.NewRunRepository(testingpkg.NewTestDB(t, database.NameRuns).Conn(), zerolog.Nop())
	service := portfolio.NewService(
		prices.NewService(provider, zerolog.Nop()),
		testingpkg.NewMockFactorProvider(testingpkg.NewFactorSet(300, true)),
		testingpkg.NewMockClassificationProvider(testingpkg.NewClassificationFixtures()),
		runs, nil, zerolog.Nop(),
	)

	var publisher *portfolio.Publisher
	if uploader != nil {
		publisher = portfolio.NewPublisher(uploader, "reports", "runs", zerolog.Nop())
	}

	router := chi.NewRouter()
	NewHandler(service, runs, publisher, zerolog.Nop()).RegisterRoutes(router)
	return router
}

func analyze(t *testing.T, router chi.Router) portfolio.Analysis {
	t.Helper()

	body := `{"holdings":[{"ticker":"VOO","marketValue":700},{"ticker":"XOM","marketValue":300}],"riskFreeRate":0.01,"includeAssets":true}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/portfolio/analyze", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var a portfolio.Analysis
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&a))
	return a
}

func get(router chi.Router, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandleAnalyze_AndReadBack(t *testing.T) {
	router := newRouter(t, nil)
	a := analyze(t, router)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, []string{"VOO", "XOM"}, a.Tickers)
	assert.Len(t, a.Factors.Results, 3)

	rec := get(router, "/portfolio/runs/"+a.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	var stored portfolio.Analysis
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stored))
	assert.Equal(t, a.ID, stored.ID)
	assert.Equal(t, a.Weights, stored.Weights)

	rec = get(router, "/portfolio/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), a.ID)
}

func TestHandleAnalyze_BadInput(t *testing.T) {
	router := newRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/portfolio/analyze", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/portfolio/analyze", strings.NewReader(`{"holdings":[]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No valid holdings"}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, get(router, "/portfolio/runs?limit=x").Code)
}

func TestExports(t *testing.T) {
	router := newRouter(t, nil)
	a := analyze(t, router)

	rec := get(router, "/portfolio/runs/"+a.ID+"/exports/correlation.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "correlation_6m.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), ",VOO,XOM\nVOO,"))

	rec = get(router, "/portfolio/runs/"+a.ID+"/exports/factors.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(rec.Body.String(), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "name,coef,tstat,r2,alpha_annual", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Portfolio,\""))

	rec = get(router, "/portfolio/runs/"+a.ID+"/exports/groups.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# Sector groups\nsector,weight_percent\nBroad US Equity,70.0000\nEnergy,30.0000")
}

func TestRunNotFound(t *testing.T) {
	router := newRouter(t, &fakeUploader{})

	for _, path := range []string{
		"/portfolio/runs/missing",
		"/portfolio/runs/missing/exports/groups.csv",
	} {
		rec := get(router, path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.JSONEq(t, `{"error":"Run not found"}`, rec.Body.String())
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/portfolio/runs/missing/publish", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePublish(t *testing.T) {
	uploader := &fakeUploader{}
	router := newRouter(t, uploader)
	a := analyze(t, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/portfolio/runs/"+a.ID+"/publish", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var pub portfolio.Publication
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pub))
	assert.Equal(t, "runs/"+a.ID, pub.Prefix)
	assert.Len(t, uploader.keys, 4)

	rec = get(router, "/portfolio/runs")
	assert.Contains(t, rec.Body.String(), `"publishedPrefix":"runs/`+a.ID+`"`)
}

func TestHandlePublish_NotConfigured(t *testing.T) {
	router := newRouter(t, nil)
	a := analyze(t, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/portfolio/runs/"+a.ID+"/publish", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
