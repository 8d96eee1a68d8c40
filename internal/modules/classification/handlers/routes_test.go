package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/factorlens/internal/clients/yahoo"
	"github.com/aristath/factorlens/internal/modules/classification"
)

type stubSpark map[string]yahoo.SparkMeta

func (s stubSpark) Spark(ctx context.Context, tickers []string) (map[string]yahoo.SparkMeta, []string, error) {
	return s, nil, nil
}

func newRouter() chi.Router {
	spark := stubSpark{"VOO": {Market: "us_market", InstrumentType: "ETF"}}
	svc := classification.NewService(nil, spark, nil, nil, nil, zerolog.Nop())

	router := chi.NewRouter()
	NewHandler(svc, zerolog.Nop()).RegisterRoutes(router)
	return router
}

func TestHandleGetClassifications(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/portfolio-classifications?tickers=voo,nope", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"classifications": {
			"VOO": {"region": "US", "sector": "ETF", "factor": "Beta/Index Exposure", "source": "yahoo_spark"},
			"NOPE": {"region": "Unknown", "sector": "Unknown", "factor": "Unassigned", "source": "none"}
		},
		"warnings": ["NOPE: missing spark row"],
		"diagnostics": {"finnhubConfigured": false}
	}`, rec.Body.String())
}

func TestHandleGetClassifications_MissingTickers(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/portfolio-classifications", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Provide tickers query param"}`, rec.Body.String())
}
