package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/durjog-khobor/internal/crawler"
	"github.com/Adda-Baaj/durjog-khobor/internal/domain"
	"github.com/Adda-Baaj/durjog-khobor/internal/freshness"
	"github.com/Adda-Baaj/durjog-khobor/internal/ingest"
	"github.com/Adda-Baaj/durjog-khobor/internal/metrics"
	"github.com/Adda-Baaj/durjog-khobor/internal/storage"
	"github.com/Adda-Baaj/durjog-khobor/pkg/profiles"
)

var testNow = time.Date(2025, 7, 3, 12, 0, 0, 0, time.UTC)

type fakeService struct {
	articles []domain.Article
	report   ingest.Report
	passErr  error
	deleted  int
	clearErr error
	passCtx  context.Context
}

func (f *fakeService) Articles(context.Context) ([]domain.Article, error) {
	return f.articles, nil
}

func (f *fakeService) RunPass(ctx context.Context) (ingest.Report, error) {
	f.passCtx = ctx
	return f.report, f.passErr
}

func (f *fakeService) Clear(context.Context) (int, error) {
	return f.deleted, f.clearErr
}

func do(t *testing.T, router *gin.Engine, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealth(t *testing.T) {
	rec, body := do(t, NewRouter(&fakeService{}, nil, nil), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestScrapeNowReportsStoredCount(t *testing.T) {
	svc := &fakeService{report: ingest.Report{
		Profiles:    []ingest.ProfileReport{{ProfileID: "bbc", Stored: 3, Inserted: 2}},
		StorePruned: 1,
		Total:       7,
	}}
	rec, body := do(t, NewRouter(svc, nil, nil), http.MethodGet, "/scrape-now")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 3.0, body["stored"])
	assert.Equal(t, 2.0, body["new"])
	assert.Equal(t, 1.0, body["deleted"])
	assert.Equal(t, 7.0, body["total"])
	require.NotNil(t, svc.passCtx)
	assert.NoError(t, svc.passCtx.Err())
}

func TestScrapeNowStoreFailureIsReportedInBody(t *testing.T) {
	svc := &fakeService{passErr: &ingest.StoreError{Op: "upsert", URL: "u", Err: errors.New("disk full")}}
	rec, body := do(t, NewRouter(svc, nil, nil), http.MethodGet, "/scrape-now")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "failed", body["status"])
	assert.Contains(t, body["error"], "disk full")
}

func TestClearDB(t *testing.T) {
	router := NewRouter(&fakeService{deleted: 4}, nil, nil)

	rec, body := do(t, router, http.MethodPost, "/clear-db")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4.0, body["deleted"])

	rec, _ = do(t, router, http.MethodGet, "/clear-db")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = do(t, NewRouter(&fakeService{clearErr: errors.New("locked")}, nil, nil), http.MethodPost, "/clear-db")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed", body["status"])
}

func TestMetricsRoute(t *testing.T) {
	m := metrics.New()
	m.SetCacheSize(5)

	rec, _ := do(t, NewRouter(&fakeService{}, m.Handler(), nil), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "durjog_ingest_freshness_cache_entries 5")

	rec, _ = do(t, NewRouter(&fakeService{}, nil, nil), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type noDiscovery struct{}

func (noDiscovery) Discover(context.Context, *profiles.Profile, time.Time) []domain.CandidateLink {
	return nil
}

type noFetch struct{}

func (noFetch) Fetch(_ context.Context, _ *profiles.Profile, url string, _ time.Time) crawler.Outcome {
	return crawler.Outcome{Kind: crawler.OutcomeError, URL: url, Err: errors.New("offline")}
}

func TestArticlesServesOnlyTheWindow(t *testing.T) {
	store, err := storage.OpenBolt(filepath.Join(t.TempDir(), "articles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	for url, age := range map[string]time.Duration{
		"https://a.example/fresh":  time.Hour,
		"https://a.example/recent": 20 * time.Hour,
		"https://a.example/old":    26 * time.Hour,
	} {
		_, err := store.Upsert(ctx, domain.Article{URL: url, PublishedAt: testNow.Add(-age), ScrapedAt: testNow})
		require.NoError(t, err)
	}

	coord := ingest.New(nil, noDiscovery{}, noFetch{}, store, freshness.New(24*time.Hour), nil,
		ingest.WithClock(func() time.Time { return testNow }))

	rec := httptest.NewRecorder()
	NewRouter(coord, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/articles", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []domain.Article
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "https://a.example/fresh", got[0].URL)
	assert.Equal(t, "https://a.example/recent", got[1].URL)
	for _, a := range got {
		assert.Less(t, testNow.Sub(a.PublishedAt), 24*time.Hour)
		assert.NotNil(t, a.Tags)
	}

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, []any{}, raw[0]["tags"])
	assert.Contains(t, raw[0], "publication_date")
}

func TestEmptyArticlesIsEmptyArray(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(&fakeService{articles: []domain.Article{}}, nil, nil).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/articles", nil))
	assert.JSONEq(t, "[]", rec.Body.String())
}
