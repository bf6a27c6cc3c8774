package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticker_backend/internal/feature/ticker/domain/entity"
	tickerhandler "ticker_backend/internal/feature/ticker/transport/handler"
	"ticker_backend/internal/feature/ticker/usecase"
	platformhandler "ticker_backend/internal/platform/http/handler"
	"ticker_backend/internal/platform/metrics"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()

	state := entity.DefaultTickerState("secret", "2024-10-05")
	uc := usecase.NewTickerUsecase(state, usecase.Dependencies{})
	return NewRouter(tickerhandler.NewTickerHandler(uc), platformhandler.NewHealthHandler(uc), opts)
}

func TestRouter_GetRoutes(t *testing.T) {
	t.Parallel()

	router := setupRouter(t, Options{})

	for _, path := range []string{"/engine-xie", "/price"} {
		t.Run(path, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

			require.Equal(t, http.StatusOK, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "ENGINE-XIE", body["symbol"])
			assert.NotContains(t, body, "password")
		})
	}
}

func TestRouter_AdminAliases(t *testing.T) {
	t.Parallel()

	router := setupRouter(t, Options{})

	tests := []struct {
		path string
		body string
	}{
		{path: "/engine-xie/override", body: `{"password":"wrong","newPrice":5}`},
		{path: "/engine", body: `{"password":"wrong","newPrice":5}`},
		{path: "/engine-xie/news", body: `{"password":"wrong","title":"t","content":"c"}`},
		{path: "/news", body: `{"password":"wrong","title":"t","content":"c"}`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.JSONEq(t, `{"error":"Wrong password"}`, w.Body.String())
		})
	}
}

func TestRouter_TransactionAndCandles(t *testing.T) {
	t.Parallel()

	router := setupRouter(t, Options{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/transaction", strings.NewReader(`{"type":"buy","quantity":100,"price":4.6}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/engine-xie/candles?limit=5", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRouter_HealthAndRequestID(t *testing.T) {
	t.Parallel()

	router := setupRouter(t, Options{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"symbol":"ENGINE-XIE"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()

	withMetrics := setupRouter(t, Options{Metrics: metrics.New().Handler()})
	w := httptest.NewRecorder()
	withMetrics.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	without := setupRouter(t, Options{})
	w = httptest.NewRecorder()
	without.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_CORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		allow      string
		origin     string
		wantHeader string
	}{
		{name: "any origin when unset", allow: "", origin: "https://anything.test", wantHeader: "*"},
		{name: "listed origin", allow: "https://a.test, https://b.test", origin: "https://b.test", wantHeader: "https://b.test"},
		{name: "unlisted origin", allow: "https://a.test", origin: "https://evil.test", wantHeader: ""},
		{name: "separators only fall back to any origin", allow: " , ", origin: "https://anything.test", wantHeader: "*"},
		{name: "origin without scheme falls back to any origin", allow: "example.com", origin: "https://anything.test", wantHeader: "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := setupRouter(t, Options{CORSAllowOrigin: tt.allow})
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/engine-xie", nil)
			req.Header.Set("Origin", tt.origin)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantHeader, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestParseOrigins(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ParseOrigins(""))
	assert.Nil(t, ParseOrigins(" , ,"))
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, ParseOrigins("https://a.test, ,https://b.test "))
}

func TestNewCORS_DoesNotPanic(t *testing.T) {
	t.Parallel()

	for _, allow := range []string{",", "example.com", "https://ok.test,example.com"} {
		assert.NotPanics(t, func() { _ = newCORS(allow) }, allow)
	}
}
