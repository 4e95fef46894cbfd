package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zahias/pillars/internal/dto"
	"github.com/zahias/pillars/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_GenerateAndPassThrough(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	if got := w.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("expected generated uuid, got %q", got)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" {
		t.Errorf("expected incoming id to be kept, got %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 100))
	r.ServeHTTP(w, req)
	if w.Body.String() == strings.Repeat("x", 100) {
		t.Error("oversized request id should be replaced")
	}
}

func TestBodyLimit_RejectsLargeBody(t *testing.T) {
	r := gin.New()
	r.POST("/upload", BodyLimit(8), func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/upload", strings.NewReader("0123456789")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/upload", strings.NewReader("0123")))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRateLimit_NilRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.POST("/import", RateLimit(nil, 1, time.Minute, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/import", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 without redis, got %d", i, w.Code)
		}
	}
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/programs/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/programs/42", nil))

	w = httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body := w.Body.String()
	if !strings.Contains(body, `path="/programs/:id"`) {
		t.Error("metrics should be labelled with the route template")
	}
	if strings.Contains(body, `path="/programs/42"`) {
		t.Error("raw path must not be used as label")
	}
}

func TestCORS_AllowedOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Error("allowed origin should be echoed")
	}
}

func TestLogger_ImportCounts(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.POST("/transfer/import", func(c *gin.Context) {
		c.Set(ImportResultKey, &dto.ImportResponse{
			Sheets: []dto.SheetResult{
				{Sheet: "Pillars", Added: 2, Updated: 1},
				{Sheet: "Indicators", Added: 1, Skipped: 2},
			},
			Warnings: []dto.ImportWarning{{Sheet: "Indicators", Row: 3}, {Sheet: "Indicators", Row: 4}},
		})
		c.Status(http.StatusOK)
	})
	r.GET("/programs/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/transfer/import", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/programs/7", nil))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}

	imp := entries[0].ContextMap()
	want := map[string]int64{
		"import_sheets":   2,
		"import_added":    3,
		"import_updated":  1,
		"import_skipped":  2,
		"import_warnings": 2,
	}
	for k, v := range want {
		if imp[k] != v {
			t.Errorf("%s: expected %d, got %v", k, v, imp[k])
		}
	}

	other := entries[1].ContextMap()
	if other["route"] != "/programs/:id" {
		t.Errorf("expected route template, got %v", other["route"])
	}
	if _, ok := other["import_added"]; ok {
		t.Error("non-import requests must not carry import counts")
	}
}

func TestSecurityHeaders_NoStore(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/reports/entries/export", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/reports/entries/export", nil))
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("expected no-store, got %q", w.Header().Get("Cache-Control"))
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("nosniff header missing")
	}
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	r.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("disallowed origin must not be echoed")
	}
	if w.Header().Get("Vary") != "Origin" {
		t.Error("responses should vary on Origin")
	}
}
