package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zahias/pillars/config"
	"github.com/zahias/pillars/internal/api/handler"
	"github.com/zahias/pillars/internal/repository"
	"github.com/zahias/pillars/internal/service"
	"github.com/zahias/pillars/internal/testutil"
	"github.com/zahias/pillars/pkg/metrics"
)

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Import:    config.ImportConfig{MaxUploadMB: 1, MaxRows: 100},
		RateLimit: config.RateLimitConfig{ImportPerWindow: 5, Window: time.Minute},
	}
	logger := zap.NewNop()
	m := metrics.New()
	repo := repository.NewRepository(testutil.NewTestDB(t))
	svc := service.NewService(cfg, repo, m, logger)
	return Setup(cfg, handler.NewHandler(svc), nil, m, logger)
}

func do(t *testing.T, srv http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func createdID(t *testing.T, w *httptest.ResponseRecorder, env envelope) int64 {
	t.Helper()
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var obj struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &obj))
	return obj.ID
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	w, _ := do(t, srv, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, _ = do(t, srv, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pillars_http_requests_total")
}

func TestRouter_EntryFlow(t *testing.T) {
	srv := newTestServer(t)

	w, env := do(t, srv, "POST", "/api/v1/pillars", map[string]interface{}{"name": "Health"})
	pillarID := createdID(t, w, env)
	w, env = do(t, srv, "POST", "/api/v1/indicators", map[string]interface{}{
		"pillar_id": pillarID, "name": "Checkups", "goal": 10, "statuses": []string{"Done", "Pending"},
	})
	indicatorID := createdID(t, w, env)
	w, env = do(t, srv, "POST", "/api/v1/activities", map[string]interface{}{"indicator_id": indicatorID, "name": "Clinic Visit"})
	activityID := createdID(t, w, env)
	w, env = do(t, srv, "POST", fmt.Sprintf("/api/v1/activities/%d/fields", activityID),
		map[string]interface{}{"name": "Visits", "field_type": "Number"})
	fieldID := createdID(t, w, env)

	// 重名支柱 409
	w, env = do(t, srv, "POST", "/api/v1/pillars", map[string]interface{}{"name": "Health"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 21201, env.Code)

	// 提交记录
	entryPath := fmt.Sprintf("/api/v1/activities/%d/entries", activityID)
	w, _ = do(t, srv, "POST", entryPath, map[string]interface{}{
		"status": "Done",
		"values": []map[string]interface{}{{"field_id": fieldID, "value": 5}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// 不允许的状态
	w, env = do(t, srv, "POST", entryPath, map[string]interface{}{"status": "Lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 24006, env.Code)

	// 进度
	w, env = do(t, srv, "GET", "/api/v1/reports/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var progress struct {
		List []struct {
			Actual  int64   `json:"actual"`
			Percent float64 `json:"percent"`
		} `json:"list"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &progress))
	require.Len(t, progress.List, 1)
	assert.Equal(t, int64(1), progress.List[0].Actual)
	assert.Equal(t, 10.0, progress.List[0].Percent)

	// 删除支柱后记录一并消失
	w, _ = do(t, srv, "DELETE", fmt.Sprintf("/api/v1/pillars/%d", pillarID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = do(t, srv, "GET", "/api/v1/reports/entries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"total":0`)
}

func TestRouter_TemplateDownload(t *testing.T) {
	srv := newTestServer(t)

	w, _ := do(t, srv, "GET", "/api/v1/transfer/template", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "pillars_template.xlsx")
	assert.NotZero(t, w.Body.Len())
}

func TestRouter_UnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	w, _ := do(t, srv, "GET", "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
