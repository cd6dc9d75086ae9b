package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/replyre/kiit-lms-final-sub000/config"
	"github.com/replyre/kiit-lms-final-sub000/internal/api/handler"
	"github.com/replyre/kiit-lms-final-sub000/internal/repository"
	"github.com/replyre/kiit-lms-final-sub000/internal/service"
	"github.com/replyre/kiit-lms-final-sub000/pkg/jwt"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.BodyLimit = 1 << 20
	cfg.Server.Timezone = "UTC"
	cfg.Auth.JWTSecret = "router-test-secret-key"
	cfg.Auth.AccessTokenTTL = 15 * time.Minute
	cfg.Auth.RefreshTokenTTL = time.Hour
	cfg.Draft.TTL = time.Hour
	cfg.Metrics.Enabled = true
	cfg.Metrics.Namespace = "kiit_lms_test"
	return cfg
}

// setupRouter 不连接数据库与 Redis，仅验证路由与中间件装配
func setupRouter(t *testing.T) (http.Handler, *jwt.Manager) {
	t.Helper()
	cfg := testConfig()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := &repository.Repository{}
	svc := service.NewService(cfg, repo, jwtMgr, nil, zap.NewNop())
	h := handler.NewHandler(cfg, svc)
	return Setup(cfg, h, jwtMgr, nil, nil, zap.NewNop()), jwtMgr
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["redis"] != "disabled" {
		t.Errorf("expected redis disabled, got %q", body["redis"])
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(w.Body.String(), "kiit_lms_test_http_requests_total") {
		t.Error("expected request counter in metrics output")
	}
}

func TestProtectedRoutes(t *testing.T) {
	r, jwtMgr := setupRouter(t)

	// 未携带 Token
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/courses", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}

	// 学生访问教师接口
	token, _ := jwtMgr.GenerateAccessToken("stu-1", "student")
	req := httptest.NewRequest("POST", "/api/v1/courses/c1/draft", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}

	// Refresh Token 不能访问业务接口
	refresh, _ := jwtMgr.GenerateRefreshToken("t-1", "teacher")
	req = httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for refresh token, got %d", w.Code)
	}
}

func TestDraftRoutes_WithoutRedis(t *testing.T) {
	r, jwtMgr := setupRouter(t)

	token, _ := jwtMgr.GenerateAccessToken("t-1", "teacher")
	req := httptest.NewRequest("GET", "/api/v1/courses/c1/draft", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without draft store, got %d", w.Code)
	}
}
