package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func testEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	New(nil, nil, nil, nil).Register(engine)
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestUploadRejectsMissingMetadata(t *testing.T) {
	w := doRequest(t, testEngine(), http.MethodPost, "/recordings", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUploadRejectsMalformedMetadata(t *testing.T) {
	w := doRequest(t, testEngine(), http.MethodPost, "/recordings", "metadata=not-json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRetrieveRejectsMalformedID(t *testing.T) {
	w := doRequest(t, testEngine(), http.MethodGet, "/recordings/id/not-a-uuid", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestTokenRejectsMalformedID(t *testing.T) {
	w := doRequest(t, testEngine(), http.MethodGet, "/recordings/token/not-a-uuid", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRandomRejectsBadCount(t *testing.T) {
	for _, path := range []string{
		"/recordings/random/0",
		"/recordings/random/101",
		"/recordings/random/abc",
	} {
		w := doRequest(t, testEngine(), http.MethodGet, path, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, w.Code)
		}
	}
}
