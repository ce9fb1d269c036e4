package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func idemRouter(lookup IdempotencyLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/submit", func(c *gin.Context) {
		key, _ := GetIdempotencyKey(c)
		c.JSON(http.StatusOK, gin.H{
			"key":    key,
			"replay": IsReplay(c),
			"bypass": IsRateBypass(c),
		})
	})
	return r
}

func postWithKey(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyValidator_NoHeaderIsNoop(t *testing.T) {
	called := false
	r := idemRouter(func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
		called = true
		return false, nil
	})
	w := postWithKey(r, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if called {
		t.Error("lookup invoked without a key")
	}
	if body := w.Body.String(); !strings.Contains(body, `"replay":false`) {
		t.Errorf("body = %s", body)
	}
}

func TestIdempotencyValidator_RejectsBadKeys(t *testing.T) {
	r := idemRouter(nil)
	for _, key := range []string{
		"has spaces",
		"emoji✨",
		longKey(201),
	} {
		if w := postWithKey(r, key); w.Code != http.StatusBadRequest {
			t.Errorf("key %q: status = %d, want 400", key, w.Code)
		}
	}
	for _, key := range []string{"abc-123", "retry:2026-08-29", "A.B_C~d"} {
		if w := postWithKey(r, key); w.Code != http.StatusOK {
			t.Errorf("key %q: status = %d, want 200", key, w.Code)
		}
	}
}

func TestIdempotencyValidator_ReplayFlagsSet(t *testing.T) {
	var gotUser, gotKey string
	r := idemRouter(func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
		gotUser, gotKey = userID, key
		return true, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set(HeaderIdempotencyKey, "retry-1")
	req.Header.Set(HeaderUserID, "u42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if gotUser != "u42" || gotKey != "retry-1" {
		t.Errorf("lookup got (%q, %q)", gotUser, gotKey)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"replay":true`) || !strings.Contains(body, `"bypass":true`) {
		t.Errorf("body = %s", body)
	}
}

func TestIdempotencyValidator_LookupErrorDoesNotBlock(t *testing.T) {
	r := idemRouter(func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
		return false, context.DeadlineExceeded
	})
	w := postWithKey(r, "retry-2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite lookup error", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, `"replay":false`) {
		t.Errorf("body = %s", body)
	}
}

func TestIdentity_ResolutionOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, userIDFromCtx(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if w.Body.String() != defaultUserID {
		t.Errorf("fallback user = %q", w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderUserID, " u7 ")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "u7" {
		t.Errorf("header user = %q", w.Body.String())
	}
}

func longKey(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'k'
	}
	return string(b)
}
