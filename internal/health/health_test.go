package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_AllPass(t *testing.T) {
	c := NewChecker(time.Second)
	c.Add("database", func(ctx context.Context) error { return nil })
	c.Add("cache", func(ctx context.Context) error { return nil })

	r := c.Run(context.Background())
	assert.True(t, r.Healthy())
	assert.Equal(t, map[string]string{"database": "ok", "cache": "ok"}, r.Checks)
}

func TestChecker_OneFails(t *testing.T) {
	c := NewChecker(time.Second)
	c.Add("database", func(ctx context.Context) error { return errors.New("connection refused") })
	c.Add("cache", func(ctx context.Context) error { return nil })

	r := c.Run(context.Background())
	assert.False(t, r.Healthy())
	assert.Equal(t, StatusFail, r.Status)
	assert.Equal(t, "connection refused", r.Checks["database"])
	assert.Equal(t, StatusOK, r.Checks["cache"])
}

func TestChecker_Timeout(t *testing.T) {
	c := NewChecker(20 * time.Millisecond)
	c.Add("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	r := c.Run(context.Background())
	assert.False(t, r.Healthy())
	assert.Contains(t, r.Checks["slow"], "deadline exceeded")
}

func TestChecker_NoChecks(t *testing.T) {
	r := NewChecker(0).Run(context.Background())
	assert.True(t, r.Healthy())
	assert.Empty(t, r.Checks)
}

func TestHandler(t *testing.T) {
	healthy := true
	c := NewChecker(time.Second)
	c.Add("database", func(ctx context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("down")
	})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var r Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	assert.Equal(t, StatusOK, r.Status)

	healthy = false
	rec = httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	assert.Equal(t, "down", r.Checks["database"])
}
