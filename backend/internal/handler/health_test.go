package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- Mock for HealthChecker ---

type MockHealthChecker struct {
	PingFunc func(ctx context.Context) error
}

func (m *MockHealthChecker) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil // Default: healthy
}

// --- Tests ---

func TestHealth(t *testing.T) {
	t.Run("always returns 200 OK", func(t *testing.T) {
		// Arrange
		handler, _, _, _ := testHandler()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Health(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ok", rr.Body.String())
	})
}

func TestReady(t *testing.T) {
	t.Run("returns 200 OK when the store answers", func(t *testing.T) {
		// Arrange
		handler, _, _, _ := testHandler()
		called := false
		handler.health = &MockHealthChecker{
			PingFunc: func(ctx context.Context) error {
				called = true
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline, "ping must be bounded")
				return nil
			},
		}
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Ready(rr, req)

		// Assert
		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ok", rr.Body.String())
	})

	t.Run("returns 503 when the store is down", func(t *testing.T) {
		// Arrange
		handler, _, _, _ := testHandler()
		handler.health = &MockHealthChecker{
			PingFunc: func(ctx context.Context) error {
				return errors.New("connection refused")
			},
		}
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Ready(rr, req)

		// Assert
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, "database unavailable", rr.Body.String())
	})
}
