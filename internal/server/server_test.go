package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	tests := []struct {
		name           string
		checks         map[string]HealthChecker
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "no dependencies",
			expectedStatus: http.StatusOK,
			expectedBody:   `"healthy"`,
		},
		{
			name: "all dependencies reachable",
			checks: map[string]HealthChecker{
				"database": pingFunc(func(context.Context) error { return nil }),
				"redis":    pingFunc(func(context.Context) error { return nil }),
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"redis":"connected"`,
		},
		{
			name: "unreachable dependency",
			checks: map[string]HealthChecker{
				"database": pingFunc(func(context.Context) error { return nil }),
				"redis":    pingFunc(func(context.Context) error { return errors.New("connection refused") }),
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   "redis unreachable",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := New("127.0.0.1:0", "release", tc.checks)

			resp := httptest.NewRecorder()
			srv.Engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, tc.expectedStatus, resp.Code)
			require.Contains(t, resp.Body.String(), tc.expectedBody)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := New("127.0.0.1:0", "release", nil)

	resp := httptest.NewRecorder()
	srv.Engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.True(t, strings.Contains(resp.Body.String(), "go_goroutines"))
}
