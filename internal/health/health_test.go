package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jaxxstorm/devdiag/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestCheckPrefersAPIHealth(t *testing.T) {
	fake := platform.NewFake(true)
	fake.Handle("http://localhost:3000/api/health", platform.Respond(200, `{"message":"Hello from Express","status":"ok"}`))
	fake.Handle("http://localhost:3000/health", platform.Respond(200, "ok"))

	status, err := NewChecker(fake, Config{}).Check(context.Background(), "http://localhost:3000/")
	require.NoError(t, err)
	assert.Equal(t, "/api/health", status.Endpoint)
	assert.Equal(t, "Hello from Express", status.Message)
	assert.True(t, status.JSON)
}

func TestCheckFallsBackInOrder(t *testing.T) {
	fake := platform.NewFake(true)
	fake.Handle("http://localhost:3000/api/health", platform.Respond(404, "not found"))
	fake.Handle("http://localhost:3000/", platform.Respond(200, "  Hello World!\n"))

	status, err := NewChecker(fake, Config{}).Check(context.Background(), "http://localhost:3000")
	require.NoError(t, err)
	assert.Equal(t, "/", status.Endpoint)
	assert.Equal(t, "Hello World!", status.Message)
	assert.False(t, status.JSON)

	urls := []string{}
	for _, req := range fake.Requests() {
		urls = append(urls, req.URL)
	}
	assert.Equal(t, []string{
		"http://localhost:3000/api/health",
		"http://localhost:3000/health",
		"http://localhost:3000/",
	}, urls)
}

func TestCheckAggregatesFailures(t *testing.T) {
	fake := platform.NewFake(true)
	_, err := NewChecker(fake, Config{}).Check(context.Background(), "http://localhost:3000")
	require.Error(t, err)
	assert.Len(t, multierr.Errors(unwrapOnce(err)), 3)
}

func TestCheckAgainstRealServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"healthy"}`))
	}))
	defer srv.Close()

	status, err := NewChecker(platform.NewSystem(platform.SystemOptions{}), Config{}).Check(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "/health", status.Endpoint)
	assert.Equal(t, "healthy", status.Message)
}

func unwrapOnce(err error) error {
	if u, ok := err.(interface{ Unwrap() error }); ok {
		return u.Unwrap()
	}
	return err
}
