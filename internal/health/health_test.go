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

func ok(context.Context) error { return nil }

func TestStatusAggregation(t *testing.T) {
	c := NewChecker()
	assert.Equal(t, StatusHealthy, c.Status())

	c.Register("bus", true, 0, ok)
	assert.Equal(t, StatusUnknown, c.Status())

	c.Check(context.Background())
	assert.Equal(t, StatusHealthy, c.Status())

	c.Register("journal", false, 0, func(context.Context) error { return errors.New("locked") })
	results := c.Check(context.Background())
	assert.Equal(t, StatusDegraded, c.Status())
	assert.Equal(t, "locked", results["journal"].Error)

	c.Register("bus", true, 0, func(context.Context) error { return errors.New("disconnected") })
	c.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, c.Status())
	assert.Equal(t, []string{"bus", "journal"}, c.Names())
}

func TestCheckTimeout(t *testing.T) {
	c := NewChecker()
	c.Register("slow", true, 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return nil
	})

	r := c.Check(context.Background())["slow"]
	assert.Equal(t, StatusUnhealthy, r.Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), r.Error)
}

func TestCheckPanic(t *testing.T) {
	c := NewChecker()
	c.Register("broken", false, 0, func(context.Context) error { panic("boom") })

	r := c.Check(context.Background())["broken"]
	assert.Equal(t, StatusUnhealthy, r.Status)
	assert.Contains(t, r.Error, "boom")
}

func TestHandler(t *testing.T) {
	c := NewChecker()
	c.Register("bus", true, 0, ok)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	c.SetReady(true)
	rec = httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.True(t, resp.Ready)
	assert.Equal(t, StatusHealthy, resp.Components["bus"].Status)
}
