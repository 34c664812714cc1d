package ops

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type sendStats uint64

func (s sendStats) ErrorCount() uint64 { return uint64(s) }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, NewRouter(pinger{err: errors.New("down")}, sendStats(3)), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())
	assert.Equal(t, int64(3), gjson.Get(rec.Body.String(), "send_errors").Int())

	rec = get(t, NewRouter(pinger{}, nil), "/healthz")
	assert.False(t, gjson.Get(rec.Body.String(), "send_errors").Exists())
}

func TestReadyz(t *testing.T) {
	rec := get(t, NewRouter(pinger{}, nil), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "checks.database").String())

	rec = get(t, NewRouter(pinger{err: errors.New("down")}, nil), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", gjson.Get(rec.Body.String(), "status").String())
	assert.Equal(t, "unreachable", gjson.Get(rec.Body.String(), "checks.database").String())
}
