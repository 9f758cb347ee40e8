package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"truth-or-twist/internal/domain"
)

func TestObserverCounters(t *testing.T) {
	m := New()

	m.RoomCreated()
	m.SubmissionRecorded()
	m.SubmissionRecorded()
	m.RoundScored(false)
	m.RoundScored(true)
	m.OracleCall(10*time.Millisecond, nil)
	m.OracleCall(time.Second, fmt.Errorf("%w: bad reply", domain.ErrOracleFailure))
	m.OracleCall(time.Second, errors.New("dial tcp"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.roomsCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.roundsScored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gamesFinished))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.oracleCalls.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.oracleCalls.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.oracleCalls.WithLabelValues("error")))
}

func TestWrapHandlerAndExposition(t *testing.T) {
	m := New()
	h := m.WrapHandler("/rooms", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rooms", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/rooms", "201")))

	out := httptest.NewRecorder()
	m.Handler().ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, out.Code)
	assert.Contains(t, out.Body.String(), "twist_rooms_created_total")
	assert.Contains(t, out.Body.String(), `http_requests_total{route="/rooms",status="201"} 1`)
}
