package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	return string(body)
}

func TestCounters(t *testing.T) {
	m := New()

	m.CodeIssued()
	m.CodeIssued()
	m.CodeCollision(StageCheck)
	m.CodeCollision(StageInsert)
	m.CodeCollision(StageInsert)
	m.MessageSubmitted()
	m.MessageRejected("empty_body")
	m.MessageDeleted()

	out := scrape(t, m)
	data := []string{
		"outercircle_codes_issued_total 2",
		`outercircle_code_collisions_total{stage="check"} 1`,
		`outercircle_code_collisions_total{stage="insert"} 2`,
		"outercircle_messages_submitted_total 1",
		`outercircle_message_rejections_total{reason="empty_body"} 1`,
		"outercircle_messages_deleted_total 1",
	}

	for _, line := range data {
		assert.Contains(t, out, line)
	}
}

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodPost, "/codes", http.StatusCreated, 10*time.Millisecond)

	assert.Contains(t, scrape(t, m), `outercircle_http_request_duration_seconds_count{method="POST",route="/codes",status="201"} 1`)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.CodeIssued()
		m.CodeCollision(StageCheck)
		m.MessageSubmitted()
		m.MessageRejected("empty_body")
		m.MessageDeleted()
		m.ObserveRequest(http.MethodGet, "/messages", http.StatusOK, time.Millisecond)
	})
}

func TestNewIsIndependent(t *testing.T) {
	require.NotPanics(t, func() {
		a := New()
		b := New()
		a.CodeIssued()
		assert.NotContains(t, scrape(t, b), "outercircle_codes_issued_total 1")
	})
}
