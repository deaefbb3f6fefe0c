package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/scalpapaschal-dotcom/OuterCircle/internal/dto"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/metrics"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/model"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/repository"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/service"
	"github.com/scalpapaschal-dotcom/OuterCircle/pkg/rand"
	"github.com/scalpapaschal-dotcom/OuterCircle/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func newTestServer(t *testing.T, repo *repository.MockMessageRepository, opts ...ServerOption) *Server {
	t.Helper()

	m := metrics.New()
	codeService := service.NewCodeService(repo, rand.UpperAlphanumeric, 4, service.WithCodeMetrics(m))
	messageService := service.NewMessageService(repo, m, service.WithCodeFormat(rand.UpperAlphanumeric, 4))

	return NewServer(codeService, messageService, append([]ServerOption{WithMetrics(m)}, opts...)...)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	errDTO := dto.ErrorDTO{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errDTO))
	return errDTO.Error
}

func TestNewCode(t *testing.T) {
	repo := repository.NewMockMessageRepository()
	s := newTestServer(t, repo)

	rec := do(t, s, http.MethodPost, "/codes", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	codeDTO := dto.CodeDTO{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&codeDTO))
	assert.Len(t, codeDTO.Code, 4)

	exists, err := repo.CodeExists(context.Background(), codeDTO.Code)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNewCodeErrors(t *testing.T) {
	data := []struct {
		name       string
		existsErr  error
		exists     bool
		opts       []service.CodeServiceOption
		wantStatus int
	}{
		{"store unavailable", repository.ErrStoreUnavailable, false, nil, http.StatusInternalServerError},
		{"code space exhausted", nil, true, []service.CodeServiceOption{service.WithMaxAttempts(2)}, http.StatusServiceUnavailable},
	}

	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			repo := repository.NewMockMessageRepository()
			repo.CodeExistsFn = func(ctx context.Context, code string) (bool, error) {
				return d.exists, d.existsErr
			}

			codeService := service.NewCodeService(repo, rand.UpperAlphanumeric, 4, d.opts...)
			s := NewServer(codeService, service.NewMessageService(repo, nil))

			rec := do(t, s, http.MethodPost, "/codes", "")
			assert.Equal(t, d.wantStatus, rec.Code)
		})
	}
}

func TestCodeExistsAndLogin(t *testing.T) {
	repo := repository.NewMockMessageRepository()
	_, err := repo.CreateUser(context.Background(), "AB12")
	require.NoError(t, err)
	s := newTestServer(t, repo)

	data := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"get existing", http.MethodGet, "/codes/AB12", "", http.StatusOK},
		{"get lower case", http.MethodGet, "/codes/ab12", "", http.StatusOK},
		{"get unknown", http.MethodGet, "/codes/ZZ99", "", http.StatusNotFound},
		{"login existing", http.MethodPost, "/login", `{"code":" ab12 "}`, http.StatusOK},
		{"login unknown", http.MethodPost, "/login", `{"code":"ZZ99"}`, http.StatusNotFound},
		{"login empty", http.MethodPost, "/login", `{"code":""}`, http.StatusNotFound},
		{"get too long", http.MethodGet, "/codes/AB123", "", http.StatusNotFound},
		{"login malformed", http.MethodPost, "/login", `{"code":`, http.StatusBadRequest},
	}

	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			rec := do(t, s, d.method, d.path, d.body)
			require.Equal(t, d.wantStatus, rec.Code)

			if d.wantStatus == http.StatusOK {
				codeDTO := dto.CodeDTO{}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&codeDTO))
				assert.Equal(t, "AB12", codeDTO.Code)
			}
		})
	}
}

func TestSubmit(t *testing.T) {
	repo := repository.NewMockMessageRepository()
	_, err := repo.CreateUser(context.Background(), "AB12")
	require.NoError(t, err)
	s := newTestServer(t, repo)

	data := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"valid", "/codes/AB12/messages", `{"message":"hello","sensitivity":"high"}`, http.StatusCreated, ""},
		{"lower case code", "/codes/ab12/messages", `{"message":"hello"}`, http.StatusCreated, ""},
		{"empty body", "/codes/AB12/messages", `{"message":"   "}`, http.StatusBadRequest, "message must not be empty"},
		{"long metadata", "/codes/AB12/messages", `{"message":"hi","delivery":"` + strings.Repeat("x", 51) + `"}`, http.StatusBadRequest, "at most 50 characters"},
		{"unknown code", "/codes/ZZ99/messages", `{"message":"hello"}`, http.StatusNotFound, repository.ErrUnknownCode.Error()},
		{"malformed code", "/codes/AB-12/messages", `{"message":"hello"}`, http.StatusNotFound, validation.ErrInvalidCode.Error()},
		{"malformed json", "/codes/AB12/messages", `not json`, http.StatusBadRequest, ErrMsgBadRequestInvalidRequestBody},
	}

	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, d.path, d.body)
			require.Equal(t, d.wantStatus, rec.Code)

			if d.wantError != "" {
				assert.Contains(t, decodeError(t, rec), d.wantError)
				return
			}

			messageDTO := dto.MessageDTO{}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&messageDTO))
			assert.Equal(t, "AB12", messageDTO.Code)
			assert.Equal(t, "hello", messageDTO.Message)
			assert.NotZero(t, messageDTO.ID)
		})
	}

	assert.Equal(t, 2, repo.MessageCount())
}

func TestSubmitStoreUnavailable(t *testing.T) {
	repo := repository.NewMockMessageRepository()
	repo.AddMessageFn = func(ctx context.Context, message *model.Message) (int64, error) {
		return 0, repository.ErrStoreUnavailable
	}
	s := newTestServer(t, repo)

	rec := do(t, s, http.MethodPost, "/codes/AB12/messages", `{"message":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ErrMsgInternalServerError, decodeError(t, rec))
}

func TestListMessages(t *testing.T) {
	repo := repository.NewMockMessageRepository()
	for _, code := range []string{"BBBB", "AAAA"} {
		_, err := repo.CreateUser(context.Background(), code)
		require.NoError(t, err)
	}
	s := newTestServer(t, repo)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	submits := []struct {
		code string
		at   time.Time
	}{
		{"BBBB", base},
		{"AAAA", base.Add(time.Hour)},
		{"AAAA", base.Add(time.Hour + 5*time.Minute)},
	}
	for _, sub := range submits {
		at := sub.at
		repo.Now = func() time.Time { return at }
		rec := do(t, s, http.MethodPost, "/codes/"+sub.code+"/messages", `{"message":"m"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := do(t, s, http.MethodGet, "/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)

	groups := []*dto.MessageGroupDTO{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&groups))
	require.Len(t, groups, 2)

	assert.Equal(t, "AAAA", groups[0].Code)
	require.Len(t, groups[0].Messages, 2)
	assert.True(t, groups[0].Messages[0].TimestampUTC.Equal(base.Add(time.Hour+5*time.Minute)))
	assert.True(t, groups[0].Messages[1].TimestampUTC.Equal(base.Add(time.Hour)))

	assert.Equal(t, "BBBB", groups[1].Code)
	require.Len(t, groups[1].Messages, 1)
}

func TestListMessagesEmpty(t *testing.T) {
	s := newTestServer(t, repository.NewMockMessageRepository())

	rec := do(t, s, http.MethodGet, "/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListMessagesStoreUnavailable(t *testing.T) {
	repo := repository.NewMockMessageRepository()
	repo.GetAllFn = func(ctx context.Context) ([]*model.Message, error) {
		return nil, repository.ErrStoreUnavailable
	}
	s := newTestServer(t, repo)

	rec := do(t, s, http.MethodGet, "/messages", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDeleteMessage(t *testing.T) {
	repo := repository.NewMockMessageRepository()
	_, err := repo.CreateUser(context.Background(), "AB12")
	require.NoError(t, err)
	s := newTestServer(t, repo)

	for i := 0; i < 2; i++ {
		rec := do(t, s, http.MethodPost, "/codes/AB12/messages", `{"message":"m"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	data := []struct {
		name       string
		path       string
		wantStatus int
		wantCount  int
	}{
		{"existing", "/messages/1", http.StatusNoContent, 1},
		{"already deleted", "/messages/1", http.StatusNoContent, 1},
		{"never existed", "/messages/999", http.StatusNoContent, 1},
		{"non numeric", "/messages/abc", http.StatusBadRequest, 1},
	}

	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			rec := do(t, s, http.MethodDelete, d.path, "")
			assert.Equal(t, d.wantStatus, rec.Code)
			assert.Equal(t, d.wantCount, repo.MessageCount())
		})
	}
}

func TestDeleteMessageStoreUnavailable(t *testing.T) {
	repo := repository.NewMockMessageRepository()
	repo.DeleteFn = func(ctx context.Context, id int64) (bool, error) {
		return false, repository.ErrStoreUnavailable
	}
	s := newTestServer(t, repo)

	rec := do(t, s, http.MethodDelete, "/messages/1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealth(t *testing.T) {
	data := []struct {
		name       string
		pinger     Pinger
		wantStatus int
	}{
		{"no pinger", nil, http.StatusOK},
		{"healthy", pingerFunc(func(ctx context.Context) error { return nil }), http.StatusOK},
		{"unreachable", pingerFunc(func(ctx context.Context) error { return errors.New("connection refused") }), http.StatusServiceUnavailable},
	}

	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			s := newTestServer(t, repository.NewMockMessageRepository(), WithPinger(d.pinger))

			rec := do(t, s, http.MethodGet, "/health", "")
			assert.Equal(t, d.wantStatus, rec.Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, repository.NewMockMessageRepository())

	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/codes", "").Code)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "outercircle_codes_issued_total 1")
	assert.Contains(t, rec.Body.String(), `route="/codes"`)
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, repository.NewMockMessageRepository())

	rec := do(t, s, http.MethodPut, "/messages", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServerOptions(t *testing.T) {
	repo := repository.NewMockMessageRepository()
	s := NewServer(
		service.NewCodeService(repo, rand.UpperAlphanumeric, 4),
		service.NewMessageService(repo, nil),
		WithAddress("127.0.0.1:8080"),
		WithReadTimeout(time.Second),
		WithWriteTimeout(2*time.Second),
	)

	assert.Equal(t, "127.0.0.1:8080", s.Addr)
	assert.Equal(t, time.Second, s.ReadTimeout)
	assert.Equal(t, 2*time.Second, s.WriteTimeout)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	data := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"ipv4", "192.0.2.1:1234", "", "192.0.2.1"},
		{"ipv6", "[2001:db8::1]:1234", "", "2001:db8::1"},
		{"forwarded", "10.0.0.1:1234", "203.0.113.7, 10.0.0.1", "203.0.113.7"},
	}

	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = d.remoteAddr
			if d.forwarded != "" {
				r.Header.Set("X-Forwarded-For", d.forwarded)
			}
			assert.Equal(t, d.want, getClientIP(r))
		})
	}
}
