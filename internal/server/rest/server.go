package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/dto"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/metrics"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/repository"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/service"
	"github.com/scalpapaschal-dotcom/OuterCircle/pkg/logger"
	"github.com/scalpapaschal-dotcom/OuterCircle/pkg/validation"
)

type contextKey string

const (
	// DefaultPort is the default port the server listens on.
	DefaultPort = 5000
	// DefaultAddress is the default address the server listens on.
	DefaultAddress = ""
	// DefaultWriteTimeout is the default write timeout for server responses.
	DefaultWriteTimeout = 15 * time.Second
	// DefaultReadTimeout is the default read timeout for incoming requests.
	DefaultReadTimeout = 15 * time.Second

	// RequestIDHeader carries the id assigned to every request.
	RequestIDHeader = "X-Request-ID"

	maxRequestBodyBytes = 1 << 20

	contextKeyReqID = contextKey("reqID")

	// ErrMsgNotFound is a http response body message for not found status code.
	ErrMsgNotFound = "Not found"
	// ErrMsgBadRequestInvalidRequestBody is a http response body message for bad request status code.
	ErrMsgBadRequestInvalidRequestBody = "Invalid request body"
	// ErrMsgBadRequestInvalidID is a http response body message for a malformed message id.
	ErrMsgBadRequestInvalidID = "Invalid message id"
	// ErrMsgServiceUnavailable is a http response body message for service unavailable status code.
	ErrMsgServiceUnavailable = "Service unavailable"
	// ErrMsgInternalServerError is a http response body message for internal server error status code.
	ErrMsgInternalServerError = "Internal server error"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server represents the HTTP server of the message service.
type Server struct {
	*http.Server
	codeService    service.CodeService
	messageService service.MessageService
	pinger         Pinger
	metrics        *metrics.Metrics
}

// NewServer creates a new Server instance.
func NewServer(codeService service.CodeService, messageService service.MessageService, opts ...ServerOption) *Server {
	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", DefaultAddress, DefaultPort),
			WriteTimeout: DefaultWriteTimeout,
			ReadTimeout:  DefaultReadTimeout,
		},
		codeService:    codeService,
		messageService: messageService,
	}

	for _, opt := range opts {
		opt(server)
	}

	server.initRoutes()

	return server
}

// ServerOption is a function signature for providing options to configure the Server.
type ServerOption func(*Server)

// WithAddress is an option to set the server address.
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.Addr = addr
	}
}

// WithReadTimeout is an option to set the read timeout for the server.
func WithReadTimeout(timeout time.Duration) ServerOption {
	return func(s *Server) {
		s.ReadTimeout = timeout
	}
}

// WithWriteTimeout is an option to set the write timeout for the server.
func WithWriteTimeout(timeout time.Duration) ServerOption {
	return func(s *Server) {
		s.WriteTimeout = timeout
	}
}

// WithPinger is an option to set the store checked by the health endpoint.
func WithPinger(p Pinger) ServerOption {
	return func(s *Server) {
		s.pinger = p
	}
}

// WithMetrics is an option to record request metrics and expose them at /metrics.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

func (s *Server) initRoutes() {
	r := mux.NewRouter()

	r.Use(s.logMiddleware, s.metricsMiddleware)

	r.HandleFunc("/codes", s.handleNewCode).Methods(http.MethodPost)
	r.HandleFunc("/codes/{code}", s.handleCodeExists).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/codes/{code}/messages", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/messages", s.handleListMessages).Methods(http.MethodGet)
	r.HandleFunc("/messages/{id}", s.handleDeleteMessage).Methods(http.MethodDelete)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	s.Handler = r
}

func (s *Server) handleNewCode(w http.ResponseWriter, r *http.Request) {
	code, err := s.codeService.NewCode(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeSpaceExhausted):
			s.respondWithError(w, http.StatusServiceUnavailable, fmt.Sprintf("%s:%s", ErrMsgServiceUnavailable, err))
		default:
			s.respondWithInternalError(w, r, err)
		}
		return
	}

	s.respondWithJSON(w, http.StatusCreated, dto.CodeDTO{Code: code})
}

func (s *Server) handleCodeExists(w http.ResponseWriter, r *http.Request) {
	s.respondWithCode(w, r, mux.Vars(r)["code"])
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	loginDTO := &dto.LoginDTO{}
	if err := s.decode(w, r, loginDTO); err != nil {
		s.respondWithError(w, http.StatusBadRequest, ErrMsgBadRequestInvalidRequestBody)
		return
	}

	s.respondWithCode(w, r, loginDTO.Code)
}

func (s *Server) respondWithCode(w http.ResponseWriter, r *http.Request, code string) {
	exists, err := s.messageService.CodeExists(r.Context(), code)
	if err != nil {
		s.respondWithInternalError(w, r, err)
		return
	}
	if !exists {
		s.respondWithError(w, http.StatusNotFound, fmt.Sprintf("%s:%s", ErrMsgNotFound, repository.ErrUnknownCode))
		return
	}

	s.respondWithJSON(w, http.StatusOK, dto.CodeDTO{Code: validation.NormalizeCode(code)})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	submitDTO := &dto.MessageSubmitDTO{}
	if err := s.decode(w, r, submitDTO); err != nil {
		s.respondWithError(w, http.StatusBadRequest, ErrMsgBadRequestInvalidRequestBody)
		return
	}
	submitDTO.Code = mux.Vars(r)["code"]

	messageDTO, err := s.messageService.Submit(r.Context(), submitDTO)
	if err != nil {
		switch {
		case errors.Is(err, validation.ErrEmptyMessageBody):
			s.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("%s:%s", ErrMsgBadRequestInvalidRequestBody, err))
		case errors.Is(err, validation.ErrInvalidMetadata):
			s.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("%s:%s", ErrMsgBadRequestInvalidRequestBody, err))
		case errors.Is(err, repository.ErrUnknownCode):
			s.respondWithError(w, http.StatusNotFound, fmt.Sprintf("%s:%s", ErrMsgNotFound, err))
		default:
			s.respondWithInternalError(w, r, err)
		}
		return
	}

	s.respondWithJSON(w, http.StatusCreated, messageDTO)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.messageService.ListAll(r.Context())
	if err != nil {
		s.respondWithInternalError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, dto.GroupMessages(messages))
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, ErrMsgBadRequestInvalidID)
		return
	}

	if err := s.messageService.Delete(r.Context(), id); err != nil {
		s.respondWithInternalError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.PingContext(r.Context()); err != nil {
			logger.Warn("Health check failed", "request_id", requestID(r.Context()), "error", err)
			s.respondWithError(w, http.StatusServiceUnavailable, ErrMsgServiceUnavailable)
			return
		}
	}

	s.respondWithJSON(w, http.StatusOK, dto.HealthDTO{Status: "ok"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) respondWithInternalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.Error("Request failed", "request_id", requestID(r.Context()), "error", err)
	s.respondWithError(w, http.StatusInternalServerError, ErrMsgInternalServerError)
}

func (s *Server) respondWithError(w http.ResponseWriter, errCode int, errMessage string) {
	s.respondWithJSON(w, errCode, dto.ErrorDTO{Error: errMessage})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to marshall response to JSON: %s ", err))

		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte(ErrMsgInternalServerError)); err != nil {
			logger.Error(fmt.Sprintf("Failed to respond: %s", err))
		}

		return
	}

	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		logger.Error(fmt.Sprintf("Failed to respond: %s", err))
	}
}
