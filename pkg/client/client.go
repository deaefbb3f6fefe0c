package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the default timeout of a single request.
const DefaultTimeout = 10 * time.Second

var (
	// ErrUnknownCode is returned when the server does not know the code.
	ErrUnknownCode = errors.New("unknown code")
	// ErrInvalidRequest is returned when the server rejects the request as invalid.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnavailable is returned when the server or its store is unavailable.
	ErrUnavailable = errors.New("service unavailable")
	// ErrUnexpectedResponse is returned for any other non-success response.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// Message represents a stored message.
type Message struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	Body         string    `json:"message"`
	Sensitivity  string    `json:"sensitivity,omitempty"`
	Delivery     string    `json:"delivery,omitempty"`
	TimestampUTC time.Time `json:"timestamp_utc"`
}

// MessageGroup holds all messages of one code, newest first.
type MessageGroup struct {
	Code     string    `json:"code"`
	Messages []Message `json:"messages"`
}

// Submission is a message to be submitted for a code.
type Submission struct {
	Body        string `json:"message"`
	Sensitivity string `json:"sensitivity,omitempty"`
	Delivery    string `json:"delivery,omitempty"`
}

type codeBody struct {
	Code string `json:"code"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Client talks to the message service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the timeout of a single request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new client for the server at serverAddress.
// An address without a scheme is treated as plain http.
func NewClient(serverAddress string, opts ...Option) *Client {
	if !strings.Contains(serverAddress, "://") {
		serverAddress = "http://" + serverAddress
	}

	c := &Client{
		baseURL:    strings.TrimRight(serverAddress, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewCode asks the server for a new unique code.
func (c *Client) NewCode(ctx context.Context) (string, error) {
	resp := codeBody{}
	if err := c.do(ctx, http.MethodPost, "/codes", nil, http.StatusCreated, &resp); err != nil {
		return "", err
	}

	return resp.Code, nil
}

// CodeExists reports whether code is registered.
func (c *Client) CodeExists(ctx context.Context, code string) (bool, error) {
	err := c.do(ctx, http.MethodGet, "/codes/"+url.PathEscape(code), nil, http.StatusOK, nil)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUnknownCode):
		return false, nil
	default:
		return false, err
	}
}

// Login checks code and returns its canonical form. It returns ErrUnknownCode when the code is not registered.
func (c *Client) Login(ctx context.Context, code string) (string, error) {
	resp := codeBody{}
	if err := c.do(ctx, http.MethodPost, "/login", codeBody{Code: code}, http.StatusOK, &resp); err != nil {
		return "", err
	}

	return resp.Code, nil
}

// Submit stores a message for code.
func (c *Client) Submit(ctx context.Context, code string, submission Submission) (*Message, error) {
	message := &Message{}
	if err := c.do(ctx, http.MethodPost, "/codes/"+url.PathEscape(code)+"/messages", submission, http.StatusCreated, message); err != nil {
		return nil, err
	}

	return message, nil
}

// ListMessages returns all messages grouped by code.
func (c *Client) ListMessages(ctx context.Context) ([]MessageGroup, error) {
	groups := []MessageGroup{}
	if err := c.do(ctx, http.MethodGet, "/messages", nil, http.StatusOK, &groups); err != nil {
		return nil, err
	}

	return groups, nil
}

// DeleteMessage removes the message with the given id. Deleting a missing message succeeds.
func (c *Client) DeleteMessage(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/messages/"+strconv.FormatInt(id, 10), nil, http.StatusNoContent, nil)
}

// Health returns nil when the server and its store are reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, http.StatusOK, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return statusError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func statusError(resp *http.Response) error {
	errResp := errorBody{}
	_ = json.NewDecoder(resp.Body).Decode(&errResp)

	reason := errResp.Error
	if reason == "" {
		reason = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrUnknownCode, reason)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, reason)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", ErrUnavailable, reason)
	default:
		return fmt.Errorf("%w: %s", ErrUnexpectedResponse, reason)
	}
}
