// Package client is a typed HTTP client for the /api/users endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"users-crud/pkg/logger"
)

const usersPath = "/api/users"

// User is the wire representation of a user record.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// Users talks to the users API.
type Users struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// New creates a client for baseURL with a per-call timeout.
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Users {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout}, log)
}

// NewWithHTTPClient creates a client that sends requests through hc.
func NewWithHTTPClient(baseURL string, hc *http.Client, log *zap.Logger) *Users {
	return &Users{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		log:     log.Named("client"),
	}
}

// List returns every user.
func (c *Users) List(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, nil, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// Create stores a new user and returns it with its assigned id.
func (c *Users) Create(ctx context.Context, name, email string) (User, error) {
	var created User
	err := c.do(ctx, http.MethodPost, map[string]string{"name": name, "email": email}, &created)
	return created, err
}

// Update overwrites name and email of u.ID.
func (c *Users) Update(ctx context.Context, u User) error {
	return c.do(ctx, http.MethodPut, u, nil)
}

// Delete removes the user with id.
func (c *Users) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, map[string]int64{"id": id}, nil)
}

func (c *Users) do(ctx context.Context, method string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+usersPath, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := logger.GetRequestID(ctx)
	if requestID == "" {
		requestID = logger.NewRequestID()
	}
	req.Header.Set(logger.RequestIDHeader, requestID)

	log := c.log.With(zap.String("request_id", requestID), zap.String("method", method))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, usersPath, err)
	}
	defer resp.Body.Close()

	log.Debug("response received", zap.Int("status", resp.StatusCode), zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{StatusCode: resp.StatusCode}
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil {
			serr.Code = payload.Error
			serr.Message = payload.Message
		}
		return serr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
