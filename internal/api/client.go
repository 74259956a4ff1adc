// Package api is the HTTP client for the clinic submission-tracking service.
// All endpoints exchange JSON; authenticated calls carry the current session
// token as a bearer credential.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"clinic-client/internal/model"

	u "github.com/gofrs/uuid/v5"
	"github.com/google/go-querystring/query"
	"go.uber.org/zap"
)

// DeviceName identifies the client type on login, as the contract requires a
// fixed literal per client.
const DeviceName = "cli"

// Client talks to one deployment of the clinic API.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     *zap.Logger

	mu    sync.RWMutex
	token string
}

// New builds a client for the given base URL (e.g. "http://localhost/api").
// A zero timeout leaves the transport's default in place.
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		log:     log,
	}
}

// SetToken replaces the bearer credential used on subsequent requests.
// An empty string clears it. The update is synchronous: the next request
// issued after SetToken returns already carries the new value.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the currently configured bearer credential.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceName string `json:"device_name"`
}

type loginResponse struct {
	Token string     `json:"token"`
	Data  model.User `json:"data"`
}

// Login authenticates and returns the user with the issued token merged in.
// It does not touch the client's own credential; the session layer decides
// when to propagate it.
func (c *Client) Login(ctx context.Context, email, password string) (model.User, error) {
	var out loginResponse
	err := c.do(ctx, http.MethodPost, "/login", loginRequest{
		Email:      email,
		Password:   password,
		DeviceName: DeviceName,
	}, &out)
	if err != nil {
		return model.User{}, err
	}
	user := out.Data
	user.Token = out.Token
	return user, nil
}

// Logout notifies the server that the current token should be revoked.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}

// SignupRequest is the payload for account creation.
type SignupRequest struct {
	Name                 string     `json:"name"`
	Email                string     `json:"email"`
	Password             string     `json:"password"`
	PasswordConfirmation string     `json:"password_confirmation"`
	Role                 model.Role `json:"role"`
}

// Signup creates a new account. The caller logs in separately afterwards.
func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	return c.do(ctx, http.MethodPost, "/signup", req, nil)
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

// UpdateProfile sends a partial profile update and returns the fields the
// server echoed back, to be merged into the session user.
func (c *Client) UpdateProfile(ctx context.Context, patch model.UserPatch) (model.UserPatch, error) {
	var out dataEnvelope[model.UserPatch]
	if err := c.do(ctx, http.MethodPut, "/update", patch, &out); err != nil {
		return model.UserPatch{}, err
	}
	return out.Data, nil
}

// SubmissionPage is one page of the submissions listing.
type SubmissionPage struct {
	Items      []model.Submission
	Pagination model.Pagination
}

type submissionsQuery struct {
	Page   int    `url:"page"`
	Status string `url:"status,omitempty"`
}

type submissionsResponse struct {
	Data       []model.Submission `json:"data"`
	Pagination model.Pagination   `json:"pagination"`
}

// Submissions fetches one page of the listing. An empty status means "all";
// otherwise it is sent as the status query parameter.
func (c *Client) Submissions(ctx context.Context, page int, status string) (SubmissionPage, error) {
	v, err := query.Values(submissionsQuery{Page: page, Status: status})
	if err != nil {
		return SubmissionPage{}, err
	}
	var out submissionsResponse
	if err := c.do(ctx, http.MethodGet, "/submissions?"+v.Encode(), nil, &out); err != nil {
		return SubmissionPage{}, err
	}
	return SubmissionPage{Items: out.Data, Pagination: out.Pagination}, nil
}

// Submission fetches a single submission by id.
func (c *Client) Submission(ctx context.Context, id int64) (model.Submission, error) {
	var out dataEnvelope[model.Submission]
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/submissions/%d", id), nil, &out); err != nil {
		return model.Submission{}, err
	}
	return out.Data, nil
}

type createSubmissionRequest struct {
	Title    string `json:"title"`
	Symptoms string `json:"symptoms"`
}

// CreateSubmission files a new symptom report.
func (c *Client) CreateSubmission(ctx context.Context, title, symptoms string) error {
	return c.do(ctx, http.MethodPost, "/submissions", createSubmissionRequest{Title: title, Symptoms: symptoms}, nil)
}

// do executes one request/response round trip. A non-2xx status is returned
// as *Error carrying whatever error envelope the body held.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rid, err := u.NewV4(); err == nil {
		req.Header.Set("X-Request-Id", rid.String())
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(method, path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) decodeError(method, path string, resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}
	b, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if readErr == nil && len(b) > 0 {
		var env errorEnvelope
		if json.Unmarshal(b, &env) == nil && env.Error != nil {
			apiErr.Message = env.Error.Message
			apiErr.Fields = env.Error.Fields
		}
	}
	c.log.Debug("request failed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return apiErr
}
