// Package session owns the authentication state: who is logged in, whether a
// login/logout is in flight, and the last failure message. It is the single
// writer of the persisted session blob and of the API client's bearer token.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"clinic-client/internal/api"
	"clinic-client/internal/model"
	"clinic-client/internal/securestore"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// userKey is the fixed storage key for the serialized User blob.
const userKey = "user"

// Status is the transient request state of the session.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
)

// API is the slice of the outbound-request layer the session manager drives.
type API interface {
	Login(ctx context.Context, email, password string) (model.User, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, patch model.UserPatch) (model.UserPatch, error)
	// SetToken updates the bearer credential used by subsequent requests.
	SetToken(token string)
}

// Manager is the single source of truth for the authenticated user. Failures
// never propagate to callers; they are recorded and exposed via ErrorMessage.
// While Status is Pending exactly one login/logout/update call is outstanding;
// further calls are no-ops until it settles.
type Manager struct {
	api   API
	store securestore.Store
	log   *zap.Logger

	mu     sync.Mutex
	user   *model.User
	status Status
	errMsg string
}

// New constructs a manager with an empty session.
func New(apiClient API, store securestore.Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{api: apiClient, store: store, log: log}
}

// Restore loads the persisted session, if any. Missing or undecodable blobs
// degrade to "no session"; Restore never fails.
func (m *Manager) Restore() {
	blob, err := m.store.Get(userKey)
	if err != nil {
		m.log.Debug("no persisted session", zap.Error(err))
		return
	}
	var user model.User
	if err := json.Unmarshal(blob, &user); err != nil {
		m.log.Warn("persisted session is malformed, discarding", zap.Error(err))
		return
	}

	// The token is opaque to us, but if it happens to be a JWT we can warn
	// about staleness before the first request bounces.
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(user.Token, &claims,
		func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
		m.log.Debug("restored token appears expired", zap.Time("exp", claims.ExpiresAt.Time))
	}

	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()
	m.api.SetToken(user.Token)
	m.log.Debug("session restored", zap.Int64("userID", user.ID), zap.String("role", string(user.Role)))
}

// Login authenticates against the remote API. No client-side validation is
// applied; the server is the authority. On failure any existing session is
// left untouched, so a failed re-auth does not log the user out.
func (m *Manager) Login(ctx context.Context, email, password string) {
	if !m.begin() {
		m.log.Debug("login skipped, operation in flight")
		return
	}
	user, err := m.api.Login(ctx, email, password)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = StatusIdle
	if err != nil {
		m.errMsg = api.ErrorMessage(err)
		m.log.Warn("login failed", zap.Error(err))
		return
	}
	m.user = &user
	m.errMsg = ""
	// In-memory propagation first: the caller may issue an authenticated
	// request immediately, before the storage write lands.
	m.api.SetToken(user.Token)
	m.persistLocked()
}

// Logout tears down the session. The remote call is best-effort notification;
// local state, the persisted blob and the bearer token are cleared even when
// the server is unreachable.
func (m *Manager) Logout(ctx context.Context) {
	if !m.begin() {
		m.log.Debug("logout skipped, operation in flight")
		return
	}
	err := m.api.Logout(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = StatusIdle
	if err != nil {
		m.errMsg = api.ErrorMessage(err)
		m.log.Warn("remote logout failed, tearing down anyway", zap.Error(err))
	} else {
		m.errMsg = ""
	}
	m.user = nil
	m.api.SetToken("")
	if derr := m.store.Delete(userKey); derr != nil {
		m.log.Warn("delete persisted session", zap.Error(derr))
	}
}

// UpdateProfile sends a partial profile update and merges the server's echo
// into the current user. Requires a session.
func (m *Manager) UpdateProfile(ctx context.Context, patch model.UserPatch) {
	if !m.begin() {
		m.log.Debug("update skipped, operation in flight")
		return
	}
	m.mu.Lock()
	loggedIn := m.user != nil
	m.mu.Unlock()
	if !loggedIn {
		m.settle("You are not logged in")
		return
	}

	out, err := m.api.UpdateProfile(ctx, patch)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = StatusIdle
	if err != nil {
		m.errMsg = api.ErrorMessage(err)
		m.log.Warn("profile update failed", zap.Error(err))
		return
	}
	m.user.Apply(out)
	m.errMsg = ""
	m.persistLocked()
}

// IsProfileComplete reports whether the current user may use the main
// surface: doctors always, patients once phone number, weight and height are
// all present. Other info never matters. False without a session.
func (m *Manager) IsProfileComplete() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.user == nil:
		return false
	case m.user.Role != model.RolePatient:
		return true
	default:
		return m.user.PhoneNumber != nil && m.user.Weight != nil && m.user.Height != nil
	}
}

// User returns a copy of the authenticated user, or nil.
func (m *Manager) User() *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Status returns the transient request state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// ErrorMessage returns the last recorded failure message, empty when the last
// operation succeeded.
func (m *Manager) ErrorMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

// begin flips Idle to Pending, reporting false when an operation is already
// in flight.
func (m *Manager) begin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusPending {
		return false
	}
	m.status = StatusPending
	return true
}

// settle records a failure message and returns to Idle.
func (m *Manager) settle(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = StatusIdle
	m.errMsg = msg
}

// persistLocked writes the current user blob. Best-effort: a failed write is
// logged and the in-memory session stays authoritative.
func (m *Manager) persistLocked() {
	blob, err := json.Marshal(m.user)
	if err != nil {
		m.log.Warn("encode session", zap.Error(err))
		return
	}
	if err := m.store.Set(userKey, blob); err != nil {
		m.log.Warn("persist session", zap.Error(err))
	}
}
