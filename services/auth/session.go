package auth

import (
	"context"
	"encoding/gob"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"mocca-storefront/models"
)

const (
	SessionName = "mocca"
	stateKey    = "root"
)

func init() {
	gob.Register(State{})
}

// State is everything the storefront remembers about a browser between
// requests: the shopper identity, the shopper tokens and the admin token.
type State struct {
	User              *models.User
	AccessToken       string
	RefreshToken      string
	AdminToken        string
	AdminRefreshToken string
}

func (s *State) IsAuthenticated() bool {
	return s != nil && s.User != nil && s.AccessToken != ""
}

func (s *State) IsAdmin() bool {
	return s != nil && s.AdminToken != ""
}

func (s *State) UserID() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.ID
}

func (s *State) clearShopper() {
	s.User = nil
	s.AccessToken = ""
	s.RefreshToken = ""
}

func (s *State) clearAdmin() {
	s.AdminToken = ""
	s.AdminRefreshToken = ""
}

type Options struct {
	Secret string
	Domain string
	MaxAge int
	Secure bool
}

// Manager persists State in a signed cookie.
type Manager struct {
	store  sessions.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewManager(opts Options, logger *zap.Logger) *Manager {
	store := sessions.NewCookieStore([]byte(opts.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   opts.MaxAge,
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return NewManagerWithStore(store, logger)
}

func NewManagerWithStore(store sessions.Store, logger *zap.Logger) *Manager {
	return &Manager{store: store, logger: logger, now: time.Now}
}

// Load reads the state from the request cookie. A missing or tampered cookie
// yields an empty state. Tokens whose refresh token has already expired are
// dropped so the browser is treated as logged out.
func (m *Manager) Load(r *http.Request) *State {
	session, err := m.store.Get(r, SessionName)
	if err != nil {
		m.logger.Debug("discarding unreadable session", zap.Error(err))
	}
	st := &State{}
	if session != nil {
		if saved, ok := session.Values[stateKey].(State); ok {
			*st = saved
		}
	}

	now := m.now()
	if st.RefreshToken != "" && Expired(st.RefreshToken, now) {
		st.clearShopper()
	}
	if st.AdminRefreshToken != "" && Expired(st.AdminRefreshToken, now) {
		st.clearAdmin()
	}
	return st
}

func (m *Manager) Save(w http.ResponseWriter, r *http.Request, st *State) error {
	session, _ := m.store.Get(r, SessionName)
	session.Values[stateKey] = *st
	return session.Save(r, w)
}

// Destroy expires the cookie entirely.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, SessionName)
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

type ctxKey struct{}

func WithState(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, ctxKey{}, st)
}

// FromContext returns the request state, or an empty state when the session
// middleware did not run.
func FromContext(ctx context.Context) *State {
	if st, ok := ctx.Value(ctxKey{}).(*State); ok && st != nil {
		return st
	}
	return &State{}
}

// Tokens adapts the request state to the backend client's token source,
// persisting refreshed tokens back to the cookie. A Tokens is shared by the
// concurrent backend calls of one request.
type Tokens struct {
	mu    sync.Mutex
	m     *Manager
	w     http.ResponseWriter
	r     *http.Request
	st    *State
	admin bool
}

func (m *Manager) ShopperTokens(w http.ResponseWriter, r *http.Request) *Tokens {
	return &Tokens{m: m, w: w, r: r, st: FromContext(r.Context())}
}

func (m *Manager) AdminTokens(w http.ResponseWriter, r *http.Request) *Tokens {
	return &Tokens{m: m, w: w, r: r, st: FromContext(r.Context()), admin: true}
}

func (t *Tokens) AccessToken() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.access()
}

// RefreshToken returns the token sent to the refresh endpoint. The admin
// backend refreshes with the admin token itself when no separate refresh
// token was issued.
func (t *Tokens) RefreshToken() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refresh()
}

// SetAccessToken stores token and rewrites the cookie. Setting the token
// already held is a no-op, so callers sharing one refresh write the cookie once.
func (t *Tokens) SetAccessToken(token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.access() == token {
		return nil
	}
	if t.admin {
		t.st.AdminToken = token
	} else {
		t.st.AccessToken = token
	}
	return t.m.Save(t.w, t.r, t.st)
}

// Clear drops the audience's tokens. Clearing twice saves once.
func (t *Tokens) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.access() == "" && t.refresh() == "" && (t.admin || t.st.User == nil) {
		return nil
	}
	if t.admin {
		t.st.clearAdmin()
	} else {
		t.st.clearShopper()
	}
	return t.m.Save(t.w, t.r, t.st)
}

func (t *Tokens) access() string {
	if t.admin {
		return t.st.AdminToken
	}
	return t.st.AccessToken
}

func (t *Tokens) refresh() string {
	if t.admin {
		if t.st.AdminRefreshToken != "" {
			return t.st.AdminRefreshToken
		}
		return t.st.AdminToken
	}
	return t.st.RefreshToken
}
