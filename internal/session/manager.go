package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventboard/backend/internal/models"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Manager establishes, resolves and destroys sessions for HTTP requests.
type Manager struct {
	store  Store
	signer *Signer
	ttl    time.Duration
	cookie CookieConfig
}

// NewManager creates a manager whose sessions last ttl.
func NewManager(store Store, signer *Signer, ttl time.Duration, cookie CookieConfig) *Manager {
	if cookie.Name == "" {
		cookie.Name = "sid"
	}
	return &Manager{store: store, signer: signer, ttl: ttl, cookie: cookie}
}

// Establish creates a session for user and sets the cookie on the response.
func (m *Manager) Establish(c *gin.Context, user *models.User) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		UserType:  user.UserType,
		ExpiresAt: time.Now().Add(m.ttl).UTC(),
	}
	if err := m.store.Create(c.Request.Context(), s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	token, err := m.signer.Sign(s.ID, s.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.Name, token, int(m.ttl.Seconds()), "/", "", m.cookie.Secure, true)
	return s, nil
}

// Resolve returns the session of the request. Requests without a valid cookie, or
// whose session is gone, get ErrNotFound.
func (m *Manager) Resolve(c *gin.Context) (*Session, error) {
	id, ok := m.sessionID(c)
	if !ok {
		return nil, ErrNotFound
	}
	return m.store.Get(c.Request.Context(), id)
}

// Destroy deletes the request's session, if any, and clears the cookie.
func (m *Manager) Destroy(c *gin.Context) error {
	if id, ok := m.sessionID(c); ok {
		if err := m.store.Delete(c.Request.Context(), id); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.Name, "", -1, "/", "", m.cookie.Secure, true)
	return nil
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookie.Name
}

func (m *Manager) sessionID(c *gin.Context) (string, bool) {
	token, err := c.Cookie(m.cookie.Name)
	if err != nil || token == "" {
		return "", false
	}
	id, err := m.signer.Verify(token)
	if err != nil {
		return "", false
	}
	return id, true
}

// IsAnonymous reports whether err from Resolve means there simply is no session.
func IsAnonymous(err error) bool {
	return errors.Is(err, ErrNotFound)
}
