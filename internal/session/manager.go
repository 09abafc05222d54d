package session

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const localsKey = "session"

// TokenCodec signs session ids into cookie values and verifies them back.
type TokenCodec interface {
	Sign(sessionID string) (string, error)
	SessionID(token string) (string, error)
}

// Options configures the session cookie.
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager loads the session before each request and persists it afterwards.
type Manager struct {
	store  Store
	codec  TokenCodec
	opts   Options
	logger *zap.Logger
}

// NewManager builds a manager.
func NewManager(store Store, codec TokenCodec, opts Options, logger *zap.Logger) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "fluxo.sid"
	}
	if opts.TTL <= 0 {
		opts.TTL = 7 * 24 * time.Hour
	}
	return &Manager{store: store, codec: codec, opts: opts, logger: logger}
}

// Middleware attaches the session to the request context and commits it once
// the downstream handlers return.
func (m *Manager) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := m.load(c)
		if err != nil {
			return err
		}
		c.Locals(localsKey, sess)

		handlerErr := c.Next()
		if err := m.commit(c, sess); err != nil {
			if handlerErr == nil {
				return err
			}
			m.logger.Error("session commit failed", zap.Error(err))
		}
		return handlerErr
	}
}

// From returns the session bound to c. Without the middleware it returns a
// detached session that is never saved.
func From(c *fiber.Ctx) *Session {
	if sess, ok := c.Locals(localsKey).(*Session); ok {
		return sess
	}
	return newSession("", Data{})
}

func (m *Manager) load(c *fiber.Ctx) (*Session, error) {
	cookie := c.Cookies(m.opts.CookieName)
	if cookie == "" {
		return newSession("", Data{}), nil
	}
	id, err := m.codec.SessionID(cookie)
	if err != nil {
		m.logger.Debug("discarding invalid session cookie", zap.Error(err))
		return newSession("", Data{}), nil
	}
	data, err := m.store.Load(c.UserContext(), id)
	if errors.Is(err, ErrNotFound) {
		return newSession("", Data{}), nil
	}
	if err != nil {
		return nil, err
	}
	return newSession(id, *data), nil
}

func (m *Manager) commit(c *fiber.Ctx, sess *Session) error {
	ctx := c.UserContext()

	if sess.staleID != "" {
		if err := m.store.Delete(ctx, sess.staleID); err != nil {
			return err
		}
		sess.staleID = ""
	}

	if sess.destroyed {
		if sess.id != "" {
			if err := m.store.Delete(ctx, sess.id); err != nil {
				return err
			}
		}
		c.Cookie(&fiber.Cookie{
			Name:     m.opts.CookieName,
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			Secure:   m.opts.Secure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return nil
	}

	if !sess.dirty {
		return nil
	}

	if sess.id == "" {
		sess.id = uuid.NewString()
	}
	if err := m.store.Save(ctx, sess.id, sess.data, m.opts.TTL); err != nil {
		return err
	}
	token, err := m.codec.Sign(sess.id)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     m.opts.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.opts.TTL.Seconds()),
		Secure:   m.opts.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	sess.dirty = false
	return nil
}
