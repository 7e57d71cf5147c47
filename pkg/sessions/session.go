package sessions

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
)

// CookieName is the cookie carrying the session key.
const CookieName = "catalog_sessionid"

const echoKey = "session"

// Session is the state of one visitor for the current request.
type Session struct {
	Key string

	data     Data
	store    Store
	ttl      time.Duration
	modified bool
	saved    bool
}

// Get returns the raw value stored under key.
func (s *Session) Get(key string) (interface{}, bool) {
	v, ok := s.data[key]
	return v, ok
}

// Int returns the integer stored under key, or def when there is none.
// Values round-trip through JSON, so numbers come back as float64.
func (s *Session) Int(key string, def int) int {
	v, ok := s.data[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return def
	}
}

// Set stores value under key and marks the session for saving.
func (s *Session) Set(key string, value interface{}) {
	s.data[key] = value
	s.modified = true
}

// Save writes the session to the store now.
func (s *Session) Save(ctx context.Context) error {
	if err := s.store.Save(ctx, s.Key, s.data, s.ttl); err != nil {
		return err
	}
	s.modified = false
	s.saved = true
	return nil
}

// FromContext returns the session of the request. Middleware must have run.
func FromContext(c echo.Context) *Session {
	s, _ := c.Get(echoKey).(*Session)
	return s
}

// Middleware attaches a Session to every request. A session is only written,
// and its cookie only sent, once something has been stored in it.
func Middleware(store Store, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			log := logger.FromEchoContext(c)

			sess := &Session{store: store, ttl: ttl}
			if cookie, err := c.Cookie(CookieName); err == nil {
				if _, err := uuid.Parse(cookie.Value); err == nil {
					data, err := store.Load(ctx, cookie.Value)
					switch {
					case err == nil:
						sess.Key = cookie.Value
						sess.data = data
					case errors.Is(err, ErrNotFound):
					default:
						log.Err(err).Warn("failed to load session")
					}
				}
			}
			if sess.Key == "" {
				sess.Key = uuid.New().String()
				sess.data = Data{}
			}

			c.Set(echoKey, sess)

			c.Response().Before(func() {
				if sess.modified {
					if err := sess.Save(ctx); err != nil {
						log.Err(err).Error("failed to save session")
						return
					}
				}
				if sess.saved {
					c.SetCookie(&http.Cookie{
						Name:     CookieName,
						Value:    sess.Key,
						Path:     "/",
						MaxAge:   int(ttl.Seconds()),
						HttpOnly: true,
						Secure:   c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
						SameSite: http.SameSiteLaxMode,
					})
				}
			})

			return next(c)
		}
	}
}
