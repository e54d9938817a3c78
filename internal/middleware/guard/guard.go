package guard

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/session"
)

const (
	LoginPath  = "/login"
	CtxSession = "session"
)

type Sessions interface {
	Load(ctx context.Context) (models.Session, error)
	Clear(ctx context.Context) error
}

type Guard struct {
	Sessions Sessions
}

func New(sessions Sessions) *Guard {
	return &Guard{Sessions: sessions}
}

// RequireSession lets the request through only with a readable session.
func (g *Guard) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return g.require(next, "")
}

// RequireRole also demands that the session carries role.
func (g *Guard) RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return g.require(next, role)
	}
}

func (g *Guard) require(next echo.HandlerFunc, role string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "guard", "path", c.Path())

		sess, err := g.Sessions.Load(ctx)
		switch {
		case errors.Is(err, session.ErrNoSession):
			return c.Redirect(http.StatusFound, LoginPath)
		case errors.Is(err, session.ErrMalformed):
			l.Warn("session_malformed_destroyed", "error", err)
			if cErr := g.Sessions.Clear(ctx); cErr != nil {
				l.Error("session_clear_failed", "error", cErr)
			}
			return c.Redirect(http.StatusFound, LoginPath)
		case err != nil:
			l.Error("session_read_failed", "error", err)
			return c.Redirect(http.StatusFound, LoginPath)
		}

		if role != "" && sess.Role != role {
			l.Info("role_mismatch", "required", role, "role", sess.Role)
			return c.Redirect(http.StatusFound, LoginPath)
		}

		c.Set(CtxSession, sess)
		return next(c)
	}
}

func SessionFrom(c echo.Context) (models.Session, bool) {
	sess, ok := c.Get(CtxSession).(models.Session)
	return sess, ok
}
