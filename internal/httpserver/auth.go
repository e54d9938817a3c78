package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

const msgSessionSave = "Gagal menyimpan sesi"

type sessionResponse struct {
	Response
	User models.Session `json:"user"`
}

func (h *StorefrontHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	sess, err := h.API.Login(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		l.Warn("login_failed", "reason", "rejected by api", "error", err)
		return failUpstream(c, err)
	}
	if err := h.Sessions.Save(ctx, sess); err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot save session", "error", err)
		return fail(c, http.StatusInternalServerError, msgSessionSave)
	}

	h.Events.Emit(events.TopicUser, strconv.FormatInt(sess.ID, 10), map[string]any{
		"type":   "user_logged_in",
		"userID": sess.ID,
		"role":   sess.Role,
	})

	redirect := "/dashboard/user"
	if sess.IsAdmin() {
		redirect = "/dashboard/admin"
	}
	l.Info("login_success", "user_id", sess.ID, "role", sess.Role)
	return c.JSON(http.StatusOK, sessionResponse{
		Response: Response{Status: statusOK, Redirect: redirect},
		User:     sess,
	})
}

func (h *StorefrontHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_failed", "status", 400, "reason", "invalid body", "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	sess, err := h.API.Register(ctx, strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		l.Warn("register_failed", "reason", "rejected by api", "error", err)
		return failUpstream(c, err)
	}
	if err := h.Sessions.Save(ctx, sess); err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot save session", "error", err)
		return fail(c, http.StatusInternalServerError, msgSessionSave)
	}

	h.Events.Emit(events.TopicUser, strconv.FormatInt(sess.ID, 10), map[string]any{
		"type":   "user_registered",
		"userID": sess.ID,
		"email":  sess.Email,
	})

	l.Info("register_success", "user_id", sess.ID)
	return c.JSON(http.StatusCreated, sessionResponse{
		Response: Response{Status: statusOK, Redirect: "/dashboard/user"},
		User:     sess,
	})
}

// Logout drops the session and keeps the cart.
func (h *StorefrontHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	sess, loadErr := h.Sessions.Load(ctx)
	if err := h.Sessions.Clear(ctx); err != nil {
		l.Error("logout_failed", "status", 500, "error", err)
		return fail(c, http.StatusInternalServerError, "Gagal logout")
	}

	if loadErr == nil {
		h.Events.Emit(events.TopicUser, strconv.FormatInt(sess.ID, 10), map[string]any{
			"type":   "user_logged_out",
			"userID": sess.ID,
		})
	}
	l.Info("logout_success")
	return c.JSON(http.StatusOK, Response{Status: statusOK, Redirect: "/"})
}
