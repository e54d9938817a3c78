package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apiclient"
)

const (
	statusOK    = "ok"
	statusError = "error"

	msgUnreachable = "Server tidak dapat dihubungi"
)

type Response struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, Response{Status: statusError, Message: msg})
}

// upstreamStatus maps a remote API failure onto the status of the page.
// Client errors keep their status, everything else is a bad gateway.
func upstreamStatus(err error) (int, string) {
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status, apiErr.Message
		}
		return http.StatusBadGateway, apiErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, msgUnreachable
	default:
		return http.StatusBadGateway, msgUnreachable
	}
}

func failUpstream(c echo.Context, err error) error {
	status, msg := upstreamStatus(err)
	return fail(c, status, msg)
}

// pageError is a failure already mapped to the page status and message.
type pageError struct {
	status int
	msg    string
}

func (e *pageError) Error() string { return e.msg }

func respondError(c echo.Context, err error) error {
	var pe *pageError
	if errors.As(err, &pe) {
		return fail(c, pe.status, pe.msg)
	}
	return failUpstream(c, err)
}
