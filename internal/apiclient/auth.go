package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	msgLoginFailed     = "Login gagal"
	msgMissingUserID   = "ID user tidak ditemukan, cek backend login response"
	msgRegisterFailed  = "Register gagal"
	msgNotJSON         = "Server tidak merespon dengan format yang benar."
	msgInvalidUserData = "Data user tidak valid dari server."
)

// Login posts the credentials and returns the session record. A body without
// a user identifier is an error even when the status is 2xx.
func (c *Client) Login(ctx context.Context, email, password string) (models.Session, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return models.Session{}, err
	}
	if !resp.ok() {
		return models.Session{}, resp.apiError(msgLoginFailed)
	}
	if resp.decodeErr != nil {
		return models.Session{}, &APIError{Status: resp.status, Message: msgNotJSON}
	}

	s, err := ParseSession(resp.payload, true)
	if err != nil {
		return models.Session{}, &APIError{Status: resp.status, Message: msgMissingUserID}
	}
	return s, nil
}

// Register always creates a customer account.
func (c *Client) Register(ctx context.Context, name, email, password string) (models.Session, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     models.RoleCustomer,
	})
	if err != nil {
		return models.Session{}, err
	}
	if resp.decodeErr != nil {
		return models.Session{}, &APIError{Status: resp.status, Message: msgNotJSON}
	}
	if !resp.ok() {
		return models.Session{}, resp.apiError(msgRegisterFailed)
	}

	s, err := ParseSession(resp.payload, false)
	if err != nil {
		msg := msgInvalidUserData
		if errors.Is(err, ErrMissingID) {
			msg = msgMissingUserID
		}
		return models.Session{}, &APIError{Status: resp.status, Message: msg}
	}
	return s, nil
}
