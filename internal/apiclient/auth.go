package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bigkaa/dochub-portal/internal/domain/apperr"
	"github.com/bigkaa/dochub-portal/internal/domain/model"
)

// tokenResponse — ответ POST /auth/login.
type tokenResponse struct {
	AccessToken string `json:"access_token"` //nolint:gosec // G117: JSON-маппинг OAuth2 ответа
	TokenType   string `json:"token_type"`
}

// Login обменивает email и пароль на токен доступа.
// POST /auth/login — form-urlencoded (username, password), OAuth2 password flow.
// Неверные учётные данные — apperr.ErrAuth с сообщением backend.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{
		"username": {email},
		"password": {password},
	}

	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		endpoint:    "/auth/login",
		path:        "/auth/login",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		public:      true,
	})
	if err != nil {
		return "", err
	}

	var token tokenResponse
	if err := decodeResponse(resp, &token); err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", apperr.Auth("Сервер не выдал токен доступа")
	}
	if token.TokenType != "" && !strings.EqualFold(token.TokenType, "bearer") {
		return "", fmt.Errorf("неподдерживаемый тип токена %q", token.TokenType)
	}

	return token.AccessToken, nil
}

// Register регистрирует нового пользователя.
// POST /auth/register — публичный endpoint.
func (c *Client) Register(ctx context.Context, in model.UserCreate) (*model.User, error) {
	body, err := encodeJSON(in)
	if err != nil {
		return nil, err
	}

	var user model.User
	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		endpoint:    "/auth/register",
		path:        "/auth/register",
		body:        body,
		contentType: "application/json",
		public:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decodeResponse(resp, &user); err != nil {
		return nil, err
	}
	user.Roles = model.NormalizeRoles(user.Roles)
	return &user, nil
}

// Me возвращает пользователя, которому принадлежит токен клиента.
// GET /auth/me
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	user.Roles = model.NormalizeRoles(user.Roles)
	return &user, nil
}

// CurrentUser возвращает пользователя для явно переданного токена.
// Используется хранилищем сессии до сохранения токена.
func (c *Client) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	bound := c.WithTokenProvider(func(context.Context) (string, error) {
		return token, nil
	})
	return bound.Me(ctx)
}
