// Пакет apiclient — HTTP-клиент к backend API DocHub (FastAPI).
// Базовый URL: DH_API_URL + /api/v1. Авторизация: Authorization: Bearer <token>.
// Поддерживает TLS с кастомным CA (DH_API_CA_CERT_PATH).
//
// Ответы с ошибкой преобразуются в таксономию apperr:
// 400/409/422 — ErrValidation, 401 — ErrAuth, 403 — ErrForbidden,
// 404 — ErrNotFound, 5xx и транспортные ошибки — ErrNetwork.
// Текст detail из ответа backend передаётся пользователю дословно.
package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bigkaa/dochub-portal/internal/domain/apperr"
)

// apiPrefix — префикс версионированного API backend.
const apiPrefix = "/api/v1"

// maxErrorBody — предел чтения тела ответа с ошибкой.
const maxErrorBody = 64 << 10

// TokenProvider — функция, возвращающая токен доступа текущего пользователя.
type TokenProvider func(ctx context.Context) (string, error)

// Client — HTTP-клиент backend API.
// Клиент без TokenProvider выполняет только публичные запросы.
// Привязка к пользователю — через WithTokenProvider (дешёвая копия).
type Client struct {
	baseURL       string // Базовый URL backend (без trailing slash и без /api/v1)
	httpClient    *http.Client
	tokenProvider TokenProvider
	logger        *slog.Logger
}

// New создаёт клиент backend API.
// baseURL — базовый URL backend (например, http://backend:8000).
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
// timeout — таймаут HTTP-запросов (DH_API_TIMEOUT).
func New(baseURL, caCertPath string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: timeout}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата backend: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат backend добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return NewWithHTTPClient(baseURL, httpClient, logger), nil
}

// NewWithHTTPClient создаёт клиент с готовым http.Client (используется в тестах).
func NewWithHTTPClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "api_client")),
	}
}

// WithTokenProvider возвращает копию клиента, авторизующую запросы токеном из tp.
// HTTP-транспорт разделяется между копиями.
func (c *Client) WithTokenProvider(tp TokenProvider) *Client {
	clone := *c
	clone.tokenProvider = tp
	return &clone
}

// BaseURL возвращает базовый URL backend.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPClient возвращает используемый http.Client (для JWKS и dephealth).
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA-сертификатом.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("файл %s не содержит PEM-сертификатов", caCertPath)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// --- HTTP helpers ---

// request — описание запроса к backend.
type request struct {
	method string
	// endpoint — шаблон пути для метрик (/documents/{id}), без префикса /api/v1
	endpoint string
	// path — фактический путь без префикса /api/v1
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	// public — не добавлять заголовок Authorization
	public bool
}

// do выполняет запрос к backend и записывает метрики.
// Транспортные ошибки возвращаются как apperr.ErrNetwork.
func (c *Client) do(ctx context.Context, r request) (*http.Response, error) {
	reqURL := c.baseURL + apiPrefix + r.path
	if len(r.query) > 0 {
		reqURL += "?" + r.query.Encode()
	}

	body := r.body
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("создание запроса %s %s: %w", r.method, r.endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	if !r.public && c.tokenProvider != nil {
		token, err := c.tokenProvider(ctx)
		if err != nil {
			return nil, fmt.Errorf("получение токена: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	duration := time.Since(start).Seconds()

	if err != nil {
		backendRequestsTotal.WithLabelValues(r.method, r.endpoint, "error").Inc()
		backendRequestDuration.WithLabelValues(r.method, r.endpoint).Observe(duration)

		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("запрос %s %s отменён: %w", r.method, r.endpoint, err)
		}
		c.logger.Warn("Backend недоступен",
			slog.String("method", r.method),
			slog.String("endpoint", r.endpoint),
			slog.String("error", err.Error()),
		)
		return nil, apperr.Network("Сервер недоступен, попробуйте позже", err)
	}

	backendRequestsTotal.WithLabelValues(r.method, r.endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	backendRequestDuration.WithLabelValues(r.method, r.endpoint).Observe(duration)

	c.logger.Debug("Запрос к backend",
		slog.String("method", r.method),
		slog.String("endpoint", r.endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Float64("duration_sec", duration),
	)

	return resp, nil
}

// doJSON выполняет запрос с JSON-телом in (может быть nil) и декодирует ответ в out (может быть nil).
func (c *Client) doJSON(ctx context.Context, method, endpoint, path string, in, out any) error {
	r := request{method: method, endpoint: endpoint, path: path}
	if in != nil {
		body, err := encodeJSON(in)
		if err != nil {
			return err
		}
		r.body = body
		r.contentType = "application/json"
	}

	resp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

// encodeJSON сериализует тело запроса.
func encodeJSON(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("сериализация тела запроса: %w", err)
	}
	return bytes.NewReader(data), nil
}

// decodeResponse декодирует JSON-ответ в target.
// Для статуса вне 2xx возвращает ошибку из таксономии apperr.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp)
	}

	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("декодирование ответа backend: %w", err)
		}
	}

	return nil
}

// checkResponse проверяет статус ответа (для запросов без тела ответа).
func checkResponse(resp *http.Response) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return nil
}

// validationItem — элемент detail для ошибок валидации FastAPI (422).
type validationItem struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// parseError читает тело ответа с ошибкой и преобразует его в *apperr.Error.
// Формат FastAPI: {"detail": "текст"} или {"detail": [{"loc": [...], "msg": "...", "type": "..."}]}.
func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	message, field := parseDetail(body)
	if message == "" {
		message = defaultMessage(resp.StatusCode)
	}

	return &apperr.Error{
		Kind:    kindForStatus(resp.StatusCode),
		Field:   field,
		Status:  resp.StatusCode,
		Message: message,
	}
}

// parseDetail извлекает сообщение и поле из тела ошибки FastAPI.
func parseDetail(body []byte) (message, field string) {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return strings.TrimSpace(string(body)), ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text, ""
	}

	var items []validationItem
	if err := json.Unmarshal(envelope.Detail, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			msgs = append(msgs, item.Msg)
		}
		// loc: ["body", "password"] — последний элемент указывает поле
		if loc := items[0].Loc; len(loc) > 1 {
			if name, ok := loc[len(loc)-1].(string); ok {
				field = name
			}
		}
		return strings.Join(msgs, "; "), field
	}

	return string(envelope.Detail), ""
}

// kindForStatus сопоставляет HTTP-статус с видом ошибки.
func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return apperr.ErrAuth
	case status == http.StatusForbidden:
		return apperr.ErrForbidden
	case status == http.StatusNotFound:
		return apperr.ErrNotFound
	case status >= 500:
		return apperr.ErrNetwork
	default:
		// 400, 409, 413, 422 и прочие 4xx
		return apperr.ErrValidation
	}
}

// defaultMessage — сообщение для ответа без detail.
func defaultMessage(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "Требуется вход в систему"
	case status == http.StatusForbidden:
		return "Недостаточно прав"
	case status == http.StatusNotFound:
		return "Ресурс не найден"
	case status >= 500:
		return "Сервер недоступен, попробуйте позже"
	default:
		return http.StatusText(status)
	}
}

// --- Health ---

// Health запрашивает GET /health (корень backend, вне /api/v1).
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("создание запроса health: %w", err)
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	if err != nil {
		return apperr.Network("Сервер недоступен", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("backend вернул статус %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// CheckReady проверяет доступность backend.
// Реализует интерфейс handlers.ReadinessChecker.
func (c *Client) CheckReady() (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Health(ctx); err != nil {
		return "fail", fmt.Sprintf("backend недоступен: %v", err)
	}
	return "ok", "backend доступен"
}
