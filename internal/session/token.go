package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/dochub-portal/internal/domain/apperr"
)

// TokenVerifier проверяет подпись токена до обращения к backend.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) error
}

// CheckExpiry читает exp из JWT без проверки подписи.
// Истёкший токен — apperr.ErrAuth. Токен без exp и непрозрачный (не JWT) токен
// принимаются: решение остаётся за backend.
func CheckExpiry(token string, now time.Time, leeway time.Duration) error {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil
		}
		return &apperr.Error{Kind: apperr.ErrAuth, Message: "Невалидный токен", Err: err}
	}

	if claims.ExpiresAt == nil {
		return nil
	}
	if now.After(claims.ExpiresAt.Add(leeway)) {
		return apperr.Auth(fmt.Sprintf("Срок действия токена истёк %s", claims.ExpiresAt.UTC().Format(time.RFC3339)))
	}
	return nil
}

// JWKSVerifier проверяет подпись токена ключами из JWKS.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	leeway time.Duration
	logger *slog.Logger
}

// NewJWKSVerifier создаёт верификатор с фоновым обновлением JWKS.
// jwksURL — URL JWKS (DH_JWT_JWKS_URL).
// httpClient — HTTP-клиент (может содержать TLS конфигурацию backend).
// refreshInterval — интервал обновления ключей (DH_JWKS_REFRESH_INTERVAL).
// leeway — допустимое отклонение часов (DH_JWT_LEEWAY).
func NewJWKSVerifier(
	jwksURL string,
	httpClient *http.Client,
	refreshInterval time.Duration,
	leeway time.Duration,
	logger *slog.Logger,
) (*JWKSVerifier, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	// NoErrorReturnFirstHTTPReq — стартуем даже если JWKS ещё недоступен.
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    httpClient,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{
		Storage: storage,
	})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	return NewJWKSVerifierWithKeyfunc(k, leeway, logger), nil
}

// NewJWKSVerifierWithKeyfunc создаёт верификатор с готовой keyfunc.
// Используется в тестах для подстановки mock JWKS.
func NewJWKSVerifierWithKeyfunc(k keyfunc.Keyfunc, leeway time.Duration, logger *slog.Logger) *JWKSVerifier {
	return &JWKSVerifier{
		jwks:   k,
		leeway: leeway,
		logger: logger.With(slog.String("component", "jwks_verifier")),
	}
}

// verifyMethods — допустимые алгоритмы подписи. HS256 требует симметричного
// ключа (kty "oct") в JWKS: так подписывает токены сам backend DocHub.
var verifyMethods = []string{"RS256", "ES256", "HS256"}

// Verify проверяет подпись и срок действия токена.
func (v *JWKSVerifier) Verify(ctx context.Context, token string) error {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, v.jwks.KeyfuncCtx(ctx),
		jwt.WithValidMethods(verifyMethods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		v.logger.Debug("JWT валидация не пройдена",
			slog.String("error", err.Error()),
		)
		return &apperr.Error{Kind: apperr.ErrAuth, Message: "Невалидный или просроченный токен", Err: err}
	}
	if !parsed.Valid {
		return apperr.Auth("Невалидный токен")
	}
	return nil
}
