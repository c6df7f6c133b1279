// openapi.go — проверка входящих запросов по OpenAPI-контракту портала.
// Проверяются параметры пути и query, а также JSON-тела.
// Multipart-тела не буферизуются: файл проверяет сервис документов.
package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	apierrors "github.com/bigkaa/dochub-portal/internal/api/errors"
)

// RequestValidator — middleware валидации запросов.
type RequestValidator struct {
	router routers.Router
	logger *slog.Logger
}

// NewRequestValidator создаёт валидатор по контракту doc.
// Серверы контракта игнорируются: портал обслуживает любой Host.
func NewRequestValidator(doc *openapi3.T, logger *slog.Logger) (*RequestValidator, error) {
	doc.Servers = nil
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("создание OpenAPI-маршрутизатора: %w", err)
	}
	return &RequestValidator{
		router: router,
		logger: logger.With(slog.String("component", "openapi_validator")),
	}, nil
}

// Middleware возвращает HTTP middleware.
// Запросы к путям вне контракта (/, /blobs, /health) пропускаются без проверки.
func (v *RequestValidator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := v.router.FindRoute(r)
			if err != nil {
				if errors.Is(err, routers.ErrMethodNotAllowed) {
					apierrors.WriteError(w, http.StatusMethodNotAllowed, apierrors.CodeValidationError,
						fmt.Sprintf("метод %s не поддерживается для %s", r.Method, r.URL.Path))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
					ExcludeRequestBody: isMultipart(r),
				},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				field, message := describeRequestError(err)
				v.logger.Debug("Запрос не прошёл проверку контракта",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				apierrors.FieldError(w, field, message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isMultipart проверяет Content-Type multipart/form-data.
func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// describeRequestError извлекает поле и краткое сообщение из ошибки валидации.
func describeRequestError(err error) (field, message string) {
	var reqErr *openapi3filter.RequestError
	if !errors.As(err, &reqErr) {
		return "", err.Error()
	}

	message = reqErr.Reason
	var schemaErr *openapi3.SchemaError
	if errors.As(reqErr.Err, &schemaErr) {
		if message == "" {
			message = schemaErr.Reason
		}
		if path := schemaErr.JSONPointer(); len(path) > 0 {
			field = path[len(path)-1]
		}
	} else if message == "" && reqErr.Err != nil {
		message = reqErr.Err.Error()
	}

	if reqErr.Parameter != nil {
		field = reqErr.Parameter.Name
		message = fmt.Sprintf("параметр %q: %s", reqErr.Parameter.Name, message)
	}
	if message == "" {
		message = "запрос не соответствует контракту API"
	}
	return field, message
}
