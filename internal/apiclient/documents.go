package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/bigkaa/dochub-portal/internal/domain/apperr"
	"github.com/bigkaa/dochub-portal/internal/domain/model"
)

// DefaultListLimit — лимит списка документов backend по умолчанию.
const DefaultListLimit = 100

// maxFileDownload — предел размера загружаемого с backend файла.
const maxFileDownload = 32 << 20

// DocumentQuery — серверные фильтры GET /documents.
type DocumentQuery struct {
	// Skip — смещение
	Skip int
	// Limit — количество (0 — DefaultListLimit)
	Limit int
	// Status — фильтр по статусу (nil — все)
	Status *model.Status
	// AuthorID — фильтр по автору (uid)
	AuthorID string
}

// values формирует query-параметры.
func (q DocumentQuery) values() url.Values {
	v := url.Values{}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	v.Set("skip", strconv.Itoa(max(q.Skip, 0)))
	v.Set("limit", strconv.Itoa(limit))
	if q.Status != nil {
		v.Set("status", strconv.Itoa(int(*q.Status)))
	}
	if q.AuthorID != "" {
		v.Set("uid", q.AuthorID)
	}
	return v
}

// FileUpload — файл для POST /documents/upload.
type FileUpload struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// FileContent — содержимое файла документа.
type FileContent struct {
	// ContentType — MIME-тип из ответа backend
	ContentType string
	// Filename — имя файла из Content-Disposition (может быть пустым)
	Filename string
	// Disposition — inline или attachment
	Disposition string
	// Data — байты файла
	Data []byte
}

// documentPath возвращает путь ресурса документа.
func documentPath(id string) string {
	return "/documents/" + url.PathEscape(id)
}

// ListDocuments возвращает документы с серверными фильтрами.
// GET /documents?skip&limit&status&uid. Пустой список — корректный результат.
func (c *Client) ListDocuments(ctx context.Context, q DocumentQuery) ([]model.Document, error) {
	resp, err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "/documents",
		path:     "/documents",
		query:    q.values(),
	})
	if err != nil {
		return nil, err
	}

	var docs []model.Document
	if err := decodeResponse(resp, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return docs, nil
}

// StarredDocuments возвращает документы в закладках текущего пользователя.
// GET /documents/starred
func (c *Client) StarredDocuments(ctx context.Context) ([]model.Document, error) {
	var docs []model.Document
	if err := c.doJSON(ctx, http.MethodGet, "/documents/starred", "/documents/starred", nil, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return docs, nil
}

// GetDocument возвращает документ по идентификатору.
// GET /documents/{id}. Отсутствующий документ — apperr.ErrNotFound.
func (c *Client) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := c.doJSON(ctx, http.MethodGet, "/documents/{id}", documentPath(id), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// CreateDocument создаёт запись документа для уже загруженного файла.
// POST /documents
func (c *Client) CreateDocument(ctx context.Context, in model.DocumentCreate) (*model.Document, error) {
	if in.Tags == nil {
		in.Tags = []string{}
	}
	var doc model.Document
	if err := c.doJSON(ctx, http.MethodPost, "/documents", "/documents", in, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateDocument изменяет метаданные документа.
// PUT /documents/{id}
func (c *Client) UpdateDocument(ctx context.Context, id string, in model.DocumentUpdate) (*model.Document, error) {
	var doc model.Document
	if err := c.doJSON(ctx, http.MethodPut, "/documents/{id}", documentPath(id), in, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument удаляет документ.
// DELETE /documents/{id}
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	resp, err := c.do(ctx, request{
		method:   http.MethodDelete,
		endpoint: "/documents/{id}",
		path:     documentPath(id),
	})
	if err != nil {
		return err
	}
	return checkResponse(resp)
}

// UploadFile загружает файл документа.
// POST /documents/upload — multipart/form-data, поле file.
func (c *Client) UploadFile(ctx context.Context, f FileUpload) (*model.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Filename))
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("создание multipart-части: %w", err)
	}
	if _, err := io.Copy(part, f.Data); err != nil {
		return nil, fmt.Errorf("чтение загружаемого файла: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("завершение multipart-тела: %w", err)
	}

	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		endpoint:    "/documents/upload",
		path:        "/documents/upload",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}

	var result model.UploadResult
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	if result.FilePath == "" {
		return nil, fmt.Errorf("backend не вернул путь загруженного файла")
	}
	return &result, nil
}

// DownloadFile получает содержимое файла документа.
// GET /documents/{id}/file[?download=true]
func (c *Client) DownloadFile(ctx context.Context, id string, download bool) (*FileContent, error) {
	var query url.Values
	if download {
		query = url.Values{"download": {"true"}}
	}

	resp, err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "/documents/{id}/file",
		path:     documentPath(id) + "/file",
		query:    query,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileDownload+1))
	if err != nil {
		return nil, apperr.Network("Не удалось получить файл", err)
	}
	if len(data) > maxFileDownload {
		return nil, fmt.Errorf("файл документа %s превышает %d байт", id, maxFileDownload)
	}

	content := &FileContent{
		ContentType: resp.Header.Get("Content-Type"),
		Disposition: "inline",
		Data:        data,
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if disposition, params, err := mime.ParseMediaType(cd); err == nil {
			content.Disposition = disposition
			content.Filename = params["filename"]
		}
	}
	if content.ContentType == "" {
		content.ContentType = "application/octet-stream"
	}
	return content, nil
}

// Star добавляет документ в закладки.
// POST /documents/{id}/star (201)
func (c *Client) Star(ctx context.Context, id string) error {
	resp, err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "/documents/{id}/star",
		path:     documentPath(id) + "/star",
	})
	if err != nil {
		return err
	}
	return checkResponse(resp)
}

// Unstar убирает документ из закладок.
// DELETE /documents/{id}/star (204)
func (c *Client) Unstar(ctx context.Context, id string) error {
	resp, err := c.do(ctx, request{
		method:   http.MethodDelete,
		endpoint: "/documents/{id}/star",
		path:     documentPath(id) + "/star",
	})
	if err != nil {
		return err
	}
	return checkResponse(resp)
}
