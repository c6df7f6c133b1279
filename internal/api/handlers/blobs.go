// blobs.go — выдача и освобождение объектных URL (/blobs/{id}).
package handlers

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ServeBlob обрабатывает GET /blobs/{id}.
// Содержимое доступно только пользователю, получившему ссылку.
func (h *Handler) ServeBlob(w http.ResponseWriter, r *http.Request) {
	viewer := h.viewer(h.store(r))
	blob, err := h.blobs.Open(chi.URLParam(r, "id"), viewer.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.Header().Set("Cache-Control", "private, no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if disposition := contentDisposition(blob.Disposition, blob.Filename); disposition != "" {
		w.Header().Set("Content-Disposition", disposition)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}

// ReleaseBlob обрабатывает DELETE /blobs/{id}.
func (h *Handler) ReleaseBlob(w http.ResponseWriter, r *http.Request) {
	if err := h.workflow(r).Release(chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// contentDisposition собирает заголовок Content-Disposition с именем файла.
// Имя вне ASCII кодируется по RFC 2231.
func contentDisposition(disposition, filename string) string {
	if disposition == "" || filename == "" {
		return disposition
	}
	if v := mime.FormatMediaType(disposition, map[string]string{"filename": filename}); v != "" {
		return v
	}
	return disposition
}
