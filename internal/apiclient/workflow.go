package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/bigkaa/dochub-portal/internal/domain/model"
)

// --- Comments API ---

// Comments возвращает комментарии документа в порядке создания.
// GET /documents/{id}/comments
func (c *Client) Comments(ctx context.Context, documentID string) ([]model.Comment, error) {
	var comments []model.Comment
	if err := c.doJSON(ctx, http.MethodGet, "/documents/{id}/comments", documentPath(documentID)+"/comments", nil, &comments); err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	return comments, nil
}

// PostComment добавляет комментарий и возвращает запись, созданную backend.
// POST /comments (201)
func (c *Client) PostComment(ctx context.Context, in model.CommentCreate) (*model.Comment, error) {
	var comment model.Comment
	if err := c.doJSON(ctx, http.MethodPost, "/comments", "/comments", in, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// --- Approvals API ---

// approvalPath возвращает путь действия согласования.
func approvalPath(id, action string) string {
	return "/approvals/" + url.PathEscape(id) + "/" + action
}

// Approve одобряет документ. Возвращает документ в новом статусе.
// POST /approvals/{id}/approve. Документ не в статусе pending — apperr.ErrValidation.
func (c *Client) Approve(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := c.doJSON(ctx, http.MethodPost, "/approvals/{id}/approve", approvalPath(id, "approve"), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Reject отклоняет документ. Возвращает документ в новом статусе.
// POST /approvals/{id}/reject
func (c *Client) Reject(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := c.doJSON(ctx, http.MethodPost, "/approvals/{id}/reject", approvalPath(id, "reject"), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// PendingApprovals возвращает документы, ожидающие решения.
// GET /approvals/pending
func (c *Client) PendingApprovals(ctx context.Context) ([]model.Document, error) {
	var docs []model.Document
	if err := c.doJSON(ctx, http.MethodGet, "/approvals/pending", "/approvals/pending", nil, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return docs, nil
}
