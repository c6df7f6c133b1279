package model

// CommentKey — составная идентичность комментария.
// Backend не выдаёт суррогатный ключ: комментарий определяется автором,
// документом и временем создания.
type CommentKey struct {
	AuthorID   string
	DocumentID string
	CreatedAt  string
}

// Comment — комментарий к документу.
type Comment struct {
	// AuthorID — uid автора
	AuthorID string `json:"uid"`
	// DocumentID — did документа
	DocumentID string `json:"did"`
	// Content — текст комментария
	Content string `json:"content"`
	// CreatedAt — время создания
	CreatedAt Timestamp `json:"created_at"`
	// AuthorName — имя автора; nil, если автор удалён
	AuthorName *string `json:"user_name"`
}

// Key возвращает составной ключ комментария.
func (c *Comment) Key() CommentKey {
	return CommentKey{
		AuthorID:   c.AuthorID,
		DocumentID: c.DocumentID,
		CreatedAt:  c.CreatedAt.Wire(),
	}
}

// ID возвращает строковую форму составного ключа: uid_did_created_at.
func (c *Comment) ID() string {
	k := c.Key()
	return k.AuthorID + "_" + k.DocumentID + "_" + k.CreatedAt
}

// Author возвращает имя автора или UnknownName.
func (c *Comment) Author() string {
	return nameOrUnknown(c.AuthorName)
}

// CommentCreate — тело POST /comments.
type CommentCreate struct {
	DocumentID string `json:"did"`
	Content    string `json:"content"`
}
