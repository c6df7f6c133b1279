package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status — статус документа.
// На проводе backend передаёт число: 0 — pending, 1 — published, 2 — rejected.
// StatusDraft существует только на клиенте (несохранённая форма) и никогда
// не приходит от backend.
type Status int

const (
	// StatusDraft — черновик, только клиентское состояние
	StatusDraft Status = -1
	// StatusPending — ожидает решения согласующего
	StatusPending Status = 0
	// StatusPublished — одобрен и опубликован
	StatusPublished Status = 1
	// StatusRejected — отклонён
	StatusRejected Status = 2
)

// String возвращает метку статуса.
func (s Status) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusPending:
		return "pending"
	case StatusPublished:
		return "published"
	case StatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// IsWire проверяет, может ли статус передаваться backend.
func (s Status) IsWire() bool {
	return s == StatusPending || s == StatusPublished || s == StatusRejected
}

// UnmarshalJSON принимает только числовые коды backend.
func (s *Status) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("статус документа должен быть числом: %w", err)
	}
	st := Status(code)
	if !st.IsWire() {
		return fmt.Errorf("неизвестный код статуса документа: %d", code)
	}
	*s = st
	return nil
}

// MarshalJSON сериализует статус числовым кодом backend.
func (s Status) MarshalJSON() ([]byte, error) {
	if !s.IsWire() {
		return nil, fmt.Errorf("статус %s не передаётся backend", s)
	}
	return json.Marshal(int(s))
}

// ParseStatus преобразует метку в статус, допустимый для фильтра backend.
func ParseStatus(label string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "pending":
		return StatusPending, nil
	case "published", "approved":
		return StatusPublished, nil
	case "rejected":
		return StatusRejected, nil
	default:
		return 0, fmt.Errorf("недопустимый статус %q, допустимые: pending, published, rejected", label)
	}
}

// Document — документ с метаданными и счётчиками.
type Document struct {
	// ID — идентификатор документа (did)
	ID string `json:"did"`
	// AuthorID — uid автора
	AuthorID string `json:"uid"`
	// Title — заголовок
	Title string `json:"title"`
	// Description — описание
	Description string `json:"description"`
	// Link — путь к загруженному файлу на backend
	Link string `json:"link"`
	// Size — размер файла в байтах
	Size float64 `json:"size"`
	// Status — статус жизненного цикла
	Status Status `json:"status"`
	// ApprovedBy — uid согласующего
	ApprovedBy *string `json:"approved_by"`
	// ApprovedAt — время решения
	ApprovedAt Timestamp `json:"approved_at"`
	// CreatedAt — время создания
	CreatedAt Timestamp `json:"created_at"`
	// UpdatedAt — время последнего изменения
	UpdatedAt Timestamp `json:"updated_at"`
	// AuthorName — имя автора; nil, если автор удалён
	AuthorName *string `json:"author_name"`
	// ApproverName — имя согласующего
	ApproverName *string `json:"approver_name"`
	// Tags — теги
	Tags []string `json:"tags"`
	// StarsCount — количество закладок
	StarsCount int `json:"stars_count"`
	// CommentsCount — количество комментариев
	CommentsCount int `json:"comments_count"`
	// IsStarred — документ в закладках текущего пользователя
	IsStarred bool `json:"is_starred"`
}

// Author возвращает имя автора или UnknownName.
func (d *Document) Author() string {
	return nameOrUnknown(d.AuthorName)
}

// Approver возвращает имя согласующего или пустую строку, если решения ещё нет.
func (d *Document) Approver() string {
	if d.ApprovedBy == nil && d.ApproverName == nil {
		return ""
	}
	return nameOrUnknown(d.ApproverName)
}

// HasFile проверяет, прикреплён ли файл.
func (d *Document) HasFile() bool {
	return d.Link != ""
}

// Clone возвращает глубокую копию документа.
func (d *Document) Clone() *Document {
	c := *d
	if d.Tags != nil {
		c.Tags = append([]string(nil), d.Tags...)
	}
	return &c
}

// DocumentCreate — тело POST /documents.
type DocumentCreate struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Link        string   `json:"link"`
	Size        float64  `json:"size"`
	Tags        []string `json:"tags"`
	CategoryIDs []string `json:"category_ids"`
}

// DocumentUpdate — тело PUT /documents/{id}. nil-поля не изменяются.
type DocumentUpdate struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// UploadResult — ответ POST /documents/upload.
type UploadResult struct {
	Filename       string  `json:"filename"`
	StoredFilename string  `json:"stored_filename"`
	FilePath       string  `json:"file_path"`
	Size           float64 `json:"size"`
	Message        string  `json:"message"`
}

func nameOrUnknown(name *string) string {
	if name == nil || strings.TrimSpace(*name) == "" {
		return UnknownName
	}
	return *name
}
