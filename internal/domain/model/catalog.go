package model

// Role — роль пользователя.
type Role struct {
	// ID — идентификатор роли (rid)
	ID string `json:"rid"`
	// Name — уникальное имя роли
	Name string `json:"name"`
	// CreatedAt — время создания
	CreatedAt Timestamp `json:"created_at"`
}

// Category — категория документов.
type Category struct {
	// ID — идентификатор категории (oid)
	ID string `json:"oid"`
	// Name — имя категории
	Name string `json:"name"`
	// Description — описание (опционально)
	Description *string `json:"description,omitempty"`
	// CreatedAt — время создания
	CreatedAt Timestamp `json:"created_at"`
	// DocumentCount — количество документов в категории
	DocumentCount int `json:"document_count"`
}

// RoleCreate — тело POST /admin/roles.
type RoleCreate struct {
	Name string `json:"name"`
}

// CategoryCreate — тело POST /admin/categories.
type CategoryCreate struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// SystemStats — сводная статистика для панели менеджера (GET /stats/system).
type SystemStats struct {
	Overview             StatsOverview `json:"overview"`
	DocumentsOverTime    []DatePoint   `json:"documents_over_time"`
	UsersOverTime        []DatePoint   `json:"users_over_time"`
	ApprovalsOverTime    []DatePoint   `json:"approvals_over_time"`
	StatusBreakdown      []NamedValue  `json:"status_breakdown"`
	CategoryDistribution []NamedCount  `json:"category_distribution"`
}

// StatsOverview — основные счётчики.
type StatsOverview struct {
	TotalUsers        int `json:"total_users"`
	TotalDocuments    int `json:"total_documents"`
	ApprovedDocuments int `json:"approved_documents"`
	PendingDocuments  int `json:"pending_documents"`
	RejectedDocuments int `json:"rejected_documents"`
}

// DatePoint — значение временного ряда.
type DatePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// NamedValue — сегмент разбивки по статусам.
type NamedValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color,omitempty"`
}

// NamedCount — количество документов по категории.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
