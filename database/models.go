package database

import "time"

// Статусы отчета
const (
	ReportStatusPending  = "PENDING"
	ReportStatusComplete = "COMPLETE"
	ReportStatusError    = "ERROR"
)

// ProductMapping вес и размер коробки товара по нормализованному названию
type ProductMapping struct {
	ID          int64     `json:"id"`
	ProductName string    `json:"product_name"`
	BoxWeight   *float64  `json:"box_weight"`
	BoxSize     *string   `json:"box_size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductMappingPatch частичное обновление. Nil поле не меняется;
// Clear* обнуляет значение в БД.
type ProductMappingPatch struct {
	ProductName *string
	BoxWeight   *float64
	BoxSize     *string
	ClearWeight bool
	ClearSize   bool
}

// BrandMapping код бренда из файла -> стандартное название
type BrandMapping struct {
	ID            int64     `json:"id"`
	BrandName     string    `json:"brand_name"`
	ReferenceName string    `json:"reference_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BrandMappingPatch частичное обновление бренда
type BrandMappingPatch struct {
	BrandName     *string
	ReferenceName *string
}

// KnownProductName каноническое название (подстрока для сопоставления)
type KnownProductName struct {
	ID          int64     `json:"id"`
	ProductName string    `json:"product_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Report запись истории отчетов
type Report struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Status       string         `json:"status"`
	Filename     string         `json:"filename,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	SourceFiles  []string       `json:"source_files"`
	GrossRatio   *float64       `json:"gross_ratio,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// ListFilter параметры списка: поиск подстроки и пагинация (страницы с 1)
type ListFilter struct {
	Search  string
	Page    int
	PerPage int
}

func (f ListFilter) normalize(defaultPerPage int) ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = defaultPerPage
	}
	if f.PerPage > 1000 {
		f.PerPage = 1000
	}
	return f
}

func (f ListFilter) offset() int {
	return (f.Page - 1) * f.PerPage
}

// ListResult страница результатов
type ListResult[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Pages   int `json:"pages"`
}

func newListResult[T any](items []T, total int, f ListFilter) *ListResult[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if total > 0 {
		pages = (total + f.PerPage - 1) / f.PerPage
	}
	return &ListResult[T]{
		Items:   items,
		Total:   total,
		Page:    f.Page,
		PerPage: f.PerPage,
		Pages:   pages,
	}
}
