package calendar

const defaultPageSize = 20

// Page описывает одну страницу элементов.
type Page[T any] struct {
	Items    []T  `json:"items"`     // элементы на текущей странице
	Page     int  `json:"page"`      // номер страницы (с 1)
	PageSize int  `json:"page_size"` // количество элементов на странице
	HasNext  bool `json:"has_next"`
	HasPrev  bool `json:"has_prev"`
	Total    int  `json:"total"` // общее количество элементов
}

// NormalizePage подставляет дефолты для некорректных page/pageSize.
func NormalizePage(page, pageSize int) (int, int) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	return page, pageSize
}

// Offset считает смещение первой записи страницы для запроса к хранилищу.
func Offset(page, pageSize int) int {
	page, pageSize = NormalizePage(page, pageSize)
	return (page - 1) * pageSize
}

// NewPage собирает страницу из уже выбранных хранилищем элементов
// и общего количества записей.
func NewPage[T any](items []T, total, page, pageSize int) Page[T] {
	page, pageSize = NormalizePage(page, pageSize)
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		HasNext:  page*pageSize < total,
		HasPrev:  page > 1,
		Total:    total,
	}
}
