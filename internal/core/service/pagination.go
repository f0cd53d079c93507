package service

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type Pagination struct {
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func paginate(page, pageSize, total int) Pagination {
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: totalPages}
}
