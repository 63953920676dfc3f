package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// FromContext reads ?page= (1-based) and ?limit=. An explicit ?offset= wins
// over page; page is then derived from it.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	if raw := c.QueryParam("offset"); raw != "" {
		if o, err := strconv.Atoi(raw); err == nil {
			if o < 0 {
				o = 0
			}
			offset = o
			page = offset/limit + 1
		}
	}

	return Params{Page: page, Limit: limit, Offset: offset}
}

// Response wraps a paginated API response.
type Response struct {
	Data        interface{} `json:"data"`
	Total       int         `json:"total"`
	Limit       int         `json:"limit"`
	Offset      int         `json:"offset"`
	CurrentPage int         `json:"currentPage"`
	TotalPages  int         `json:"totalPages"`
	HasMore     bool        `json:"hasMore"`
}

func NewResponse(data interface{}, total int, p Params) *Response {
	return &Response{
		Data:        data,
		Total:       total,
		Limit:       p.Limit,
		Offset:      p.Offset,
		CurrentPage: p.Page,
		TotalPages:  TotalPages(total, p.Limit),
		HasMore:     p.HasNext(total),
	}
}

// TotalPages is ceil(total/limit), 0 for an empty result.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

// HasPrevious returns true if there are results before the current page.
func (p Params) HasPrevious() bool {
	return p.Offset > 0
}
