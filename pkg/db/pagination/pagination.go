package pagination

// Pagination is a page/size request in the style of the admin API.
type Pagination struct {
	Page int `form:"page,default=1" validate:"gte=1"`
	Size int `form:"size,default=20" validate:"gte=1,lte=250"`
}

func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = 20
	}
	if p.Size > 250 {
		p.Size = 250
	}
	return p
}

func (p Pagination) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Size
}

func (p Pagination) Limit() int {
	return p.Normalize().Size
}

// PageInfo describes the slice of a paged listing.
type PageInfo struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalCount int64 `json:"total_count"`
}
