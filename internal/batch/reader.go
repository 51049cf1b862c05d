package batch

import (
	"context"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/opsbill/tarifa/internal/customer/domain"
	"gorm.io/gorm"
)

// CustomerReader streams active customers in id order, fetching one
// page at a time. Next returns nil when the input is exhausted.
type CustomerReader struct {
	db       *gorm.DB
	repo     customerdomain.Repository
	pageSize int

	buffer  []*customerdomain.Customer
	afterID snowflake.ID
	done    bool
}

func NewCustomerReader(db *gorm.DB, repo customerdomain.Repository, pageSize int) *CustomerReader {
	return &CustomerReader{
		db:       db,
		repo:     repo,
		pageSize: pageSize,
	}
}

func (r *CustomerReader) Next(ctx context.Context) (*customerdomain.Customer, error) {
	if len(r.buffer) == 0 && !r.done {
		page, err := r.repo.ListActive(ctx, r.db, r.afterID, r.pageSize)
		if err != nil {
			return nil, err
		}
		if len(page) < r.pageSize {
			r.done = true
		}
		if len(page) > 0 {
			r.afterID = page[len(page)-1].ID
		}
		r.buffer = page
	}

	if len(r.buffer) == 0 {
		return nil, nil
	}

	next := r.buffer[0]
	r.buffer = r.buffer[1:]
	return next, nil
}
