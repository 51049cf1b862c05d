package batch

import (
	"context"

	"github.com/bwmarrin/snowflake"
	bpdomain "github.com/opsbill/tarifa/internal/billingprocess/domain"
)

// ChunkWriter appends processed customer bills to the billing process
// aggregate. Each Write call is one transaction.
type ChunkWriter struct {
	processes        bpdomain.Service
	billingProcessID snowflake.ID
}

func NewChunkWriter(processes bpdomain.Service, billingProcessID snowflake.ID) *ChunkWriter {
	return &ChunkWriter{
		processes:        processes,
		billingProcessID: billingProcessID,
	}
}

func (w *ChunkWriter) Write(ctx context.Context, items []bpdomain.BillingProcessCustomer) error {
	return w.processes.AppendCustomers(ctx, w.billingProcessID, items)
}
