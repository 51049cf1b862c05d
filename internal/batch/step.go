package batch

import (
	"context"
	"time"

	bpdomain "github.com/opsbill/tarifa/internal/billingprocess/domain"
	customerdomain "github.com/opsbill/tarifa/internal/customer/domain"
	"github.com/opsbill/tarifa/internal/observability/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Step drives one chunked run: read customers, simulate their bills,
// write each chunk in one transaction. A chunk that keeps failing after
// retries fails the whole run; chunks written before it stay committed.
type Step struct {
	reader    *CustomerReader
	processor *ItemProcessor
	writer    *ChunkWriter
	chunkSize int
	retry     RetryPolicy
	parallel  bool
	log       *zap.Logger
}

func NewStep(reader *CustomerReader, processor *ItemProcessor, writer *ChunkWriter, chunkSize int, retry RetryPolicy, parallel bool, log *zap.Logger) *Step {
	if chunkSize < 1 {
		chunkSize = 1
	}
	return &Step{
		reader:    reader,
		processor: processor,
		writer:    writer,
		chunkSize: chunkSize,
		retry:     retry,
		parallel:  parallel,
		log:       log.Named("batch.step"),
	}
}

// Run returns the number of customers billed.
func (s *Step) Run(ctx context.Context) (int, error) {
	var billed int
	chunkIndex := 0

	for {
		chunk, err := s.readChunk(ctx)
		if err != nil {
			return billed, err
		}
		if len(chunk) == 0 {
			return billed, nil
		}

		chunkIndex++
		start := time.Now()
		err = s.retry.Do(ctx, func(attempt int) error {
			return s.runChunk(ctx, chunk)
		}, func(attempt int, err error) {
			metrics.Batch().IncChunkRetry(JobNameMonthlyBilling)
			s.log.Warn("chunk failed, retrying",
				zap.Int("chunk", chunkIndex),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		})
		metrics.Batch().ObserveChunkDuration(JobNameMonthlyBilling, time.Since(start))
		if err != nil {
			metrics.Batch().IncChunkFailure(JobNameMonthlyBilling)
			s.log.Error("chunk failed permanently",
				zap.Int("chunk", chunkIndex),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return billed, err
		}

		billed += len(chunk)
		metrics.Batch().AddCustomersBilled(JobNameMonthlyBilling, len(chunk))
	}
}

func (s *Step) readChunk(ctx context.Context) ([]*customerdomain.Customer, error) {
	chunk := make([]*customerdomain.Customer, 0, s.chunkSize)
	for len(chunk) < s.chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		customer, err := s.reader.Next(ctx)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			break
		}
		chunk = append(chunk, customer)
	}
	return chunk, nil
}

// runChunk simulates every customer of the chunk, then writes them in
// one transaction. Simulation is read-only, so a retry after a write
// failure recomputes safely.
func (s *Step) runChunk(ctx context.Context, chunk []*customerdomain.Customer) error {
	items := make([]bpdomain.BillingProcessCustomer, len(chunk))

	if s.parallel && len(chunk) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for i, customer := range chunk {
			i, customer := i, customer
			g.Go(func() error {
				item, err := s.processor.Process(gctx, customer)
				if err != nil {
					return err
				}
				items[i] = item
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	} else {
		for i, customer := range chunk {
			item, err := s.processor.Process(ctx, customer)
			if err != nil {
				return err
			}
			items[i] = item
		}
	}

	return s.writer.Write(ctx, items)
}
