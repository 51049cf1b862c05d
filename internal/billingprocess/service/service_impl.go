package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/billingprocess/domain"
	"github.com/opsbill/tarifa/internal/clock"
	"github.com/opsbill/tarifa/internal/observability/metrics"
	"github.com/opsbill/tarifa/internal/period"
	"github.com/opsbill/tarifa/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("billingprocess.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) CreateMonthlyIfNotExists(ctx context.Context, p period.Period) (domain.BillingProcess, error) {
	existing, err := s.repo.FindByPeriod(ctx, s.db, p)
	if err != nil {
		return domain.BillingProcess{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	now := s.clock.Now()
	bp := domain.BillingProcess{
		ID:           s.genID.Generate(),
		Period:       p,
		RegisteredAt: now,
		State:        domain.StateRegistered,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, &bp); err != nil {
		// A concurrent caller won the unique period index. Converge on
		// its row.
		if db.IsDuplicateKeyErr(err) {
			existing, ferr := s.repo.FindByPeriod(ctx, s.db, p)
			if ferr != nil {
				return domain.BillingProcess{}, ferr
			}
			if existing != nil {
				return *existing, nil
			}
			return domain.BillingProcess{}, err
		}
		return domain.BillingProcess{}, err
	}

	s.log.Info("billing process registered",
		zap.String("billing_process_id", bp.ID.String()),
		zap.String("period", p.String()),
	)
	return bp, nil
}

func (s *Service) FindByID(ctx context.Context, id snowflake.ID) (domain.BillingProcess, error) {
	bp, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.BillingProcess{}, err
	}
	if bp == nil {
		return domain.BillingProcess{}, domain.ErrNotFound
	}
	return *bp, nil
}

func (s *Service) GetWithTree(ctx context.Context, id snowflake.ID) (domain.BillingProcess, error) {
	bp, err := s.repo.FindByIDWithTree(ctx, s.db, id)
	if err != nil {
		return domain.BillingProcess{}, err
	}
	if bp == nil {
		return domain.BillingProcess{}, domain.ErrNotFound
	}
	return *bp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListBillingProcessRequest) (domain.ListBillingProcessResponse, error) {
	page := req.Pagination.Normalize()
	items, total, err := s.repo.List(ctx, s.db, page)
	if err != nil {
		return domain.ListBillingProcessResponse{}, err
	}

	processes := make([]domain.BillingProcess, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		processes = append(processes, *item)
	}

	resp := domain.ListBillingProcessResponse{BillingProcesses: processes}
	resp.Page = page.Page
	resp.Size = page.Size
	resp.TotalCount = total
	return resp, nil
}

func (s *Service) AppendCustomers(ctx context.Context, id snowflake.ID, customers []domain.BillingProcessCustomer) error {
	if len(customers) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bp, err := s.repo.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if bp == nil {
			return domain.ErrNotFound
		}

		if err := s.repo.AppendCustomers(ctx, tx, bp, customers, s.clock.Now()); err != nil {
			return err
		}

		s.log.Info("customer bills appended",
			zap.String("billing_process_id", bp.ID.String()),
			zap.Int("customers", len(customers)),
			zap.Float64("total_amount", bp.TotalAmount),
		)
		return nil
	})
}

// MarkInProgress starts the run. A FAILED aggregate may be taken back
// in progress so a later launch can retry the month.
func (s *Service) MarkInProgress(ctx context.Context, id snowflake.ID) error {
	err := s.transition(ctx, id, domain.StateRegistered, domain.StateInProgress)
	if errors.Is(err, domain.ErrInvalidTransition) {
		return s.transition(ctx, id, domain.StateFailed, domain.StateInProgress)
	}
	return err
}

func (s *Service) MarkCompleted(ctx context.Context, id snowflake.ID) error {
	return s.transition(ctx, id, domain.StateInProgress, domain.StateCompleted)
}

func (s *Service) MarkFailed(ctx context.Context, id snowflake.ID) error {
	return s.transition(ctx, id, domain.StateInProgress, domain.StateFailed)
}

func (s *Service) transition(ctx context.Context, id snowflake.ID, from, to domain.State) error {
	ok, err := s.repo.TransitionState(ctx, s.db, id, from, to, s.clock.Now())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}

	metrics.Batch().IncRunTransition(string(from), string(to))
	s.log.Info("billing process state changed",
		zap.String("billing_process_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return nil
}
