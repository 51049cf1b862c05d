package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/agreement/domain"
	"github.com/opsbill/tarifa/internal/clock"
	"github.com/opsbill/tarifa/internal/period"
	projectdomain "github.com/opsbill/tarifa/internal/project/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	GenID    *snowflake.Node
	Repo     domain.Repository
	Projects projectdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	genID    *snowflake.Node
	repo     domain.Repository
	projects projectdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("agreement.service"),
		clock:    p.Clock,
		genID:    p.GenID,
		repo:     p.Repo,
		projects: p.Projects,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAgreementRequest) (domain.Agreement, error) {
	if err := validatePeriods(req.StartingPeriod, req.EndingPeriod); err != nil {
		return domain.Agreement{}, err
	}

	project, err := s.projects.GetActiveByID(ctx, projectdomain.GetProjectRequest{ID: req.ProjectID})
	if err != nil {
		return domain.Agreement{}, err
	}

	// One open agreement per customer. Finish or delete the previous one
	// before opening another.
	open, err := s.repo.ExistsOpenByCustomer(ctx, s.db, project.CustomerID)
	if err != nil {
		return domain.Agreement{}, err
	}
	if open {
		return domain.Agreement{}, domain.ErrCustomerHasOpen
	}

	now := s.clock.Now()
	agreement := domain.Agreement{
		ID:             s.genID.Generate(),
		CustomerID:     project.CustomerID,
		ProjectID:      project.ID,
		StartingPeriod: req.StartingPeriod,
		EndingPeriod:   req.EndingPeriod,
		State:          domain.StateProvisional,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, &agreement); err != nil {
		return domain.Agreement{}, err
	}

	s.log.Info("agreement created",
		zap.String("agreement_id", agreement.ID.String()),
		zap.String("customer_id", agreement.CustomerID.String()),
		zap.String("starting_period", agreement.StartingPeriod.String()),
		zap.String("ending_period", agreement.EndingPeriod.String()),
	)
	return agreement, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateAgreementRequest) (domain.Agreement, error) {
	agreement, err := s.findByID(ctx, req.ID)
	if err != nil {
		return domain.Agreement{}, err
	}
	if agreement.State != domain.StateProvisional {
		return domain.Agreement{}, domain.ErrNotProvisional
	}
	if err := validatePeriods(req.StartingPeriod, req.EndingPeriod); err != nil {
		return domain.Agreement{}, err
	}

	agreement.StartingPeriod = req.StartingPeriod
	agreement.EndingPeriod = req.EndingPeriod
	agreement.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, agreement); err != nil {
		return domain.Agreement{}, err
	}
	return *agreement, nil
}

func (s *Service) Delete(ctx context.Context, req domain.GetAgreementRequest) error {
	agreement, err := s.findByID(ctx, req.ID)
	if err != nil {
		return err
	}
	if agreement.State != domain.StateProvisional {
		return domain.ErrNotProvisional
	}
	return s.repo.Delete(ctx, s.db, agreement.ID)
}

func (s *Service) Accept(ctx context.Context, req domain.GetAgreementRequest) (domain.Agreement, error) {
	agreement, err := s.findByID(ctx, req.ID)
	if err != nil {
		return domain.Agreement{}, err
	}
	if agreement.State != domain.StateProvisional {
		return domain.Agreement{}, domain.ErrNotProvisional
	}

	now := s.clock.Now()
	current := period.Of(now)
	if current.After(agreement.StartingPeriod) {
		return domain.Agreement{}, domain.ErrStartingPassed
	}

	agreement.State = domain.StateAccepted
	agreement.AcceptedAt = &now
	agreement.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, agreement); err != nil {
		return domain.Agreement{}, err
	}

	s.log.Info("agreement accepted", zap.String("agreement_id", agreement.ID.String()))
	return *agreement, nil
}

func (s *Service) Finish(ctx context.Context, req domain.GetAgreementRequest) (domain.Agreement, error) {
	agreement, err := s.findByID(ctx, req.ID)
	if err != nil {
		return domain.Agreement{}, err
	}

	now := s.clock.Now()
	ok, err := s.repo.TransitionState(ctx, s.db, agreement.ID, domain.StateInCourse, domain.StateFinished, now)
	if err != nil {
		return domain.Agreement{}, err
	}
	if !ok {
		return domain.Agreement{}, domain.ErrNotInCourse
	}

	agreement.State = domain.StateFinished
	agreement.UpdatedAt = now

	s.log.Info("agreement finished", zap.String("agreement_id", agreement.ID.String()))
	return *agreement, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetAgreementRequest) (domain.Agreement, error) {
	agreement, err := s.findByID(ctx, req.ID)
	if err != nil {
		return domain.Agreement{}, err
	}
	return *agreement, nil
}

func (s *Service) List(ctx context.Context, req domain.ListAgreementRequest) (domain.ListAgreementResponse, error) {
	filter := domain.ListAgreementFilter{State: req.State}
	if strings.TrimSpace(req.CustomerID) != "" {
		id, err := s.parseID(req.CustomerID)
		if err != nil {
			return domain.ListAgreementResponse{}, err
		}
		filter.CustomerID = id
	}
	if strings.TrimSpace(req.ProjectID) != "" {
		id, err := s.parseID(req.ProjectID)
		if err != nil {
			return domain.ListAgreementResponse{}, err
		}
		filter.ProjectID = id
	}

	page := req.Pagination.Normalize()
	items, total, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListAgreementResponse{}, err
	}

	agreements := make([]domain.Agreement, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		agreements = append(agreements, *item)
	}

	resp := domain.ListAgreementResponse{Agreements: agreements}
	resp.Page = page.Page
	resp.Size = page.Size
	resp.TotalCount = total
	return resp, nil
}

func (s *Service) findByID(ctx context.Context, rawID string) (*domain.Agreement, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return nil, err
	}

	agreement, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if agreement == nil {
		return nil, domain.ErrNotFound
	}
	return agreement, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func validatePeriods(start, end period.Period) error {
	if start.IsZero() || end.IsZero() {
		return domain.ErrInvalidPeriods
	}
	if !start.Before(end) {
		return domain.ErrInvalidPeriods
	}
	return nil
}
