package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	agreementdomain "github.com/opsbill/tarifa/internal/agreement/domain"
	"github.com/opsbill/tarifa/internal/clock"
	"github.com/opsbill/tarifa/internal/period"
	"github.com/opsbill/tarifa/internal/servicerequest/domain"
	srtdomain "github.com/opsbill/tarifa/internal/servicerequesttype/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	GenID      *snowflake.Node
	Repo       domain.Repository
	Agreements agreementdomain.Repository
	Types      srtdomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	genID      *snowflake.Node
	repo       domain.Repository
	agreements agreementdomain.Repository
	types      srtdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("servicerequest.service"),
		clock:      p.Clock,
		genID:      p.GenID,
		repo:       p.Repo,
		agreements: p.Agreements,
		types:      p.Types,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateServiceRequestRequest) (domain.ServiceRequest, error) {
	agreementID, err := s.parseID(req.AgreementID)
	if err != nil {
		return domain.ServiceRequest{}, err
	}
	typeID, err := s.parseID(req.TypeID)
	if err != nil {
		return domain.ServiceRequest{}, err
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		return domain.ServiceRequest{}, domain.ErrInvalidDescription
	}

	now := s.clock.Now()
	var created domain.ServiceRequest

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		agreement, err := s.agreements.FindByID(ctx, tx, agreementID)
		if err != nil {
			return err
		}
		if agreement == nil {
			return domain.ErrNotFound
		}

		switch agreement.State {
		case agreementdomain.StateInCourse:
		case agreementdomain.StateAccepted:
			// First request under an accepted agreement puts it in course.
			ok, err := s.agreements.TransitionState(ctx, tx, agreement.ID, agreementdomain.StateAccepted, agreementdomain.StateInCourse, now)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrAgreementNotAvailable
			}
		default:
			return domain.ErrAgreementNotAvailable
		}

		srt, err := s.types.FindByID(ctx, tx, typeID)
		if err != nil {
			return err
		}
		if srt == nil || !srt.Active() {
			return domain.ErrTypeNotAvailable
		}

		created = domain.ServiceRequest{
			ID:           s.genID.Generate(),
			AgreementID:  agreement.ID,
			TypeID:       srt.ID,
			Description:  description,
			State:        domain.StateToDo,
			RegisteredAt: &now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return s.repo.Insert(ctx, tx, &created)
	})
	if err != nil {
		return domain.ServiceRequest{}, err
	}

	s.log.Info("service request created",
		zap.String("service_request_id", created.ID.String()),
		zap.String("agreement_id", created.AgreementID.String()),
	)
	return created, nil
}

func (s *Service) Start(ctx context.Context, req domain.GetServiceRequestRequest) (domain.ServiceRequest, error) {
	sr, err := s.findByID(ctx, req.ID)
	if err != nil {
		return domain.ServiceRequest{}, err
	}
	if sr.State != domain.StateToDo {
		return domain.ServiceRequest{}, domain.ErrAlreadyStarted
	}

	sr.State = domain.StateInProgress
	sr.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, sr); err != nil {
		return domain.ServiceRequest{}, err
	}

	s.log.Info("service request started", zap.String("service_request_id", sr.ID.String()))
	return *sr, nil
}

func (s *Service) Finish(ctx context.Context, req domain.GetServiceRequestRequest) (domain.ServiceRequest, error) {
	sr, err := s.findByID(ctx, req.ID)
	if err != nil {
		return domain.ServiceRequest{}, err
	}
	if sr.State != domain.StateInProgress {
		return domain.ServiceRequest{}, domain.ErrNotInProgress
	}

	now := s.clock.Now()
	sr.State = domain.StateDone
	sr.FinishedAt = &now
	sr.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, sr); err != nil {
		return domain.ServiceRequest{}, err
	}

	s.log.Info("service request finished", zap.String("service_request_id", sr.ID.String()))
	return *sr, nil
}

func (s *Service) Delete(ctx context.Context, req domain.GetServiceRequestRequest) error {
	sr, err := s.findByID(ctx, req.ID)
	if err != nil {
		return err
	}
	if sr.State != domain.StateToDo {
		return domain.ErrAlreadyStarted
	}
	return s.repo.Delete(ctx, s.db, sr.ID)
}

func (s *Service) GetByID(ctx context.Context, req domain.GetServiceRequestRequest) (domain.ServiceRequest, error) {
	sr, err := s.findByID(ctx, req.ID)
	if err != nil {
		return domain.ServiceRequest{}, err
	}
	return *sr, nil
}

func (s *Service) List(ctx context.Context, req domain.ListServiceRequestRequest) (domain.ListServiceRequestResponse, error) {
	page := req.Pagination.Normalize()
	items, total, err := s.repo.List(ctx, s.db, strings.TrimSpace(req.Filter), page)
	if err != nil {
		return domain.ListServiceRequestResponse{}, err
	}

	requests := make([]domain.ServiceRequest, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		requests = append(requests, *item)
	}

	resp := domain.ListServiceRequestResponse{ServiceRequests: requests}
	resp.Page = page.Page
	resp.Size = page.Size
	resp.TotalCount = total
	return resp, nil
}

func (s *Service) FindBillable(ctx context.Context, customerID snowflake.ID, p period.Period, serviceStates []domain.State) ([]domain.BillableRow, error) {
	if len(serviceStates) == 0 {
		serviceStates = domain.BillableStates
	}
	return s.repo.FindBillable(ctx, s.db, customerID, p.Start(), p.End(), serviceStates, agreementdomain.BillableStates)
}

func (s *Service) findByID(ctx context.Context, rawID string) (*domain.ServiceRequest, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return nil, err
	}

	sr, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if sr == nil {
		return nil, domain.ErrNotFound
	}
	return sr, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
