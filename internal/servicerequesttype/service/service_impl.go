package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/clock"
	"github.com/opsbill/tarifa/internal/servicerequesttype/domain"
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
		log:   p.Log.Named("servicerequesttype.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateServiceRequestTypeRequest) (domain.ServiceRequestType, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.ServiceRequestType{}, domain.ErrInvalidName
	}
	if req.HourlyFee < 0 {
		return domain.ServiceRequestType{}, domain.ErrInvalidHourlyFee
	}

	now := s.clock.Now()
	srt := domain.ServiceRequestType{
		ID:          s.genID.Generate(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		HourlyFee:   req.HourlyFee,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, &srt); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ServiceRequestType{}, domain.ErrNameTaken
		}
		return domain.ServiceRequestType{}, err
	}

	s.log.Info("service request type created",
		zap.String("type_id", srt.ID.String()),
		zap.Float64("hourly_fee", srt.HourlyFee),
	)
	return srt, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateServiceRequestTypeRequest) (domain.ServiceRequestType, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.ServiceRequestType{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.ServiceRequestType{}, domain.ErrInvalidName
	}
	if req.HourlyFee < 0 {
		return domain.ServiceRequestType{}, domain.ErrInvalidHourlyFee
	}

	srt, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.ServiceRequestType{}, err
	}
	if srt == nil {
		return domain.ServiceRequestType{}, domain.ErrNotFound
	}

	srt.Name = name
	srt.Description = strings.TrimSpace(req.Description)
	srt.HourlyFee = req.HourlyFee
	srt.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, srt); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ServiceRequestType{}, domain.ErrNameTaken
		}
		return domain.ServiceRequestType{}, err
	}

	return *srt, nil
}

func (s *Service) List(ctx context.Context, req domain.ListServiceRequestTypeRequest) (domain.ListServiceRequestTypeResponse, error) {
	page := req.Pagination.Normalize()
	items, total, err := s.repo.List(ctx, s.db, req.ActiveOnly, page)
	if err != nil {
		return domain.ListServiceRequestTypeResponse{}, err
	}

	types := make([]domain.ServiceRequestType, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		types = append(types, *item)
	}

	resp := domain.ListServiceRequestTypeResponse{Types: types}
	resp.Page = page.Page
	resp.Size = page.Size
	resp.TotalCount = total
	return resp, nil
}

func (s *Service) ListActive(ctx context.Context) ([]domain.ServiceRequestType, error) {
	items, err := s.repo.ListActive(ctx, s.db)
	if err != nil {
		return nil, err
	}

	types := make([]domain.ServiceRequestType, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		types = append(types, *item)
	}
	return types, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetServiceRequestTypeRequest) (domain.ServiceRequestType, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.ServiceRequestType{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.ServiceRequestType{}, err
	}
	if item == nil {
		return domain.ServiceRequestType{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) DeleteOrRestore(ctx context.Context, req domain.GetServiceRequestTypeRequest) (domain.ServiceRequestType, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.ServiceRequestType{}, err
	}

	srt, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.ServiceRequestType{}, err
	}
	if srt == nil {
		return domain.ServiceRequestType{}, domain.ErrNotFound
	}

	now := s.clock.Now()
	if srt.SoftDeletedAt == nil {
		srt.SoftDeletedAt = &now
	} else {
		srt.SoftDeletedAt = nil
	}
	srt.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, srt); err != nil {
		return domain.ServiceRequestType{}, err
	}

	s.log.Info("service request type soft delete toggled",
		zap.String("type_id", srt.ID.String()),
		zap.Bool("active", srt.Active()),
	)
	return *srt, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
