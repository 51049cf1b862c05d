package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/clock"
	customerdomain "github.com/opsbill/tarifa/internal/customer/domain"
	"github.com/opsbill/tarifa/internal/project/domain"
	"github.com/opsbill/tarifa/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	GenID        *snowflake.Node
	Repo         domain.Repository
	CustomerRepo customerdomain.Repository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	genID        *snowflake.Node
	repo         domain.Repository
	customerRepo customerdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("project.service"),
		clock:        p.Clock,
		genID:        p.GenID,
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProjectRequest) (domain.Project, error) {
	customerID, err := s.parseID(req.CustomerID)
	if err != nil {
		return domain.Project{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Project{}, domain.ErrInvalidName
	}

	customer, err := s.customerRepo.FindByID(ctx, s.db, customerID)
	if err != nil {
		return domain.Project{}, err
	}
	if customer == nil {
		return domain.Project{}, domain.ErrCustomerNotFound
	}
	if !customer.Active() {
		return domain.Project{}, domain.ErrCustomerNotActive
	}

	taken, err := s.repo.ExistsByCustomerAndName(ctx, s.db, customerID, name)
	if err != nil {
		return domain.Project{}, err
	}
	if taken {
		return domain.Project{}, domain.ErrNameTaken
	}

	now := s.clock.Now()
	project := domain.Project{
		ID:          s.genID.Generate(),
		CustomerID:  customerID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, &project); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Project{}, domain.ErrNameTaken
		}
		return domain.Project{}, err
	}

	s.log.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("customer_id", customerID.String()),
	)
	return project, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateProjectRequest) (domain.Project, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Project{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Project{}, domain.ErrInvalidName
	}

	project, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Project{}, err
	}
	if project == nil {
		return domain.Project{}, domain.ErrNotFound
	}

	if name != project.Name {
		taken, err := s.repo.ExistsByCustomerAndName(ctx, s.db, project.CustomerID, name)
		if err != nil {
			return domain.Project{}, err
		}
		if taken {
			return domain.Project{}, domain.ErrNameTaken
		}
	}

	project.Name = name
	project.Description = strings.TrimSpace(req.Description)
	project.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, project); err != nil {
		return domain.Project{}, err
	}

	return *project, nil
}

func (s *Service) ListByCustomer(ctx context.Context, req domain.ListProjectRequest) (domain.ListProjectResponse, error) {
	customerID, err := s.parseID(req.CustomerID)
	if err != nil {
		return domain.ListProjectResponse{}, err
	}

	page := req.Pagination.Normalize()
	items, total, err := s.repo.ListByCustomer(ctx, s.db, customerID, req.ActiveOnly, page)
	if err != nil {
		return domain.ListProjectResponse{}, err
	}

	projects := make([]domain.Project, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		projects = append(projects, *item)
	}

	resp := domain.ListProjectResponse{Projects: projects}
	resp.Page = page.Page
	resp.Size = page.Size
	resp.TotalCount = total
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetProjectRequest) (domain.Project, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Project{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Project{}, err
	}
	if item == nil {
		return domain.Project{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) GetActiveByID(ctx context.Context, req domain.GetProjectRequest) (domain.Project, error) {
	project, err := s.GetByID(ctx, req)
	if err != nil {
		return domain.Project{}, err
	}
	if !project.Active() {
		return domain.Project{}, domain.ErrProjectNotActive
	}

	customer, err := s.customerRepo.FindByID(ctx, s.db, project.CustomerID)
	if err != nil {
		return domain.Project{}, err
	}
	if customer == nil || !customer.Active() {
		return domain.Project{}, domain.ErrCustomerNotActive
	}

	return project, nil
}

func (s *Service) DeleteOrRestore(ctx context.Context, req domain.GetProjectRequest) (domain.Project, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Project{}, err
	}

	project, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Project{}, err
	}
	if project == nil {
		return domain.Project{}, domain.ErrNotFound
	}

	now := s.clock.Now()
	if project.SoftDeletedAt == nil {
		project.SoftDeletedAt = &now
	} else {
		project.SoftDeletedAt = nil
	}
	project.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, project); err != nil {
		return domain.Project{}, err
	}

	s.log.Info("project soft delete toggled",
		zap.String("project_id", project.ID.String()),
		zap.Bool("active", project.Active()),
	)
	return *project, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
