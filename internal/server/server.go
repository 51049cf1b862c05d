package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	agreementdomain "github.com/opsbill/tarifa/internal/agreement/domain"
	"github.com/opsbill/tarifa/internal/batch"
	bpdomain "github.com/opsbill/tarifa/internal/billingprocess/domain"
	"github.com/opsbill/tarifa/internal/config"
	customerdomain "github.com/opsbill/tarifa/internal/customer/domain"
	"github.com/opsbill/tarifa/internal/observability"
	projectdomain "github.com/opsbill/tarifa/internal/project/domain"
	"github.com/opsbill/tarifa/internal/scheduler"
	srdomain "github.com/opsbill/tarifa/internal/servicerequest/domain"
	srtdomain "github.com/opsbill/tarifa/internal/servicerequesttype/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, log *zap.Logger, genID *snowflake.Node) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log, genID))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine            *gin.Engine
	cfg               config.Config
	db                *gorm.DB
	genID             *snowflake.Node
	customerSvc       customerdomain.Service
	projectSvc        projectdomain.Service
	agreementSvc      agreementdomain.Service
	serviceRequestSvc srdomain.Service
	requestTypeSvc    srtdomain.Service
	billingProcessSvc bpdomain.Service
	executions        batch.ExecutionRepository
	scheduler         *scheduler.Scheduler
}

type ServerParams struct {
	fx.In

	Gin               *gin.Engine
	Cfg               config.Config
	DB                *gorm.DB
	GenID             *snowflake.Node
	CustomerSvc       customerdomain.Service
	ProjectSvc        projectdomain.Service
	AgreementSvc      agreementdomain.Service
	ServiceRequestSvc srdomain.Service
	RequestTypeSvc    srtdomain.Service
	BillingProcessSvc bpdomain.Service
	Executions        batch.ExecutionRepository
	Scheduler         *scheduler.Scheduler `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:            p.Gin,
		cfg:               p.Cfg,
		db:                p.DB,
		genID:             p.GenID,
		customerSvc:       p.CustomerSvc,
		projectSvc:        p.ProjectSvc,
		agreementSvc:      p.AgreementSvc,
		serviceRequestSvc: p.ServiceRequestSvc,
		requestTypeSvc:    p.RequestTypeSvc,
		billingProcessSvc: p.BillingProcessSvc,
		executions:        p.Executions,
		scheduler:         p.Scheduler,
	}

	svc.registerAdminRoutes()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAdminRoutes() {
	api := s.engine.Group("/api")

	// -------- Customers --------
	api.GET("/customers", s.ListCustomers)
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.PUT("/customers/:id", s.UpdateCustomer)
	api.DELETE("/customers/:id", s.DeleteOrRestoreCustomer)
	api.GET("/customers/:id/projects", s.ListProjectsByCustomer)

	// -------- Projects --------
	api.POST("/projects", s.CreateProject)
	api.GET("/projects/:id", s.GetProjectByID)
	api.PUT("/projects/:id", s.UpdateProject)
	api.DELETE("/projects/:id", s.DeleteOrRestoreProject)

	// -------- Agreements --------
	api.GET("/agreements", s.ListAgreements)
	api.POST("/agreements", s.CreateAgreement)
	api.GET("/agreements/:id", s.GetAgreementByID)
	api.PUT("/agreements/:id", s.UpdateAgreement)
	api.DELETE("/agreements/:id", s.DeleteAgreement)
	api.POST("/agreements/:id/accept", s.AcceptAgreement)
	api.POST("/agreements/:id/finish", s.FinishAgreement)

	// -------- Service request types --------
	api.GET("/service-request-types", s.ListServiceRequestTypes)
	api.POST("/service-request-types", s.CreateServiceRequestType)
	api.GET("/service-request-types/:id", s.GetServiceRequestTypeByID)
	api.PUT("/service-request-types/:id", s.UpdateServiceRequestType)
	api.DELETE("/service-request-types/:id", s.DeleteOrRestoreServiceRequestType)

	// -------- Service requests --------
	api.GET("/service-requests", s.ListServiceRequests)
	api.POST("/service-requests", s.CreateServiceRequest)
	api.GET("/service-requests/:id", s.GetServiceRequestByID)
	api.DELETE("/service-requests/:id", s.DeleteServiceRequest)
	api.POST("/service-requests/:id/start", s.StartServiceRequest)
	api.POST("/service-requests/:id/finish", s.FinishServiceRequest)

	// -------- Billing processes --------
	api.GET("/billing-processes", s.ListBillingProcesses)
	api.GET("/billing-processes/:id", s.GetBillingProcessByID)
	api.GET("/billing-executions", s.ListBillingExecutions)
	api.POST("/billing/run", s.RunMonthlyBilling)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
