package servicerequest

import (
	"github.com/opsbill/tarifa/internal/servicerequest/repository"
	"github.com/opsbill/tarifa/internal/servicerequest/service"
	"go.uber.org/fx"
)

var Module = fx.Module("servicerequest.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
