package servicerequesttype

import (
	"github.com/opsbill/tarifa/internal/servicerequesttype/repository"
	"github.com/opsbill/tarifa/internal/servicerequesttype/service"
	"go.uber.org/fx"
)

var Module = fx.Module("servicerequesttype.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
