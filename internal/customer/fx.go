package customer

import (
	"github.com/opsbill/tarifa/internal/customer/repository"
	"github.com/opsbill/tarifa/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
