package billingprocess

import (
	"github.com/opsbill/tarifa/internal/billingprocess/calculator"
	"github.com/opsbill/tarifa/internal/billingprocess/repository"
	"github.com/opsbill/tarifa/internal/billingprocess/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billingprocess.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(calculator.New),
)
