package agreement

import (
	"github.com/opsbill/tarifa/internal/agreement/repository"
	"github.com/opsbill/tarifa/internal/agreement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("agreement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
