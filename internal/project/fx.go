package project

import (
	"github.com/opsbill/tarifa/internal/project/repository"
	"github.com/opsbill/tarifa/internal/project/service"
	"go.uber.org/fx"
)

var Module = fx.Module("project.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
