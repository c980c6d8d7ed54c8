package ordercustomization

import (
	"github.com/keepsakelabs/keepsake/internal/ordercustomization/repository"
	"github.com/keepsakelabs/keepsake/internal/ordercustomization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ordercustomization.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
