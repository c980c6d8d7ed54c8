package catalog

import (
	"github.com/keepsakelabs/keepsake/internal/catalog/repository"
	"github.com/keepsakelabs/keepsake/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
