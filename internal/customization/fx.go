package customization

import (
	"github.com/keepsakelabs/keepsake/internal/customization/repository"
	"github.com/keepsakelabs/keepsake/internal/customization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customization.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
