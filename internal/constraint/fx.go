package constraint

import (
	"github.com/keepsakelabs/keepsake/internal/constraint/repository"
	"github.com/keepsakelabs/keepsake/internal/constraint/service"
	"go.uber.org/fx"
)

var Module = fx.Module("constraint.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
