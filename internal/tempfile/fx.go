package tempfile

import (
	"github.com/keepsakelabs/keepsake/internal/tempfile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tempfile.store",
	fx.Provide(service.New),
)
