package migration

import (
	catalogdomain "github.com/keepsakelabs/keepsake/internal/catalog/domain"
	"github.com/keepsakelabs/keepsake/internal/config"
	constraintdomain "github.com/keepsakelabs/keepsake/internal/constraint/domain"
	customizationdomain "github.com/keepsakelabs/keepsake/internal/customization/domain"
	ordercustomizationdomain "github.com/keepsakelabs/keepsake/internal/ordercustomization/domain"
	tempfiledomain "github.com/keepsakelabs/keepsake/internal/tempfile/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// mysql and sqlite are for local development and tests; the
			// versioned SQL only targets postgres.
			return conn.AutoMigrate(
				&catalogdomain.ProductType{},
				&catalogdomain.Product{},
				&catalogdomain.AdditionalItem{},
				&customizationdomain.ProductRule{},
				&constraintdomain.ItemConstraint{},
				&tempfiledomain.TempFile{},
				&ordercustomizationdomain.OrderItemCustomization{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
