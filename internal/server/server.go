package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/keepsakelabs/keepsake/internal/artwork"
	"github.com/keepsakelabs/keepsake/internal/catalog"
	catalogdomain "github.com/keepsakelabs/keepsake/internal/catalog/domain"
	"github.com/keepsakelabs/keepsake/internal/config"
	"github.com/keepsakelabs/keepsake/internal/constraint"
	constraintdomain "github.com/keepsakelabs/keepsake/internal/constraint/domain"
	"github.com/keepsakelabs/keepsake/internal/customization"
	customizationdomain "github.com/keepsakelabs/keepsake/internal/customization/domain"
	"github.com/keepsakelabs/keepsake/internal/observability"
	obsmiddleware "github.com/keepsakelabs/keepsake/internal/observability/logger"
	obsmetrics "github.com/keepsakelabs/keepsake/internal/observability/metrics"
	obstracing "github.com/keepsakelabs/keepsake/internal/observability/tracing"
	"github.com/keepsakelabs/keepsake/internal/ordercustomization"
	ordercustomizationdomain "github.com/keepsakelabs/keepsake/internal/ordercustomization/domain"
	"github.com/keepsakelabs/keepsake/internal/ratelimit"
	"github.com/keepsakelabs/keepsake/internal/tempfile"
	tempfiledomain "github.com/keepsakelabs/keepsake/internal/tempfile/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	catalog.Module,
	customization.Module,
	constraint.Module,
	tempfile.Module,
	artwork.Module,
	ordercustomization.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine                *gin.Engine
	cfg                   config.Config
	db                    *gorm.DB
	genID                 *snowflake.Node
	catalogSvc            catalogdomain.Service
	customizationSvc      customizationdomain.Service
	constraintSvc         constraintdomain.Service
	orderCustomizationSvc ordercustomizationdomain.Service
	files                 tempfiledomain.Store
	storage               *config.StorageConfigHolder
	publicLimiter         *ratelimit.PublicLimiter
}

type ServerParams struct {
	fx.In

	Gin                   *gin.Engine
	Cfg                   config.Config
	DB                    *gorm.DB
	GenID                 *snowflake.Node
	CatalogSvc            catalogdomain.Service
	CustomizationSvc      customizationdomain.Service
	ConstraintSvc         constraintdomain.Service
	OrderCustomizationSvc ordercustomizationdomain.Service
	Files                 tempfiledomain.Store
	Storage               *config.StorageConfigHolder
	PublicLimiter         *ratelimit.PublicLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:                p.Gin,
		cfg:                   p.Cfg,
		db:                    p.DB,
		genID:                 p.GenID,
		catalogSvc:            p.CatalogSvc,
		customizationSvc:      p.CustomizationSvc,
		constraintSvc:         p.ConstraintSvc,
		orderCustomizationSvc: p.OrderCustomizationSvc,
		files:                 p.Files,
		storage:               p.Storage,
		publicLimiter:         p.PublicLimiter,
	}

	svc.registerPublicRoutes()
	svc.registerOrderRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPublicRoutes() {
	r := s.engine

	// Storefront surface: read rule sets, pre-validate selections and carts,
	// move artwork bytes in and out.
	r.GET("/customizations/:referenceId", s.ListCustomizations)
	r.POST("/customizations/validate", s.ValidateRateLimit(), s.ValidateSelections)
	r.POST("/customization/validate", s.ValidateRateLimit(), s.ValidateProductSelections)
	r.POST("/constraints/validate", s.ValidateRateLimit(), s.ValidateCart)

	r.POST("/temp-files", s.UploadRateLimit(), s.UploadTempFile)
	r.GET("/temp-files/:filename", s.ServeTempFile)
}

func (s *Server) registerOrderRoutes() {
	orders := s.engine.Group("/orders")

	orders.POST("/:orderId/items/:itemId/customization", s.SaveOrderItemCustomizations)
	orders.GET("/:orderId/items/:itemId/customization", s.ListOrderItemCustomizations)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")

	// -------- Product types --------
	admin.POST("/product-types", s.CreateProductType)
	admin.GET("/product-types", s.ListProductTypes)
	admin.GET("/product-types/:id", s.GetProductType)

	// -------- Customization rules --------
	admin.POST("/customization/rule", s.CreateRule)
	admin.GET("/customization/rule", s.ListRules)
	admin.GET("/customization/rule/:id", s.GetRule)
	admin.PUT("/customization/rule/:id", s.UpdateRule)
	admin.DELETE("/customization/rule/:id", s.DeleteRule)

	// -------- Item constraints --------
	admin.POST("/constraints", s.CreateConstraint)
	admin.GET("/constraints/:itemId", s.GetItemConstraints)
	admin.DELETE("/constraints/:id", s.DeleteConstraint)

	// -------- Temp files --------
	admin.GET("/temp-files", s.ListTempFiles)
	admin.DELETE("/temp-files/:filename", s.DeleteTempFile)
	admin.POST("/temp-files/cleanup", s.CleanupTempFiles)
}
