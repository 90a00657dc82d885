package httpapi

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/opsintel/backend/internal/config"
	"github.com/opsintel/backend/internal/http/handlers"
	"github.com/opsintel/backend/internal/http/middleware"
	"github.com/opsintel/backend/internal/session"

	_ "github.com/opsintel/backend/docs"
)

// Router wires the session routes. archive and exports may be nil.
func Router(cfg config.Config, ctrl *session.Controller, archive handlers.Archive, exports handlers.Publisher, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Admin-Key", "X-Request-Id"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" || cfg.CORSAllowed == "" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = strings.Split(cfg.CORSAllowed, ",")
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Session:       ctrl,
		Archive:       archive,
		Exports:       exports,
		Validator:     validator.New(),
		Logger:        logger,
		MaxUploadSize: cfg.MaxUploadSizeMB << 20,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/datasets", h.DatasetsList)
		api.GET("/datasets/:id/analysis", h.Analysis)
		api.GET("/datasets/:id/dashboard", h.Dashboard)
		api.GET("/datasets/:id/export/:table", h.Export)
		api.GET("/global", h.Global)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/datasets/:id/activate", h.Activate)
		admin.POST("/datasets/:id/upload", h.Upload)
		admin.POST("/datasets/:id/paste", h.Paste)
		admin.PUT("/datasets/:id/content", h.SetContent)
		admin.POST("/datasets/:id/sample", h.LoadSample)
		admin.DELETE("/datasets/:id", h.ResetDataset)
		admin.POST("/reset", h.ResetAll)
		admin.POST("/global/synthesize", h.Synthesize)
		admin.DELETE("/error", h.DismissError)
		admin.GET("/archive", h.ArchiveList)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
