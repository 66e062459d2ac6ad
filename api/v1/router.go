package v1

import (
	"fmt"
	"net/http"

	"go_sitebuilder/api/v1/auth"
	"go_sitebuilder/api/v1/domains"
	"go_sitebuilder/api/v1/layouts"
	"go_sitebuilder/api/v1/middleware"
	"go_sitebuilder/api/v1/properties"
	"go_sitebuilder/api/v1/settings"
	"go_sitebuilder/api/v1/siteconfig"
	iauth "go_sitebuilder/internal/auth"
	"go_sitebuilder/internal/config"
	"go_sitebuilder/internal/customdomain"
	"go_sitebuilder/internal/httpx"
	"go_sitebuilder/internal/layout"
	"go_sitebuilder/internal/property"
	isettings "go_sitebuilder/internal/settings"
	"go_sitebuilder/internal/sslcert"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps 路由依赖，进程启动时创建
type Deps struct {
	Config     *config.Config
	DB         *gorm.DB
	Logger     *logrus.Logger
	Sessions   iauth.SessionStore
	Verifier   middleware.TokenVerifier
	Assembler  siteconfig.Assembler
	Layouts    *layout.Store
	Settings   *isettings.Store
	Properties property.Service
	Domains    *customdomain.Service
	Challenges sslcert.ChallengeStore
	Socket     http.Handler // socket.io，为空时不挂载
}

// SetupRouter sets up the API v1 routes
func SetupRouter(r *gin.Engine, deps Deps) error {
	r.Use(middleware.RequestID())
	if deps.Logger != nil {
		r.Use(middleware.RequestLogger(deps.Logger))
	}

	// HTTP-01 challenge 必须挂在根路径
	if deps.Challenges != nil {
		r.GET("/.well-known/acme-challenge/:token", sslcert.ChallengeHandler(deps.Challenges))
	}
	if deps.Socket != nil {
		r.GET("/socket.io/*any", gin.WrapH(deps.Socket))
		r.POST("/socket.io/*any", gin.WrapH(deps.Socket))
	}

	limited := []gin.HandlerFunc{}
	if rl := deps.Config.RateLimit; rl.Enabled {
		limiter, err := middleware.NewRateLimiter(rl.Requests, rl.Period)
		if err != nil {
			return fmt.Errorf("failed to create rate limiter: %w", err)
		}
		limited = append(limited, limiter)
	}

	v1 := r.Group("/api/v1")
	{
		// Public routes (no authentication required)
		v1.GET("/ping", pingHandler)

		// Auth routes
		authHandler := auth.NewHandler(deps.DB, deps.Sessions, deps.Config)
		authGroup := v1.Group("/auth", limited...)
		{
			authGroup.POST("/login", authHandler.Login)
		}

		// Site configuration, read by storefronts
		siteHandler := siteconfig.NewHandler(deps.Assembler)
		siteGroup := v1.Group("/site-config", limited...)
		{
			siteGroup.GET("", siteHandler.ByDomain)
			siteGroup.GET("/by-company/:id", siteHandler.ByCompany)
		}

		propertiesHandler := properties.NewHandler(deps.Properties)
		publicGroup := v1.Group("/public", limited...)
		{
			publicGroup.GET("/companies/:id/properties", propertiesHandler.List)
			publicGroup.GET("/companies/:id/properties/:propertyId", propertiesHandler.Get)
		}

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired(deps.Verifier))
		{
			protected.GET("/me", authHandler.Me)
			protected.POST("/auth/logout", authHandler.Logout)

			layoutsHandler := layouts.NewHandler(deps.Layouts)
			layoutsGroup := protected.Group("/layouts")
			{
				layoutsGroup.GET("", layoutsHandler.List)
				layoutsGroup.POST("", layoutsHandler.Create)
				layoutsGroup.GET("/:id", layoutsHandler.Get)
				layoutsGroup.PUT("/:id", layoutsHandler.Update)
				layoutsGroup.DELETE("/:id", layoutsHandler.Delete)
				layoutsGroup.POST("/:id/publish", layoutsHandler.Publish)

				layoutsGroup.POST("/:id/sections", layoutsHandler.AddSection)
				layoutsGroup.POST("/:id/sections/reorder", layoutsHandler.ReorderSections)
				layoutsGroup.PUT("/:id/sections/:sectionId", layoutsHandler.UpdateSection)
				layoutsGroup.DELETE("/:id/sections/:sectionId", layoutsHandler.DeleteSection)
			}

			if deps.Domains != nil {
				domainsHandler := domains.NewHandler(deps.Domains)
				domainsGroup := protected.Group("/domains")
				{
					domainsGroup.GET("", domainsHandler.List)
					domainsGroup.POST("", domainsHandler.Create)
					domainsGroup.POST("/:id/primary", domainsHandler.SetPrimary)
					domainsGroup.POST("/:id/verify", domainsHandler.Verify)
					domainsGroup.POST("/:id/check", domainsHandler.Check)
					domainsGroup.POST("/:id/disable", domainsHandler.Disable)
					domainsGroup.DELETE("/:id", domainsHandler.Delete)
				}
			}

			settingsHandler := settings.NewHandler(deps.Settings)
			protected.GET("/settings", settingsHandler.Get)
			protected.PUT("/settings", settingsHandler.Put)
		}
	}
	return nil
}

// pingHandler handles the ping request using unified response
func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}
