package api

import (
	"context"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/d60-Lab/zingg/config"
	_ "github.com/d60-Lab/zingg/docs"
	"github.com/d60-Lab/zingg/internal/api/handler"
	"github.com/d60-Lab/zingg/internal/api/middleware"
	"github.com/d60-Lab/zingg/pkg/database"
)

// NewRouter 装配中间件与路由
func NewRouter(cfg *config.Config, h *handler.Handler, authn *middleware.Authenticator, db *gorm.DB) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.RequestLogger())

	r.GET("/health", healthHandler(db))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		identity := v1.Group("/identity")
		identity.POST("/signup", h.SignUp)
		identity.POST("/signin", h.SignIn)
		identity.POST("/oauth-callback", h.OAuthCallback)
		identity.POST("/signout", authn.RequireAuth(), h.SignOut)
		identity.GET("/profile", authn.RequireAuth(), h.GetProfile)
		identity.PUT("/profile", authn.RequireAuth(), h.UpdateProfile)

		rel := v1.Group("/relationship")
		rel.POST("/follow", authn.RequireAuth(), h.ToggleFollow)
		rel.GET("/follow", authn.RequireAuth(), h.ListFollows)
		rel.GET("/follow/status", authn.OptionalAuth(), h.FollowStatus)
		rel.POST("/like", authn.RequireAuth(), h.ToggleLike)
		rel.GET("/like", authn.OptionalAuth(), h.LikeStatus)

		v1.GET("/mentions/search", authn.RequireAuth(), h.SearchMentions)

		blog := v1.Group("/blog")
		blog.POST("/comment", authn.RequireAuth(), h.AddComment)
		blog.GET("/comment", h.ListComments)
	}
	return r
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := database.Health(ctx, db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "zingg"})
	}
}
