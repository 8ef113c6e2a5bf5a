package router

import (
	"featboard/internal/handlers"
	"featboard/internal/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func RegisterRoutes(r *gin.Engine) {
	// Handlers
	authHandler := handlers.NewAuthHandler()
	featureHandler := handlers.NewFeatureHandler()
	voteHandler := handlers.NewVoteHandler()

	// Ten writes per second per IP with a small burst; reads are unlimited.
	writeLimiter := middleware.NewIPRateLimiter(rate.Limit(10), 20)

	api := r.Group("/api")

	// 公共路由 (Public Routes)
	api.GET("/features", featureHandler.List)
	api.GET("/feature/:fid", featureHandler.Detail)
	api.GET("/feature/:fid/voters", featureHandler.Voters)

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)

	// 受保护路由 (Protected Routes)
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/me", authHandler.Me)

		writes := authorized.Group("/")
		writes.Use(middleware.RateLimit(writeLimiter))
		{
			writes.POST("/feature", featureHandler.Create)
			writes.PUT("/feature/:fid", featureHandler.Update)
			writes.PATCH("/feature/:fid", featureHandler.Update)
			writes.DELETE("/feature/:fid", featureHandler.Delete)

			writes.POST("/feature/:fid/vote", voteHandler.Submit)
			writes.DELETE("/feature/:fid/vote", voteHandler.Retract)
		}
	}
}
