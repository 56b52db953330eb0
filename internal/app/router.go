package app

import (
	"reading_eval_backend/docs"
	"reading_eval_backend/internal/config"
	"reading_eval_backend/internal/middleware"
	"reading_eval_backend/internal/model"
	"reading_eval_backend/pkg/monitoring"
	"reading_eval_backend/pkg/security"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 学生评测接口，凭访问码进入
	a.registerEvaluationRoutes(router, c, cfg)

	// 3. 教师相关接口
	teacher := router.Group("/api/teacher")
	teacher.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		a.registerTeacherRoutes(teacher, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}
}

func (a *App) registerEvaluationRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	// 访问码兑换单独限流，防止暴力枚举
	redeemLimiter := security.NewLimiter(cfg.RateLimit.RedeemPerMinute, time.Minute)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for now := range ticker.C {
			redeemLimiter.Sweep(now)
		}
	}()

	evaluations := router.Group("/api/evaluations")
	{
		evaluations.POST("/open", redeemLimiter.Middleware(), c.evaluation.Open)
		evaluations.POST("/attempts/:id/submit", c.evaluation.Submit)
	}
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	staff := rg.Group("")
	staff.Use(middleware.RoleMiddleware(model.Teacher, model.Tutor))
	{
		staff.GET("/sessions/:id/progress", c.session.Progress)
		staff.GET("/sessions/:id/attempts", c.session.ListAttempts)
	}

	teachers := rg.Group("")
	teachers.Use(middleware.RoleMiddleware(model.Teacher))
	{
		teachers.POST("/sessions", c.session.Publish)
		teachers.POST("/sessions/:id/close", c.session.Close)
		teachers.POST("/sessions/:id/code-sheet", c.session.ExportCodeSheet)
		teachers.POST("/attempts/:id/code", c.session.RegenerateCode)
	}
}
