package app

import (
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/middleware"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/util"
	"exam_prep_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.NoRoute(util.NotFound)
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerStudentRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/galleys", c.question.CreateGalley)
		admin.POST("/galleys/:id/rebuild", c.question.RebuildGalley)
		admin.POST("/questions", c.question.CreateQuestion)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	// 组卷
	rg.POST("/questions/qa", c.question.AssembleQA)
	rg.POST("/questions/varc", c.question.AssembleVARC)
	rg.POST("/questions/dilr", c.question.AssembleDILR)
	rg.POST("/questions/resolve", c.question.Resolve)

	// 测试记录
	rg.POST("/tests/result", c.test.SubmitResult)
	rg.GET("/tests", c.test.ListTests)
	rg.GET("/tests/:id", c.test.GetTest)

	// 成绩统计
	rg.GET("/dashboard", c.dashboard.GetDashboard)
	rg.POST("/dashboard/init", c.dashboard.InitDashboard)
}
