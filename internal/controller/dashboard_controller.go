package controller

import (
	"exam_prep_backend/internal/service"
	"exam_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	Service *service.AnalyticsService
}

func NewDashboardController(svc *service.AnalyticsService) *DashboardController {
	return &DashboardController{Service: svc}
}

// @Summary 获取成绩统计
// @Description 总正确率、平均用时、近 10 次成绩趋势及板块/题型/难度细分
// @Tags 成绩统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/dashboard [get]
func (c *DashboardController) GetDashboard(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	analytics, err := c.Service.GetDashboard(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, analytics)
}

// @Summary 初始化成绩统计
// @Description 已存在时直接返回现有记录
// @Tags 成绩统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/dashboard/init [post]
func (c *DashboardController) InitDashboard(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	d, err := c.Service.InitDashboard(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, d.Analytics.Data())
}
