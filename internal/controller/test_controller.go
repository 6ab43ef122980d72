package controller

import (
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/service"
	"exam_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TestController struct {
	Service *service.AnalyticsService
}

func NewTestController(svc *service.AnalyticsService) *TestController {
	return &TestController{Service: svc}
}

// @Summary 提交测试结果
// @Description 保存原始结果并合并进用户统计；同一用户并发提交时后写者返回 409
// @Tags 测试
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.TestSubmission true "测试结果"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/tests/result [post]
func (c *TestController) SubmitResult(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var sub model.TestSubmission
	if err := ctx.ShouldBindJSON(&sub); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	analytics, err := c.Service.RecordSubmission(ctx.Request.Context(), user.UserID, &sub)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, analytics)
}

// @Summary 历史测试列表
// @Tags 测试
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/tests [get]
func (c *TestController) ListTests(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	tests, err := c.Service.ListTests(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, tests)
}

// @Summary 测试详情
// @Tags 测试
// @Produce json
// @Security BearerAuth
// @Param id path string true "测试ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/tests/{id} [get]
func (c *TestController) GetTest(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	rec, err := c.Service.GetTest(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, rec)
}
