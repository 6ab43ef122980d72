package controller

import (
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/service"
	"exam_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	Service *service.QuestionService
}

func NewQuestionController(svc *service.QuestionService) *QuestionController {
	return &QuestionController{Service: svc}
}

// @Summary 组卷：数量（QA）
// @Tags 组卷
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.AssembleRequest true "题量、难度、题型"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/questions/qa [post]
func (c *QuestionController) AssembleQA(ctx *gin.Context) {
	c.assemble(ctx, model.SectionQA)
}

// @Summary 组卷：言语理解（VARC）
// @Description topics 同时包含 Reading Comprehension 与 Verbal Ability 时按固定规则拆分题量
// @Tags 组卷
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.AssembleRequest true "题量、难度、题型"
// @Success 200 {object} util.Response
// @Router /api/questions/varc [post]
func (c *QuestionController) AssembleVARC(ctx *gin.Context) {
	c.assemble(ctx, model.SectionVARC)
}

// @Summary 组卷：数据分析与逻辑推理（DILR）
// @Tags 组卷
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.AssembleRequest true "题量、难度、题型"
// @Success 200 {object} util.Response
// @Router /api/questions/dilr [post]
func (c *QuestionController) AssembleDILR(ctx *gin.Context) {
	c.assemble(ctx, model.SectionDILR)
}

func (c *QuestionController) assemble(ctx *gin.Context, section model.Section) {
	var req service.AssembleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	set, err := c.Service.AssembleQuestions(ctx.Request.Context(), section, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	// 题库没有匹配内容不算错误，返回空结果
	util.Success(ctx, gin.H{
		"result": set,
		"count":  set.Count(),
		"empty":  set.Empty(),
	})
}

// @Summary 批量查询题目详情
// @Tags 组卷
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.ResolveRequest true "各板块题目ID"
// @Success 200 {object} util.Response
// @Router /api/questions/resolve [post]
func (c *QuestionController) Resolve(ctx *gin.Context) {
	var req service.ResolveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.ResolveQuestions(ctx.Request.Context(), req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 新建文章/案例
// @Tags 题库管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.GalleyRequest true "文章信息"
// @Success 201 {object} util.Response
// @Router /api/admin/galleys [post]
func (c *QuestionController) CreateGalley(ctx *gin.Context) {
	var req service.GalleyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	g, err := c.Service.CreateGalley(ctx.Request.Context(), req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"id": util.FormatID(g.ID), "section": g.Section, "domain": g.Domain})
}

// @Summary 录入题目
// @Description 指定 galleyId 时题目同时追加到该文章对应难度的分区
// @Tags 题库管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.QuestionRequest true "题目信息"
// @Success 201 {object} util.Response
// @Router /api/admin/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.Service.CreateQuestion(ctx.Request.Context(), req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"id": util.FormatID(q.ID), "section": q.Section, "difficulty": q.Difficulty})
}

// @Summary 重建文章难度分区
// @Tags 题库管理
// @Produce json
// @Security BearerAuth
// @Param id path string true "文章ID"
// @Success 200 {object} util.Response
// @Router /api/admin/galleys/{id}/rebuild [post]
func (c *QuestionController) RebuildGalley(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid galley id")
		return
	}

	p, err := c.Service.RebuildGalleyPartition(ctx.Request.Context(), id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, p)
}
