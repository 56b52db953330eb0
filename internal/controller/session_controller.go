package controller

import (
	"reading_eval_backend/internal/service"
	"reading_eval_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// SessionController 教师端：发布、关闭场次，查看进度，重新生成访问码
type SessionController struct {
	SessionService    *service.SessionService
	AccessCodeService *service.AccessCodeService
}

func NewSessionController(sessionService *service.SessionService, accessCodeService *service.AccessCodeService) *SessionController {
	return &SessionController{SessionService: sessionService, AccessCodeService: accessCodeService}
}

// @Summary 发布评测场次
// @Description 为班级每位在读学生创建作答与访问码
// @Tags 评测场次
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.PublishRequest true "发布信息"
// @Success 201 {object} util.Response{data=service.PublishResult}
// @Failure 404 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /api/teacher/sessions [post]
func (c *SessionController) Publish(ctx *gin.Context) {
	scope, ok := util.GetCapabilityFromContext(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	var req service.PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.SessionService.Publish(ctx.Request.Context(), scope, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, result)
}

// @Summary 关闭评测场次
// @Description 单向操作，重复关闭不会改变首次关闭时间
// @Tags 评测场次
// @Produce json
// @Security BearerAuth
// @Param id path string true "场次ID"
// @Success 200 {object} util.Response{data=model.EvaluationSession}
// @Router /api/teacher/sessions/{id}/close [post]
func (c *SessionController) Close(ctx *gin.Context) {
	scope, ok := util.GetCapabilityFromContext(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.SessionService.Close(ctx.Request.Context(), scope, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"session":         session,
		"effectiveStatus": c.SessionService.EffectiveStatus(session),
	})
}

// @Summary 场次进度
// @Tags 评测场次
// @Produce json
// @Security BearerAuth
// @Param id path string true "场次ID"
// @Success 200 {object} util.Response{data=service.SessionProgress}
// @Router /api/teacher/sessions/{id}/progress [get]
func (c *SessionController) Progress(ctx *gin.Context) {
	scope, ok := util.GetCapabilityFromContext(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.SessionService.Progress(ctx.Request.Context(), scope, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// @Summary 场次作答列表
// @Tags 评测场次
// @Produce json
// @Security BearerAuth
// @Param id path string true "场次ID"
// @Success 200 {object} util.Response{data=[]service.AttemptView}
// @Router /api/teacher/sessions/{id}/attempts [get]
func (c *SessionController) ListAttempts(ctx *gin.Context) {
	scope, ok := util.GetCapabilityFromContext(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	attempts, err := c.SessionService.ListAttempts(ctx.Request.Context(), scope, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, attempts)
}

// @Summary 导出访问码表
// @Tags 评测场次
// @Produce json
// @Security BearerAuth
// @Param id path string true "场次ID"
// @Success 201 {object} util.Response{data=service.CodeSheet}
// @Router /api/teacher/sessions/{id}/code-sheet [post]
func (c *SessionController) ExportCodeSheet(ctx *gin.Context) {
	scope, ok := util.GetCapabilityFromContext(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	sheet, err := c.SessionService.ExportCodeSheet(ctx.Request.Context(), scope, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, sheet)
}

// @Summary 重新生成访问码
// @Description 撤销该作答现有访问码并签发新码
// @Tags 评测场次
// @Produce json
// @Security BearerAuth
// @Param id path string true "作答ID"
// @Success 201 {object} util.Response{data=service.RegeneratedCode}
// @Failure 410 {object} util.Response
// @Router /api/teacher/attempts/{id}/code [post]
func (c *SessionController) RegenerateCode(ctx *gin.Context) {
	scope, ok := util.GetCapabilityFromContext(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	code, err := c.AccessCodeService.Regenerate(ctx.Request.Context(), scope, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, code)
}
