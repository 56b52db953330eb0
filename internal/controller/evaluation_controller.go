package controller

import (
	"reading_eval_backend/internal/service"
	"reading_eval_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// EvaluationController 学生端接口，无需登录，凭访问码进入
type EvaluationController struct {
	AccessCodeService *service.AccessCodeService
	AttemptService    *service.AttemptService
}

func NewEvaluationController(accessCodeService *service.AccessCodeService, attemptService *service.AttemptService) *EvaluationController {
	return &EvaluationController{AccessCodeService: accessCodeService, AttemptService: attemptService}
}

type OpenAttemptRequest struct {
	Code string `json:"code" binding:"required,max=32"`
}

// @Summary 兑换访问码
// @Description 返回作答的只读视图（文本与题目，不含答案）。访问码不存在返回 404，已过期返回 410
// @Tags 学生评测
// @Accept json
// @Produce json
// @Param request body OpenAttemptRequest true "访问码"
// @Success 200 {object} util.Response{data=service.AttemptSnapshot}
// @Failure 404 {object} util.Response
// @Failure 410 {object} util.Response
// @Failure 429 {object} util.Response
// @Router /api/evaluations/open [post]
func (c *EvaluationController) Open(ctx *gin.Context) {
	var req OpenAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	snapshot, err := c.AccessCodeService.Redeem(ctx.Request.Context(), req.Code)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, snapshot)
}

// @Summary 提交作答
// @Description 评分并保存四类答案。重复提交默认返回 409，场次截止后返回 410
// @Tags 学生评测
// @Accept json
// @Produce json
// @Param id path string true "作答ID"
// @Param submission body service.Submission true "答案"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Failure 410 {object} util.Response
// @Router /api/evaluations/attempts/{id}/submit [post]
func (c *EvaluationController) Submit(ctx *gin.Context) {
	var sub service.Submission
	if err := ctx.ShouldBindJSON(&sub); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AttemptService.Submit(ctx.Request.Context(), ctx.Param("id"), sub)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}
