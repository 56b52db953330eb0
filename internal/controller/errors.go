package controller

import (
	"errors"
	"reading_eval_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError 将业务错误映射为 HTTP 状态码；未知错误记录日志并返回 500
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrValidation):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrAccessCodeNotFound),
		errors.Is(err, util.ErrAttemptNotFound),
		errors.Is(err, util.ErrSessionNotFound),
		errors.Is(err, util.ErrClassroomNotFound),
		errors.Is(err, util.ErrTextNotFound),
		errors.Is(err, util.ErrQuizNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrAccessCodeExpired),
		errors.Is(err, util.ErrAttemptExpired),
		errors.Is(err, util.ErrSessionExpired),
		errors.Is(err, util.ErrSessionClosed):
		util.Gone(ctx, err.Error())
	case errors.Is(err, util.ErrAttemptAlreadySubmitted),
		errors.Is(err, util.ErrSubmissionInProgress):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrClassroomEmpty):
		util.UnprocessableEntity(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
