package middleware

import (
	"reading_eval_backend/internal/model"
	"reading_eval_backend/internal/util"
	"reading_eval_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware 校验身份提供方签发的 JWT，并把能力凭证写入上下文
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, secret)
		if err != nil {
			logger.Log.Debug("JWT解析错误", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		scope := claims.Capability()
		// 没有机构范围的凭证无法限定任何查询
		if !scope.Valid() {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		util.SetCapability(c, scope)
		c.Next()
	}
}

// RoleMiddleware 管理员直接放行
func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := util.GetCapabilityFromContext(c)
		if !ok {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		if scope.Role != model.Admin && !scope.HasRole(roles...) {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
