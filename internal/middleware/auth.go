package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-chat/internal/service/auth"
	"github.com/ashwinyue/next-chat/internal/service/types"
)

// 身份令牌的 cookie 名称
const AuthCookie = "auth_token"

// identityKey 上下文中的身份键
const identityKey = "identity"

// OptionalAuth 可选认证中间件
// 有有效令牌则把身份放进上下文，没有也放行（匿名会话）
func OptionalAuth(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if identity, err := authSvc.ValidateToken(c.Request.Context(), token); err == nil {
				c.Set(identityKey, identity)
			}
			// 令牌无效按匿名处理，不在这里拒绝
		}
		c.Next()
	}
}

// RequireAuth 要求有效认证的中间件
// 没有有效令牌直接返回 401
func RequireAuth(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "Unauthorized"})
			return
		}

		identity, err := authSvc.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// GetIdentity 从上下文获取当前身份
func GetIdentity(c *gin.Context) (*types.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	identity, ok := v.(*types.Identity)
	return identity, ok
}

// extractToken 依次尝试 auth_token cookie 和 Authorization Bearer
func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AuthCookie); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
