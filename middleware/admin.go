package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bloomwell/bloom/config"
	"github.com/bloomwell/bloom/utils"
)

// AdminRequired restricts a route to usernames listed in AdminUsernames.
// Must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	admins := map[string]bool{}
	for _, name := range config.Get().AdminUsernames {
		admins[name] = true
	}

	return func(ctx *gin.Context) {
		username, _ := ctx.Get(ContextUsernameKey)
		name, ok := username.(string)
		if !ok || !admins[name] {
			utils.Error(ctx, http.StatusForbidden, 40301, "admin access required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
