package middleware

import (
	"net/http"
	"strconv"

	"campus-hostel-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RequireSelfOrRoles allows callers whose id equals the path parameter, plus any of roles.
// A student can read their own allocation history this way while wardens read everyone's.
func RequireSelfOrRoles(param string, roles ...string) gin.HandlerFunc {
	privileged := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		privileged[r] = struct{}{}
	}
	return func(c *gin.Context) {
		userID, exists := c.Get(ContextUserID)
		if !exists {
			utils.ErrorResponse(c, http.StatusUnauthorized, "User not authenticated")
			c.Abort()
			return
		}

		if _, ok := privileged[c.GetString(ContextRole)]; ok {
			c.Next()
			return
		}

		targetID, err := strconv.ParseUint(c.Param(param), 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid user ID")
			c.Abort()
			return
		}

		if id, ok := userID.(uint); !ok || uint64(id) != targetID {
			utils.ErrorResponse(c, http.StatusForbidden, "Access denied: you can only view your own records")
			c.Abort()
			return
		}

		c.Next()
	}
}
