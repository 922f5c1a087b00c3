package middleware

import (
	"crypto/subtle"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/care-assist/pkg/api"
)

// CallerKey is the gin context key holding which configured API key matched.
// The key itself is never stored.
const CallerKey = "caller"

// Auth checks for a valid Bearer token in the Authorization header.
// With no keys configured every request is let through.
func Auth(staticKeys []string) gin.HandlerFunc {
	keys := make([][]byte, 0, len(staticKeys))
	for _, k := range staticKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(c *gin.Context) {
		if len(keys) == 0 {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, api.UnauthorizedError("Missing Authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, api.UnauthorizedError("Invalid Authorization header format"))
			return
		}

		token := []byte(parts[1])
		for i, k := range keys {
			if subtle.ConstantTimeCompare(token, k) == 1 {
				c.Set(CallerKey, "key:"+strconv.Itoa(i))
				c.Next()
				return
			}
		}
		abort(c, api.UnauthorizedError("Invalid API key"))
	}
}

func abort(c *gin.Context, p *api.Problem) {
	c.AbortWithStatusJSON(p.Status, p)
}
