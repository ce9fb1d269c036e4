package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderUserID is the request header carrying the caller identity in
// single-tenant/demo deployments where no auth gateway runs in front.
const HeaderUserID = "X-User-ID"

// defaultUserID is assumed when no identity is supplied at all.
const defaultUserID = "demo-user"

// Identity resolves the caller's user ID and stores it under the "userID"
// context key so logging, idempotency, and handlers agree on the identity.
//
// Resolution order: an already-set context value (e.g. from an auth gateway
// middleware registered earlier) wins, then the X-User-ID header, then the
// demo fallback.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v, ok := c.Get("userID"); ok {
			if s, ok := v.(string); ok && s != "" {
				c.Next()
				return
			}
		}
		uid := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if uid == "" {
			uid = defaultUserID
		}
		c.Set("userID", uid)
		c.Next()
	}
}
