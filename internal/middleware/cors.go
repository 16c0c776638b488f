package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsHeaders = "X-Requested-With, Content-Type"
)

type originPolicy struct {
	any     bool
	allowed map[string]bool
}

// CORS sets cross-origin headers and answers preflight requests with 204.
// allowedOrigins is "*" (or empty) for any origin, or a comma-separated list such as
// "http://localhost:3000,https://tickets.example.com". Listed origins are echoed back
// with credentials allowed so the session cookie travels.
func CORS(allowedOrigins string) gin.HandlerFunc {
	policy := parseOrigins(allowedOrigins)
	return func(c *gin.Context) {
		if origin, credentials := policy.match(c.GetHeader("Origin")); origin != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			if credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			h.Set("Access-Control-Max-Age", "86400")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func parseOrigins(s string) originPolicy {
	p := originPolicy{allowed: make(map[string]bool)}
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimSpace(o)
		switch o {
		case "":
		case "*":
			p.any = true
		default:
			p.allowed[o] = true
		}
	}
	if len(p.allowed) == 0 {
		p.any = true
	}
	return p
}

// match returns the Allow-Origin value for origin, or "" when it is not allowed.
func (p originPolicy) match(origin string) (string, bool) {
	if p.any {
		return "*", false
	}
	if origin != "" && p.allowed[origin] {
		return origin, true
	}
	return "", false
}
