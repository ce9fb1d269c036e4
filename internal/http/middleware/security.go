// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file hardens responses with browser security headers. The API serves
// JSON plus presigned asset URLs, never HTML, so there is no CSP here; the
// headers below stop sniffing, framing, and referrer leakage, and optionally
// enforce HSTS when the deployment terminates TLS end to end.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions selects which hardening headers are emitted.
//
// EnableHSTS must stay off unless every hop, proxy to app included, speaks
// HTTPS; the header is only written for requests that actually arrived over
// TLS. HSTSMaxAge defaults to 180 days when zero. NoStore marks responses
// uncacheable, which matters for the profile and library endpoints if a
// shared cache ever sits in front. EnablePolicy adds the browser feature
// policies; non-browser clients ignore them.
type SecurityOptions struct {
	EnableHSTS   bool
	HSTSMaxAge   time.Duration
	NoStore      bool
	EnablePolicy bool
}

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityHeaders returns middleware that writes the configured security
// headers on every response. When an earlier middleware set X-Request-ID,
// it is appended to Access-Control-Expose-Headers so browser clients can
// read it for support requests.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hstsValue := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		// Never advertise HSTS on plain-HTTP traffic.
		if opt.EnableHSTS && requestIsTLS(c.Request) {
			h.Set("Strict-Transport-Security", hstsValue)
		}

		if rid := h.Get("X-Request-ID"); rid != "" {
			exposeHeader(h, "X-Request-ID")
		}

		c.Next()
	}
}

// exposeHeader appends name to Access-Control-Expose-Headers without
// clobbering or duplicating entries set by earlier middleware.
func exposeHeader(h http.Header, name string) {
	const key = "Access-Control-Expose-Headers"
	cur := h.Get(key)
	switch {
	case cur == "":
		h.Set(key, name)
	case !strings.Contains(cur, name):
		h.Set(key, cur+", "+name)
	}
}

// requestIsTLS reports whether the request arrived over HTTPS, either
// directly or via a proxy that set X-Forwarded-Proto.
func requestIsTLS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
