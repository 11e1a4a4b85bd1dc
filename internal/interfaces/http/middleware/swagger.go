package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// SwaggerProtection guards the API docs: 404 when disabled, 403 outside the
// allowed IPs or CIDRs, and the given auth chain when RequireAuth is set
func SwaggerProtection(cfg config.SwaggerConfig, auth ...gin.HandlerFunc) gin.HandlerFunc {
	var prefixes []netip.Prefix
	for _, entry := range cfg.AllowedIPs {
		if strings.Contains(entry, "/") {
			if p, err := netip.ParsePrefix(entry); err == nil {
				prefixes = append(prefixes, p.Masked())
			}
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeNotFound, "API documentation is not available", GetRequestID(c)))
			return
		}

		if len(cfg.AllowedIPs) > 0 && !ipAllowed(c.ClientIP(), prefixes) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Access to API documentation is restricted", GetRequestID(c)))
			return
		}

		if cfg.RequireAuth {
			for _, h := range auth {
				h(c)
				if c.IsAborted() {
					return
				}
			}
		}
		c.Next()
	}
}

func ipAllowed(clientIP string, prefixes []netip.Prefix) bool {
	addr, err := netip.ParseAddr(clientIP)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
