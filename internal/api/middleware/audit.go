package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	ContextIPAddress = "ip_address"
	ContextUserAgent = "user_agent"
)

// AuditMiddleware records the caller's address and user agent and, once the
// handler chain returns, writes one audit entry for every state-changing
// request.
func AuditMiddleware(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// X-Forwarded-For first, for proxies
		ipAddress := c.GetHeader("X-Forwarded-For")
		if ipAddress == "" {
			ipAddress = c.GetHeader("X-Real-IP")
		}
		if ipAddress == "" {
			ipAddress = c.ClientIP()
		}
		if idx := strings.Index(ipAddress, ","); idx != -1 {
			ipAddress = strings.TrimSpace(ipAddress[:idx])
		}

		c.Set(ContextIPAddress, ipAddress)
		c.Set(ContextUserAgent, c.GetHeader("User-Agent"))

		c.Next()

		if !mutating(c.Request.Method) {
			return
		}
		userID, _ := GetUserID(c)
		log.WithFields(logrus.Fields{
			"audit":      true,
			"method":     c.Request.Method,
			"route":      c.FullPath(),
			"status":     c.Writer.Status(),
			"user_id":    userID,
			"ip_address": ipAddress,
			"user_agent": GetUserAgent(c),
		}).Info("audit")
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func GetIPAddress(c *gin.Context) string {
	val, exists := c.Get(ContextIPAddress)
	if !exists {
		return ""
	}
	if ip, ok := val.(string); ok {
		return ip
	}
	return ""
}

func GetUserAgent(c *gin.Context) string {
	val, exists := c.Get(ContextUserAgent)
	if !exists {
		return ""
	}
	if ua, ok := val.(string); ok {
		return ua
	}
	return ""
}
