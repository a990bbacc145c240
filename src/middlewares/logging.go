package middlewares

import (
	"bytes"
	"io"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request with a truncated body and the final
// status. Bodies on auth routes carry credentials and are never logged.
func RequestLogger(ctx *gin.Context) {
	body := "-"
	switch ctx.Request.Method {
	case "POST", "PUT", "PATCH":
		if strings.Contains(ctx.Request.URL.Path, "/auth/") {
			body = "[redacted]"
			break
		}
		raw, err := io.ReadAll(ctx.Request.Body)
		if err == nil {
			ctx.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
			if len(raw) > 500 {
				raw = raw[:500]
			}
			if len(raw) > 0 {
				body = string(raw)
			}
		}
	}
	log.Printf("[REQ] %s %s | body=%s", ctx.Request.Method, ctx.Request.URL.Path, body)

	ctx.Next()

	log.Printf("[RES] %s %s | status=%d", ctx.Request.Method, ctx.Request.URL.Path, ctx.Writer.Status())
}
