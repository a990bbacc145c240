package middlewares

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ktx/src/korail"
	"ktx/src/lib"
	"ktx/src/types"
)

// SessionAuth guards routes that need the authenticated Korail session. The
// bearer token must verify, and the process-wide session must still be live.
func SessionAuth(svc *korail.Service) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		bearerToken := ctx.Request.Header.Get("Authorization")
		if !strings.HasPrefix(bearerToken, "Bearer") {
			log.Println("[Auth] Authorization 헤더가 없습니다")
			abortExpired(ctx)
			return
		}
		parts := strings.Split(bearerToken, " ")
		if len(parts) != 2 || parts[1] == "" {
			log.Println("[Auth] 잘못된 Authorization 형식")
			abortExpired(ctx)
			return
		}
		if err := lib.VerifySessionToken(parts[1]); err != nil {
			log.Printf("[Auth] 토큰 검증 실패: %v", err)
			abortExpired(ctx)
			return
		}
		if !svc.IsSessionValid() {
			log.Println("[Auth] 세션이 만료되었습니다")
			abortExpired(ctx)
			return
		}
	}
}

func abortExpired(ctx *gin.Context) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized,
		types.NewSessionExpired("").Response())
}
