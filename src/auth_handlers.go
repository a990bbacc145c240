package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"ktx/src/korail"
	"ktx/src/types"
)

func authHandlers(g *gin.RouterGroup, svc *korail.Service) *gin.RouterGroup {
	auth := g.Group("/auth")
	auth.
		POST("/login", func(ctx *gin.Context) {
			var body types.LoginRequest
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("[Auth] 잘못된 로그인 요청: %v", err)
				ctx.JSON(http.StatusBadRequest,
					types.NewInvalidParams("아이디와 비밀번호는 필수 입력값입니다").Response())
				return
			}

			res, err := svc.Login(ctx.Request.Context(), body.KorailID, body.KorailPW)
			if err != nil {
				respondServiceError(ctx, err)
				return
			}

			log.Println("[Auth] 로그인 성공")
			ctx.JSON(http.StatusOK, res)
		})
	return auth
}
