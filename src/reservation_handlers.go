package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"ktx/src/korail"
	"ktx/src/middlewares"
	"ktx/src/types"
)

func reservationHandlers(g *gin.RouterGroup, svc *korail.Service) *gin.RouterGroup {
	rsv := g.Group("/reservation")
	rsv.Use(middlewares.SessionAuth(svc))
	rsv.
		POST("", func(ctx *gin.Context) {
			var body types.ReservationRequest
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("[Reservation] 잘못된 예약 요청: %v", err)
				ctx.JSON(http.StatusBadRequest,
					types.NewInvalidParams("예약 요청 형식이 올바르지 않습니다").Response())
				return
			}
			if body.SeatType == "" {
				body.SeatType = types.SEAT_GENERAL
			}
			if body.Time == "" {
				body.Time = "000000"
			}

			log.Printf("[Reservation] 예약 요청 - 열차: %s, 좌석: %s", body.TrainNo, body.SeatType)

			res, err := svc.Reserve(ctx.Request.Context(), body.TrainNo, body.SeatType,
				body.DepStation, body.ArrStation, body.Date, body.Time)
			if err != nil {
				respondServiceError(ctx, err)
				return
			}

			log.Printf("[Reservation] 예약 성공 - 예약번호: %s", res.ReservationID)
			ctx.JSON(http.StatusOK, res)
		}).
		GET("", func(ctx *gin.Context) {
			reservations, err := svc.ListReservations(ctx.Request.Context())
			if err != nil {
				respondServiceError(ctx, err)
				return
			}
			log.Printf("[Reservation] 예약 목록 조회 성공 - %d건", len(reservations))
			ctx.JSON(http.StatusOK, types.ReservationListResponse{
				Reservations: reservations,
				Count:        len(reservations),
			})
		}).
		GET("/:id", func(ctx *gin.Context) {
			id := ctx.Param("id")
			detail, err := svc.GetReservation(ctx.Request.Context(), id)
			if err != nil {
				respondServiceError(ctx, err)
				return
			}
			log.Println("[Reservation] 예약 조회 성공")
			ctx.JSON(http.StatusOK, detail)
		}).
		DELETE("/:id", func(ctx *gin.Context) {
			id := ctx.Param("id")
			log.Printf("[Reservation] 예약 취소 요청 - ID: %s", id)
			res, err := svc.CancelReservation(ctx.Request.Context(), id)
			if err != nil {
				respondServiceError(ctx, err)
				return
			}
			log.Printf("[Reservation] 예약 취소 성공 - ID: %s", id)
			ctx.JSON(http.StatusOK, res)
		})
	return rsv
}
