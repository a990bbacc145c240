package main

import (
	"log"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ktx/src/config"
	"ktx/src/search"
	"ktx/src/stations"
	"ktx/src/tago"
	"ktx/src/types"
)

var (
	dateParamRe = regexp.MustCompile(`^\d{8}$`)
	timeParamRe = regexp.MustCompile(`^\d{6}$`)
)

// validateSearchParams rejects malformed search input before anything
// touches an upstream.
func validateSearchParams(dep, arr, date, depTime string) *types.ServiceError {
	if dep == "" {
		return types.NewInvalidParams("출발역은 필수 입력값입니다")
	}
	if arr == "" {
		return types.NewInvalidParams("도착역은 필수 입력값입니다")
	}
	if dep == arr {
		return types.NewInvalidParams("출발역과 도착역이 같을 수 없습니다")
	}
	if !stations.Known(dep) {
		return types.NewInvalidParams("유효하지 않은 역명입니다: " + dep)
	}
	if !stations.Known(arr) {
		return types.NewInvalidParams("유효하지 않은 역명입니다: " + arr)
	}

	if !dateParamRe.MatchString(date) {
		return types.NewInvalidParams("날짜 형식이 올바르지 않습니다 (YYYYMMDD)")
	}
	searchDate, err := time.ParseInLocation(config.DATE_PARAM_FORMAT, date, config.KST)
	if err != nil {
		return types.NewInvalidParams("날짜 형식이 올바르지 않습니다 (YYYYMMDD)")
	}
	// Calendar-date compare in KST; Truncate would cut on UTC midnight.
	n := time.Now().In(config.KST)
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, config.KST)
	if searchDate.Before(today) {
		return types.NewInvalidParams("과거 날짜는 조회할 수 없습니다")
	}
	// The public schedule source only carries about a week of data.
	maxDate := today.AddDate(0, 0, config.SEARCH_WINDOW_DAYS)
	if searchDate.After(maxDate) {
		return types.NewDateRangeExceeded(
			"공공데이터 API는 " + maxDate.Format("01/02") + "까지만 조회 가능합니다")
	}

	if !timeParamRe.MatchString(depTime) {
		return types.NewInvalidParams("시간 형식이 올바르지 않습니다 (HHmmss)")
	}
	hour, _ := strconv.Atoi(depTime[:2])
	minute, _ := strconv.Atoi(depTime[2:4])
	if hour > 23 || minute > 59 {
		return types.NewInvalidParams("시간 형식이 올바르지 않습니다 (HHmmss)")
	}

	return nil
}

func trainHandlers(g *gin.RouterGroup, searcher *search.Service, tagoSvc *tago.Service) *gin.RouterGroup {
	trains := g.Group("/trains")
	trains.
		GET("/search", func(ctx *gin.Context) {
			dep := ctx.Query("dep")
			arr := ctx.Query("arr")
			date := ctx.Query("date")
			depTime := ctx.Query("time")

			if se := validateSearchParams(dep, arr, date, depTime); se != nil {
				log.Printf("[Trains] 잘못된 파라미터: %s", se.Detail)
				ctx.JSON(se.HTTPStatus(), se.Response())
				return
			}

			log.Printf("[Trains] 열차 조회 요청 - %s -> %s, %s %s", dep, arr, date, depTime)

			results, err := searcher.SearchTrains(ctx.Request.Context(), dep, arr, date, depTime)
			if err != nil {
				respondServiceError(ctx, err)
				return
			}

			log.Printf("[Trains] 조회 성공 - %d건", len(results))
			ctx.JSON(http.StatusOK, types.TrainSearchResponse{
				Trains:     results,
				SearchedAt: time.Now().In(config.KST).Format(time.RFC3339),
			})
		}).
		GET("/stations", func(ctx *gin.Context) {
			all := tagoSvc.GetAllStations()
			ctx.JSON(http.StatusOK, gin.H{"stations": all, "count": len(all)})
		})
	return trains
}
