package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"ktx/src/boot"
	"ktx/src/config"
	"ktx/src/korail"
	"ktx/src/lib"
	"ktx/src/lib/railkit"
	"ktx/src/middlewares"
	"ktx/src/search"
	"ktx/src/tago"
	"ktx/src/types"
)

const apiPrefix string = "/api/v1"

var bodyDateRe = regexp.MustCompile(`^\d{8}$`)

// traindate: YYYYMMDD and a real calendar date.
var trainDateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok || !bodyDateRe.MatchString(date) {
		return false
	}
	_, err := time.ParseInLocation(config.DATE_PARAM_FORMAT, date, config.KST)
	return err == nil
}

// traintime: HHmmss within the clock range.
var trainTimeValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(string)
	if !ok || len(t) != 6 {
		return false
	}
	hour, err := strconv.Atoi(t[:2])
	if err != nil {
		return false
	}
	minute, err := strconv.Atoi(t[2:4])
	if err != nil {
		return false
	}
	if _, err := strconv.Atoi(t[4:]); err != nil {
		return false
	}
	return hour <= 23 && minute <= 59
}

// respondServiceError renders any failure as the stable error envelope.
// Unknown errors never leak raw detail to the caller.
func respondServiceError(ctx *gin.Context, err error) {
	se := types.AsServiceError(err)
	if se.Kind == types.ERR_INTERNAL {
		log.Printf("[API] 알 수 없는 오류: %v", err)
	}
	ctx.JSON(se.HTTPStatus(), se.Response())
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.RequestLogger)
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "service": "KTX Auto Reservation API"})
	})
	return router
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	}))
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			log.Printf("no .env file loaded: %v", err)
		}
	}
	initLogger()

	// One authenticated identity per process: these are the singletons.
	railClient := railkit.New(config.GetKorailBaseURL(), &http.Client{Timeout: 15 * time.Second})
	korailSvc := korail.New(railClient)
	tagoSvc := tago.New(config.GetTagoBaseURL(), config.GetTagoAPIKey(), &http.Client{Timeout: 10 * time.Second})
	searchSvc := search.New(korailSvc, tagoSvc)

	boot.InitScheduler(korailSvc)

	router := setupRouter()

	if apiEnv == "local" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		origins := strings.Split(config.GetCORSOrigins(), ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cc.AllowOrigins = origins
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
		cc.AllowCredentials = true
		router.Use(cors.New(cc))
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("traindate", trainDateValidatorFunc)
		v.RegisterValidation("traintime", trainTimeValidatorFunc)
	}

	apiv1 := router.Group(apiPrefix)
	authHandlers(apiv1, korailSvc)
	trainHandlers(apiv1, searchSvc, tagoSvc)
	reservationHandlers(apiv1, korailSvc)

	log.Println("라우터 등록 완료: /api/v1/auth, /api/v1/trains, /api/v1/reservation")

	srv := &http.Server{
		Addr:    ":" + config.GetPort(),
		Handler: router,
	}
	go func() {
		log.Printf("서버 시작: %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %s", err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("서버 종료 중...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %s", err.Error())
	}
	tagoSvc.Close()
	lib.StopScheduler()
	log.Println("KTX Auto Reservation API 서버 종료")
}
