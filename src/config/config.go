package config

import (
	"os"
	"time"
)

// KST is the operator's timezone. Session expiry and payment deadlines are
// computed in it.
var KST = time.FixedZone("KST", 9*60*60)

const (
	// SESSION_DURATION is how long a Korail login is trusted locally before
	// forcing a re-login, independent of any server-side lifetime.
	SESSION_DURATION = 30 * time.Minute

	// PAYMENT_DEADLINE is how long the operator holds an unpaid reservation.
	PAYMENT_DEADLINE = 10 * time.Minute

	// SEARCH_WINDOW_DAYS is how far ahead the public TAGO API serves data.
	SEARCH_WINDOW_DAYS = 7

	TIME_DISPLAY_FORMAT = "15:04"
	DATE_PARAM_FORMAT   = "20060102"
)

func GetTagoBaseURL() string {
	if v := os.Getenv("TAGO_BASE_URL"); v != "" {
		return v
	}
	return "http://apis.data.go.kr/1613000/TrainInfoService"
}

func GetTagoAPIKey() string {
	return os.Getenv("TAGO_API_KEY")
}

func GetKorailBaseURL() string {
	if v := os.Getenv("KORAIL_BASE_URL"); v != "" {
		return v
	}
	return "https://smart.letskorail.com/classes/com.korail.mobile"
}

func GetJWTSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

func GetPort() string {
	if v := os.Getenv("PORT"); v != "" {
		return v
	}
	return "8000"
}

func GetCORSOrigins() string {
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		return v
	}
	return "http://localhost:3000,http://localhost:8080,http://127.0.0.1:3000"
}
