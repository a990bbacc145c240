package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"

	"ktx/src/config"
	"ktx/src/korail"
	"ktx/src/search"
	"ktx/src/tago"
)

// stubRail is the scriptable RailClient backing the API tests.
type stubRail struct {
	loginResult *korail.LoginResult
	loginErr    error

	trains    []korail.RailTrain
	searchErr error

	reserveResult *korail.RailReservation
	reserveErr    error

	rsvs      []korail.RailReservation
	rsvsErr   error
	cancelErr error
}

func (s *stubRail) Login(ctx context.Context, id, pw string) (*korail.LoginResult, error) {
	return s.loginResult, s.loginErr
}

func (s *stubRail) SearchTrain(ctx context.Context, dep, arr, date, time string) ([]korail.RailTrain, error) {
	return s.trains, s.searchErr
}

func (s *stubRail) SearchTrainAllDay(ctx context.Context, dep, arr, date, time string) ([]korail.RailTrain, error) {
	return s.trains, s.searchErr
}

func (s *stubRail) Reserve(ctx context.Context, train korail.RailTrain, option korail.ReserveOption) (*korail.RailReservation, error) {
	return s.reserveResult, s.reserveErr
}

func (s *stubRail) Reservations(ctx context.Context) ([]korail.RailReservation, error) {
	return s.rsvs, s.rsvsErr
}

func (s *stubRail) Cancel(ctx context.Context, rsv korail.RailReservation) error {
	if s.cancelErr != nil {
		return s.cancelErr
	}
	kept := s.rsvs[:0]
	for _, r := range s.rsvs {
		if r.RsvID != rsv.RsvID {
			kept = append(kept, r)
		}
	}
	s.rsvs = kept
	return nil
}

type TestSuite struct {
	suite.Suite
	rail      *stubRail
	korailSvc *korail.Service
	router    *gin.Engine
	tagoSrv   *httptest.Server
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "api-test-secret")
	os.Exit(m.Run())
}

func (s *TestSuite) SetupSuite() {
	s.tagoSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"response":{"header":{"resultCode":"00","resultMsg":"NORMAL SERVICE."},
			"body":{"totalCount":1,"items":{"item":
				{"trainno":"101","traingradename":"KTX","depplacename":"서울","arrplacename":"부산",
				 "depplandtime":"20991231093000","arrplandtime":"20991231120200","adultcharge":59800}}}}}`)
	}))

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("traindate", trainDateValidatorFunc)
		v.RegisterValidation("traintime", trainTimeValidatorFunc)
	}
}

func (s *TestSuite) TearDownSuite() {
	s.tagoSrv.Close()
}

func (s *TestSuite) SetupTest() {
	s.rail = &stubRail{
		loginResult: &korail.LoginResult{Authenticated: true, MemberName: "홍길동"},
	}
	s.korailSvc = korail.New(s.rail)
	tagoSvc := tago.New(s.tagoSrv.URL, "test-key", s.tagoSrv.Client())
	searchSvc := search.New(s.korailSvc, tagoSvc)

	s.router = setupRouter()
	apiv1 := s.router.Group(apiPrefix)
	authHandlers(apiv1, s.korailSvc)
	trainHandlers(apiv1, searchSvc, tagoSvc)
	reservationHandlers(apiv1, s.korailSvc)
}

func (s *TestSuite) perform(method, path, body, token string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *TestSuite) login() string {
	w := s.perform(http.MethodPost, "/api/v1/auth/login",
		`{"korail_id":"user123","korail_pw":"secret"}`, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	token := gjson.Get(w.Body.String(), "session_token").String()
	s.Require().NotEmpty(token)
	return token
}

func tomorrow() string {
	return time.Now().In(config.KST).AddDate(0, 0, 1).Format(config.DATE_PARAM_FORMAT)
}

func searchPath(dep, arr, date, depTime string) string {
	return fmt.Sprintf("/api/v1/trains/search?dep=%s&arr=%s&date=%s&time=%s", dep, arr, date, depTime)
}

func (s *TestSuite) TestHealth() {
	w := s.perform(http.MethodGet, "/health", "", "")
	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), "ok", gjson.Get(w.Body.String(), "status").String())
}

func (s *TestSuite) TestStations() {
	w := s.perform(http.MethodGet, "/api/v1/trains/stations", "", "")
	assert.Equal(s.T(), http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Greater(s.T(), gjson.Get(body, "count").Int(), int64(30))
	assert.Equal(s.T(), "NAT010000", gjson.Get(body, "stations.서울").String())
}

func (s *TestSuite) TestSearchValidation() {
	cases := []struct {
		name string
		path string
		code string
	}{
		{"missing dep", searchPath("", "부산", tomorrow(), "000000"), "SEARCH_001"},
		{"missing arr", searchPath("서울", "", tomorrow(), "000000"), "SEARCH_001"},
		{"same stations", searchPath("서울", "서울", tomorrow(), "000000"), "SEARCH_001"},
		{"unknown station", searchPath("평양", "부산", tomorrow(), "000000"), "SEARCH_001"},
		{"bad date", searchPath("서울", "부산", "2026-09-02", "000000"), "SEARCH_001"},
		{"past date", searchPath("서울", "부산", "20200101", "000000"), "SEARCH_001"},
		{"bad time", searchPath("서울", "부산", tomorrow(), "990000"), "SEARCH_001"},
		{"short time", searchPath("서울", "부산", tomorrow(), "0900"), "SEARCH_001"},
	}
	for _, tc := range cases {
		w := s.perform(http.MethodGet, tc.path, "", "")
		assert.Equal(s.T(), http.StatusBadRequest, w.Code, tc.name)
		assert.Equal(s.T(), tc.code, gjson.Get(w.Body.String(), "code").String(), tc.name)
	}
}

func (s *TestSuite) TestSearchBeyondWindow() {
	far := time.Now().In(config.KST).AddDate(0, 0, config.SEARCH_WINDOW_DAYS+3).
		Format(config.DATE_PARAM_FORMAT)
	w := s.perform(http.MethodGet, searchPath("서울", "부산", far, "000000"), "", "")
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Equal(s.T(), "SEARCH_004", gjson.Get(w.Body.String(), "code").String())
}

func (s *TestSuite) TestSearchWithoutSessionUsesPublicSchedule() {
	w := s.perform(http.MethodGet, searchPath("서울", "부산", tomorrow(), "000000"), "", "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	body := w.Body.String()
	s.Require().Equal(int64(1), gjson.Get(body, "trains.#").Int())
	first := gjson.Get(body, "trains.0")
	assert.Equal(s.T(), "101", first.Get("train_no").String())
	assert.Equal(s.T(), gjson.Null, first.Get("general_seats").Type, "public source carries no seat data")
	assert.Equal(s.T(), int64(59800), first.Get("adult_charge").Int())
	assert.NotEmpty(s.T(), gjson.Get(body, "searched_at").String())
}

func (s *TestSuite) TestSearchWithSessionUsesKorail() {
	s.rail.trains = []korail.RailTrain{{
		TrainNo: "0101", TrainTypeName: "KTX",
		DepStationName: "서울", ArrStationName: "부산",
		DepTime: "093000", ArrTime: "120200",
		GeneralSeatAvailable: true,
	}}
	s.login()

	w := s.perform(http.MethodGet, searchPath("서울", "부산", tomorrow(), "000000"), "", "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	first := gjson.Get(w.Body.String(), "trains.0")
	assert.True(s.T(), first.Get("general_seats").Bool(), "authenticated source reports live seats")
	assert.Equal(s.T(), gjson.False, first.Get("special_seats").Type)
}

func (s *TestSuite) TestLoginSuccess() {
	w := s.perform(http.MethodPost, "/api/v1/auth/login",
		`{"korail_id":"user123","korail_pw":"secret"}`, "")
	s.Require().Equal(http.StatusOK, w.Code)

	body := w.Body.String()
	assert.NotEmpty(s.T(), gjson.Get(body, "session_token").String())
	assert.Equal(s.T(), "홍길동", gjson.Get(body, "name").String())
	assert.NotEmpty(s.T(), gjson.Get(body, "expires_at").String())
}

func (s *TestSuite) TestLoginMissingFields() {
	w := s.perform(http.MethodPost, "/api/v1/auth/login", `{"korail_id":"user123"}`, "")
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Equal(s.T(), "SEARCH_001", gjson.Get(w.Body.String(), "code").String())
}

func (s *TestSuite) TestLoginFailure() {
	s.rail.loginResult = &korail.LoginResult{Authenticated: false}
	w := s.perform(http.MethodPost, "/api/v1/auth/login",
		`{"korail_id":"user123","korail_pw":"bad"}`, "")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.Equal(s.T(), "AUTH_001", gjson.Get(w.Body.String(), "code").String())
}

func (s *TestSuite) TestLoginBlockedAccount() {
	s.rail.loginResult = nil
	s.rail.loginErr = errors.New("5회 오류로 계정이 차단되었습니다")
	w := s.perform(http.MethodPost, "/api/v1/auth/login",
		`{"korail_id":"user123","korail_pw":"bad"}`, "")
	assert.Equal(s.T(), http.StatusForbidden, w.Code)
	assert.Equal(s.T(), "AUTH_002", gjson.Get(w.Body.String(), "code").String())
}

func (s *TestSuite) TestReservationRequiresToken() {
	w := s.perform(http.MethodPost, "/api/v1/reservation",
		fmt.Sprintf(`{"train_no":"101","dep_station":"서울","arr_station":"부산","date":"%s"}`, tomorrow()), "")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.Equal(s.T(), "AUTH_003", gjson.Get(w.Body.String(), "code").String())
}

func (s *TestSuite) TestReservationRejectsGarbageToken() {
	w := s.perform(http.MethodGet, "/api/v1/reservation", "", "not-a-jwt")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *TestSuite) TestReservationBadDateBinding() {
	token := s.login()
	w := s.perform(http.MethodPost, "/api/v1/reservation",
		`{"train_no":"101","dep_station":"서울","arr_station":"부산","date":"2026-09-02"}`, token)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *TestSuite) TestReserveAndCancelFlow() {
	s.rail.trains = []korail.RailTrain{{
		TrainNo: "0101", TrainTypeName: "KTX",
		DepStationName: "서울", ArrStationName: "부산",
		DepTime: "093000", ArrTime: "120200",
	}}
	s.rail.reserveResult = &korail.RailReservation{RsvID: "R555"}
	token := s.login()

	w := s.perform(http.MethodPost, "/api/v1/reservation",
		fmt.Sprintf(`{"train_no":"101","seat_type":"general","dep_station":"서울","arr_station":"부산","date":"%s","time":"093000"}`, tomorrow()), token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	body := w.Body.String()
	assert.Equal(s.T(), "R555", gjson.Get(body, "reservation_id").String())
	assert.Equal(s.T(), "success", gjson.Get(body, "status").String())
	assert.Contains(s.T(), gjson.Get(body, "message").String(), "10분")

	// cached entry shows up in the detail lookup with its payment deadline
	w = s.perform(http.MethodGet, "/api/v1/reservation/R555", "", token)
	s.Require().Equal(http.StatusOK, w.Code)
	assert.NotEmpty(s.T(), gjson.Get(w.Body.String(), "payment_deadline").String())

	// the upstream now reports it as live, so the list carries it too
	s.rail.rsvs = []korail.RailReservation{{RsvID: "R555", TrainNo: "0101"}}
	w = s.perform(http.MethodGet, "/api/v1/reservation", "", token)
	s.Require().Equal(http.StatusOK, w.Code)
	assert.Equal(s.T(), int64(1), gjson.Get(w.Body.String(), "count").Int())

	w = s.perform(http.MethodDelete, "/api/v1/reservation/R555", "", token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	assert.Equal(s.T(), "cancelled", gjson.Get(w.Body.String(), "status").String())

	w = s.perform(http.MethodGet, "/api/v1/reservation/R555", "", token)
	assert.Equal(s.T(), http.StatusNotFound, w.Code)
	assert.Equal(s.T(), "RESERVE_003", gjson.Get(w.Body.String(), "code").String())
}

func (s *TestSuite) TestReserveSoldOut() {
	s.rail.trains = []korail.RailTrain{{TrainNo: "0101", DepTime: "093000"}}
	s.rail.reserveErr = errors.New("선택하신 열차는 매진입니다")
	token := s.login()

	w := s.perform(http.MethodPost, "/api/v1/reservation",
		fmt.Sprintf(`{"train_no":"101","dep_station":"서울","arr_station":"부산","date":"%s"}`, tomorrow()), token)
	assert.Equal(s.T(), http.StatusConflict, w.Code)
	assert.Equal(s.T(), "RESERVE_001", gjson.Get(w.Body.String(), "code").String())
}

func (s *TestSuite) TestCancelUnknownReservation() {
	token := s.login()
	w := s.perform(http.MethodDelete, "/api/v1/reservation/R404", "", token)
	assert.Equal(s.T(), http.StatusNotFound, w.Code)
	assert.Equal(s.T(), "RESERVE_003", gjson.Get(w.Body.String(), "code").String())
}

func TestValidateSearchParamsAcceptsToday(t *testing.T) {
	// the search day runs on the KST calendar, not on UTC midnight
	today := time.Now().In(config.KST).Format(config.DATE_PARAM_FORMAT)
	se := validateSearchParams("서울", "부산", today, "090000")
	assert.Nil(t, se, "same-day search must be valid at any KST wall-clock time")
}

func TestValidateSearchParamsWindowBounds(t *testing.T) {
	now := time.Now().In(config.KST)

	edge := now.AddDate(0, 0, config.SEARCH_WINDOW_DAYS).Format(config.DATE_PARAM_FORMAT)
	assert.Nil(t, validateSearchParams("서울", "부산", edge, "000000"),
		"last day of the window is searchable")

	beyond := now.AddDate(0, 0, config.SEARCH_WINDOW_DAYS+1).Format(config.DATE_PARAM_FORMAT)
	se := validateSearchParams("서울", "부산", beyond, "000000")
	if assert.NotNil(t, se) {
		assert.Equal(t, "SEARCH_004", se.Code)
	}

	yesterday := now.AddDate(0, 0, -1).Format(config.DATE_PARAM_FORMAT)
	se = validateSearchParams("서울", "부산", yesterday, "000000")
	if assert.NotNil(t, se) {
		assert.Equal(t, "SEARCH_001", se.Code)
	}
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
