// Package tago is the stateless client for the public TAGO TrainInfoService
// API. It resolves station names, queries the schedule endpoint, and parses
// the response envelope. It knows nothing about sessions or reservations, and
// it never reports seat availability: the upstream does not carry it.
package tago

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"ktx/src/stations"
	"ktx/src/types"
)

const searchPath = "/getStrtpntAlocFndTrainInfo"

type Service struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New builds the service around a long-lived HTTP client. The same client is
// reused for every request and released once via Close at shutdown.
func New(baseURL, apiKey string, client *http.Client) *Service {
	if apiKey == "" {
		log.Println("[TaGoService] TAGO_API_KEY가 설정되지 않았습니다")
	}
	return &Service{baseURL: baseURL, apiKey: apiKey, client: client}
}

// ResolveStation maps a station name (or known alias) to its NAT code.
func (s *Service) ResolveStation(name string) (string, error) {
	return stations.Resolve(name)
}

// GetStationCode is the lenient lookup: empty string when unknown.
func (s *Service) GetStationCode(name string) string {
	return stations.Code(name)
}

// GetAllStations returns the full name to code table.
func (s *Service) GetAllStations() map[string]string {
	return stations.All()
}

// SearchTrains queries the schedule endpoint for one route and date.
// depTime ("HHmmss") filters out trains departing earlier; empty means no
// filter. gradeCode restricts the train category; empty means all.
func (s *Service) SearchTrains(ctx context.Context, dep, arr, date, depTime, gradeCode string) ([]types.TrainInfo, error) {
	depCode, err := stations.Resolve(dep)
	if err != nil {
		return nil, err
	}
	arrCode, err := stations.Resolve(arr)
	if err != nil {
		return nil, err
	}

	log.Printf("[TaGoService] 열차 조회 - %s(%s) -> %s(%s), %s", dep, depCode, arr, arrCode, date)

	q := url.Values{}
	q.Set("serviceKey", s.apiKey)
	q.Set("depPlaceId", depCode)
	q.Set("arrPlaceId", arrCode)
	q.Set("depPlandTime", date)
	q.Set("numOfRows", "100")
	q.Set("pageNo", "1")
	q.Set("_type", "json")
	if gradeCode != "" {
		q.Set("trainGradeCode", gradeCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+searchPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, types.NewUpstreamUnavailable("공공데이터 API 요청을 구성할 수 없습니다", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[TaGoService] 요청 오류: %v", err)
		return nil, types.NewUpstreamUnavailable("공공데이터 API에 연결할 수 없습니다", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[TaGoService] HTTP 오류: %d", resp.StatusCode)
		return nil, types.NewUpstreamUnavailable(fmt.Sprintf("API HTTP 오류: %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewUpstreamUnavailable("API 응답을 읽을 수 없습니다", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, types.NewUpstreamUnavailable("API 응답 파싱 실패", nil)
	}

	doc := gjson.ParseBytes(body)

	header := doc.Get("response.header")
	if code := header.Get("resultCode").String(); code != "00" {
		msg := header.Get("resultMsg").String()
		log.Printf("[TaGoService] API 에러 - code=%s, msg=%s", code, msg)
		return nil, types.NewUpstreamUnavailable(fmt.Sprintf("TAGO API 오류: [%s] %s", code, msg), nil)
	}

	bodyNode := doc.Get("response.body")
	if bodyNode.Get("totalCount").Int() == 0 {
		return nil, types.NewNoTrains("")
	}

	itemNode := bodyNode.Get("items.item")
	if !itemNode.Exists() {
		return nil, types.NewNoTrains("")
	}

	// A single result comes back as a bare object rather than an array.
	items := itemNode.Array()
	if itemNode.IsObject() {
		items = []gjson.Result{itemNode}
	}

	var trains []types.TrainInfo
	for _, item := range items {
		train, err := parseTrainItem(item)
		if err != nil {
			log.Printf("[TaGoService] 열차 정보 파싱 오류 (건너뜀): %v", err)
			continue
		}

		// Lexicographic compare works because both sides are fixed-width
		// zero-padded HHmm strings.
		if depTime != "" && len(depTime) >= 4 {
			depPland := item.Get("depplandtime").String()
			if len(depPland) >= 12 && depPland[8:12] < depTime[:4] {
				continue
			}
		}

		trains = append(trains, train)
	}

	if len(trains) == 0 {
		return nil, types.NewNoTrains("")
	}

	log.Printf("[TaGoService] 조회 완료 - %d건", len(trains))
	return trains, nil
}

// parseTrainItem converts one envelope item into a TrainInfo. Items without a
// full 14-digit schedule timestamp or a train number are rejected; callers
// skip them instead of failing the whole search.
func parseTrainItem(item gjson.Result) (types.TrainInfo, error) {
	depPland := item.Get("depplandtime").String()
	arrPland := item.Get("arrplandtime").String()
	if len(depPland) < 12 || len(arrPland) < 12 {
		return types.TrainInfo{}, fmt.Errorf("malformed schedule time: dep=%q arr=%q", depPland, arrPland)
	}

	trainNo := item.Get("trainno").String()
	if trainNo == "" {
		return types.TrainInfo{}, fmt.Errorf("missing trainno")
	}

	train := types.TrainInfo{
		TrainNo:    trainNo,
		TrainType:  item.Get("traingradename").String(),
		DepStation: item.Get("depplacename").String(),
		ArrStation: item.Get("arrplacename").String(),
		DepTime:    depPland[8:10] + ":" + depPland[10:12],
		ArrTime:    arrPland[8:10] + ":" + arrPland[10:12],
		// Seat flags stay nil: TAGO does not report availability.
	}

	if charge := item.Get("adultcharge"); charge.Exists() {
		if v, err := strconv.Atoi(strings.TrimSpace(charge.String())); err == nil {
			train.AdultCharge = &v
		}
	}

	return train, nil
}

// Close releases the shared HTTP client's idle connections. Call exactly once
// at process shutdown.
func (s *Service) Close() {
	s.client.CloseIdleConnections()
}
