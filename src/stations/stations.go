// Package stations holds the static station-name tables shared by both train
// sources. The maps are loaded once and never mutated at runtime.
package stations

import "ktx/src/types"

// codes maps a canonical Korean station name to its NAT station code.
var codes = map[string]string{
	// 서울
	"서울":  "NAT010000",
	"용산":  "NAT010032",
	"영등포": "NAT010156",
	"청량리": "NAT130126",
	"상봉":  "NAT020040",
	"수서":  "NATH30000",
	// 경기
	"광명":   "NATH10219",
	"수원":   "NAT010415",
	"행신":   "NAT110147",
	"양평":   "NAT020524",
	"동탄":   "NATH30326",
	"평택지제": "NATH30536",
	// 충남
	"천안아산": "NATH10960",
	"공주":   "NATH20438",
	// 충북
	"오송": "NAT050044",
	// 대전
	"대전": "NAT011668",
	// 경북
	"김천구미": "NATH12383",
	"서대구":  "NATH12688",
	"동대구":  "NAT013271",
	"경산":   "NAT013378",
	"신경주":  "NATH13421",
	"경주":   "NATH13421",
	"포항":   "NAT8B0351",
	// 울산
	"울산(통도사)": "NATH13717",
	// 부산
	"구포": "NAT014152",
	"물금": "NATH13900",
	"부산": "NAT014445",
	// 경남
	"밀양":   "NAT013841",
	"창원중앙": "NAT880281",
	"마산":   "NAT880345",
	// 전북
	"익산": "NAT030879",
	"정읍": "NAT031314",
	"전주": "NAT040257",
	"남원": "NAT040868",
	// 전남
	"광주송정":   "NAT031857",
	"나주":     "NAT031998",
	"목포":     "NAT032563",
	"순천":     "NAT041595",
	"여수EXPO": "NAT041993",
	// 강원
	"강릉": "NAT601936",
	"만종": "NAT021033",
	"둔내": "NATN10428",
	"평창": "NATN10625",
	"진부": "NATN10787",
}

// aliases maps well-known alternate names onto the canonical ones above.
var aliases = map[string]string{
	"울산":    "울산(통도사)",
	"여수엑스포": "여수EXPO",
	"여수":    "여수EXPO",
}

// GradeNames maps TAGO train grade codes to display names.
var GradeNames = map[string]string{
	"00": "KTX",
	"01": "새마을호",
	"02": "무궁화호",
	"03": "통근열차",
	"04": "누리로",
	"06": "공항직통",
	"07": "KTX-이음",
	"08": "SRT",
	"09": "ITX-새마을",
	"10": "ITX-청춘",
	"16": "KTX-산천",
	"17": "SRT",
}

// Canonical resolves aliases to the canonical station name. Names without an
// alias entry pass through unchanged.
func Canonical(name string) string {
	if c, ok := aliases[name]; ok {
		return c
	}
	return name
}

// Resolve maps a station name (or alias) to its NAT code.
func Resolve(name string) (string, error) {
	code, ok := codes[Canonical(name)]
	if !ok {
		return "", types.NewStationNotFound(name)
	}
	return code, nil
}

// Code is the lenient lookup: empty string when the name is unknown.
func Code(name string) string {
	return codes[Canonical(name)]
}

// Known reports whether the name resolves to a station.
func Known(name string) bool {
	_, ok := codes[Canonical(name)]
	return ok
}

// All returns a copy of the full name→code table.
func All() map[string]string {
	out := make(map[string]string, len(codes))
	for k, v := range codes {
		out[k] = v
	}
	return out
}
