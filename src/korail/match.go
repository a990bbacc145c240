package korail

import (
	"fmt"
	"log"
	"strings"

	"ktx/src/types"
)

// normalizeTrainNo trims whitespace and strips leading zeros so "0101" and
// "101" compare equal. Stripping is idempotent.
func normalizeTrainNo(no string) string {
	return strings.TrimLeft(strings.TrimSpace(no), "0")
}

// normalizeHHMM reduces a time string (HHmmss, HH:mm:ss, HH:mm) to its
// 4-digit hour-minute form. Returns "" when there aren't enough digits.
func normalizeHHMM(t string) string {
	clean := strings.ReplaceAll(strings.TrimSpace(t), ":", "")
	if len(clean) < 4 {
		return ""
	}
	return clean[:4]
}

// matchTrain reconciles a caller-supplied train number against the
// authenticated source's own records. The two sources number the same
// physical train differently, so matching is two-stage:
//
//  1. normalized train number, first exact match wins;
//  2. if a real departure time was requested, first train departing at the
//     same hour-minute.
//
// The first hit stops the scan in both stages. A miss returns NoTrains
// carrying every candidate that was seen.
func matchTrain(trains []RailTrain, trainNo, depTime string) (*RailTrain, error) {
	want := normalizeTrainNo(trainNo)

	found := make([]string, 0, len(trains))
	for i := range trains {
		t := &trains[i]
		found = append(found, fmt.Sprintf("%s(%s)", t.TrainNo, t.DepTime))
		if normalizeTrainNo(t.TrainNo) == want {
			return t, nil
		}
	}

	if depTime != "" && depTime != "000000" {
		wantHHMM := normalizeHHMM(depTime)
		for i := range trains {
			t := &trains[i]
			if wantHHMM != "" && normalizeHHMM(t.DepTime) == wantHHMM {
				log.Printf("[KorailService] train_no 매칭 실패, dep_time 폴백 매칭 성공 - "+
					"요청 train_no: '%s', 매칭된 train_no: '%s', dep_time: %s",
					trainNo, t.TrainNo, t.DepTime)
				return t, nil
			}
		}
	}

	foundDesc := "없음"
	if len(found) > 0 {
		foundDesc = strings.Join(found, ", ")
	}
	log.Printf("[KorailService] 열차 매칭 실패 - 요청 train_no: '%s' (normalized: '%s'), "+
		"요청 time: '%s', 검색된 열차: [%s]", trainNo, want, depTime, foundDesc)

	return nil, types.NewNoTrains(fmt.Sprintf(
		"열차 %s을 찾을 수 없습니다. 검색된 열차: %s", trainNo, foundDesc))
}
