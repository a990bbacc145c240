// Package search decides which train source answers a search: the
// authenticated Korail session when one is live, the public TAGO schedule
// otherwise.
package search

import (
	"context"
	"errors"
	"log"

	"ktx/src/types"
)

// Authenticated is the session-backed source. Its results carry live seat
// availability.
type Authenticated interface {
	IsSessionValid() bool
	SearchTrains(ctx context.Context, dep, arr, date, depTime string) ([]types.TrainInfo, error)
}

// Schedule is the public, stateless source. No seat data, optional fares.
type Schedule interface {
	SearchTrains(ctx context.Context, dep, arr, date, depTime, gradeCode string) ([]types.TrainInfo, error)
}

type Service struct {
	korail Authenticated
	tago   Schedule
}

func New(korail Authenticated, tago Schedule) *Service {
	return &Service{korail: korail, tago: tago}
}

// SearchTrains applies the fallback policy. With a live session the
// authenticated source goes first; a confirmed NoTrains from it is
// authoritative and propagates. Session or upstream failures are logged and
// degrade to the public schedule instead.
func (s *Service) SearchTrains(ctx context.Context, dep, arr, date, depTime string) ([]types.TrainInfo, error) {
	if s.korail != nil && s.korail.IsSessionValid() {
		trains, err := s.korail.SearchTrains(ctx, dep, arr, date, depTime)
		if err == nil {
			log.Printf("[Search] 코레일 조회 성공 - %d건", len(trains))
			return trains, nil
		}
		if errors.Is(err, types.NewNoTrains("")) {
			return nil, err
		}
		log.Printf("[Search] 코레일 조회 실패, 공공데이터로 폴백: %v", err)
	}

	trains, err := s.tago.SearchTrains(ctx, dep, arr, date, depTime, "")
	if err != nil {
		return nil, err
	}
	log.Printf("[Search] 공공데이터 조회 성공 - %d건", len(trains))
	return trains, nil
}
