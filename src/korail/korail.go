// Package korail owns the single authenticated Korail session of the
// process: credential caching, expiry tracking, transparent re-login, and the
// search/reserve/list/cancel operations layered on top of it.
package korail

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ktx/src/config"
	"ktx/src/lib"
	"ktx/src/types"
)

// Service is the process-wide session manager. There is exactly one
// authenticated identity per running process, so construct one instance and
// share it. All mutable state sits behind mu; operations hold the lock end to
// end, which also closes the concurrent re-login race window.
type Service struct {
	mu sync.Mutex

	rc RailClient

	sessionToken string
	expiresAt    time.Time
	memberName   string
	korailID     string
	korailPW     string

	// reservations is the in-process cache keyed by reservation id. It is
	// intentionally not durable: a restart loses it, and listing via the
	// live upstream partially recovers.
	reservations map[string]types.ReservationDetail

	now func() time.Time
}

func New(rc RailClient) *Service {
	log.Println("[KorailService] 서비스 초기화 완료")
	return &Service{
		rc:           rc,
		reservations: make(map[string]types.ReservationDetail),
		now:          func() time.Time { return time.Now().In(config.KST) },
	}
}

// IsSessionValid reports whether a login session is currently live: token
// present and expiry not yet reached.
func (s *Service) IsSessionValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionValidLocked()
}

func (s *Service) sessionValidLocked() bool {
	return s.sessionToken != "" && s.now().Before(s.expiresAt)
}

func (s *Service) clearSessionLocked() {
	s.sessionToken = ""
	s.expiresAt = time.Time{}
}

// ensureSessionLocked re-validates the session before an authenticated
// operation. An expired session triggers exactly one re-login attempt with
// the cached credentials; a failed re-login surfaces as SessionExpired, never
// as a raw login error, so callers cannot loop on login.
func (s *Service) ensureSessionLocked(ctx context.Context) error {
	if s.sessionValidLocked() {
		return nil
	}

	if s.korailID != "" && s.korailPW != "" {
		log.Println("[KorailService] 세션 만료 감지 - 자동 재로그인 시도")
		if _, err := s.loginLocked(ctx, s.korailID, s.korailPW); err != nil {
			log.Printf("[KorailService] 자동 재로그인 실패: %v", err)
		} else {
			log.Println("[KorailService] 자동 재로그인 성공")
			return nil
		}
	}

	return types.NewSessionExpired("")
}

// Login authenticates against the upstream and establishes the local
// session. A nil error from the underlying client is not proof of success;
// the authenticated flag decides.
func (s *Service) Login(ctx context.Context, id, pw string) (*types.LoginResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginLocked(ctx, id, pw)
}

func (s *Service) loginLocked(ctx context.Context, id, pw string) (*types.LoginResponse, error) {
	log.Printf("[KorailService] 로그인 시도 - ID: %s", maskID(id))

	res, err := s.rc.Login(ctx, id, pw)
	if err != nil {
		log.Printf("[KorailService] 로그인 실패: %v", err)
		switch {
		case isLoginFailure(err):
			return nil, types.NewLoginFailed("")
		case isAccountBlocked(err):
			return nil, types.NewAccountBlocked("")
		default:
			return nil, types.NewUpstreamUnavailable(
				fmt.Sprintf("코레일 서버 연결 실패: %v", err), err)
		}
	}

	if res == nil || !res.Authenticated {
		return nil, types.NewLoginFailed("")
	}

	now := s.now()
	expiresAt := now.Add(config.SESSION_DURATION)
	token, err := lib.NewSessionToken(expiresAt)
	if err != nil {
		return nil, types.NewInternal(err)
	}

	s.korailID = id
	s.korailPW = pw
	s.sessionToken = token
	s.expiresAt = expiresAt
	s.memberName = res.MemberName

	log.Printf("[KorailService] 로그인 성공 - %s", res.MemberName)

	return &types.LoginResponse{
		SessionToken: token,
		ExpiresAt:    expiresAt.Format(time.RFC3339),
		Name:         res.MemberName,
		Message:      "로그인 성공",
	}, nil
}

// SearchTrains queries the authenticated source for trains with live seat
// availability. dep/arr are station names, date is YYYYMMDD, depTime HHmmss.
func (s *Service) SearchTrains(ctx context.Context, dep, arr, date, depTime string) ([]types.TrainInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureSessionLocked(ctx); err != nil {
		return nil, err
	}

	log.Printf("[KorailService] 열차 조회 - %s -> %s, %s %s", dep, arr, date, depTime)

	trains, err := s.rc.SearchTrain(ctx, dep, arr, date, depTime)
	if err != nil {
		return nil, s.classifySearchErrLocked(err)
	}
	if len(trains) == 0 {
		return nil, types.NewNoTrains("")
	}

	out := make([]types.TrainInfo, 0, len(trains))
	for _, t := range trains {
		info, err := railTrainToInfo(t)
		if err != nil {
			log.Printf("[KorailService] 열차 정보 파싱 오류 (건너뜀): %v", err)
			continue
		}
		out = append(out, info)
	}

	withSeats := 0
	for _, t := range out {
		if (t.GeneralSeats != nil && *t.GeneralSeats) || (t.SpecialSeats != nil && *t.SpecialSeats) {
			withSeats++
		}
	}
	log.Printf("[KorailService] 조회 완료 - %d건 (좌석 있음: %d건)", len(out), withSeats)

	return out, nil
}

// Reserve books one seat on the train identified by trainNo. The number may
// come from either source's catalog, so the day's trains are re-queried from
// the authenticated source and reconciled via matchTrain first.
func (s *Service) Reserve(ctx context.Context, trainNo string, seatType types.SeatType, dep, arr, date, depTime string) (*types.ReservationResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureSessionLocked(ctx); err != nil {
		return nil, err
	}

	log.Printf("[KorailService] 예약 시도 - 열차: %s, 좌석: %s, %s->%s %s %s",
		trainNo, seatType, dep, arr, date, depTime)

	trains, err := s.rc.SearchTrainAllDay(ctx, dep, arr, date, depTime)
	if err != nil {
		return nil, s.classifyReserveErrLocked(err)
	}

	target, err := matchTrain(trains, trainNo, depTime)
	if err != nil {
		return nil, err
	}

	option := RESERVE_GENERAL
	if seatType == types.SEAT_SPECIAL {
		option = RESERVE_SPECIAL
	}

	rsv, err := s.rc.Reserve(ctx, *target, option)
	if err != nil {
		return nil, s.classifyReserveErrLocked(err)
	}

	now := s.now()
	reservationID := ""
	if rsv != nil {
		reservationID = rsv.RsvID
	}
	if reservationID == "" {
		reservationID = synthesizeReservationID(now)
	}

	train := types.TrainInfo{
		TrainNo:      trainNo,
		TrainType:    orDefault(target.TrainTypeName, "KTX"),
		DepStation:   target.DepStationName,
		ArrStation:   target.ArrStationName,
		DepTime:      formatTime(target.DepTime),
		ArrTime:      formatTime(target.ArrTime),
		GeneralSeats: types.BoolPtr(seatType != types.SEAT_SPECIAL),
		SpecialSeats: types.BoolPtr(seatType == types.SEAT_SPECIAL),
	}

	deadline := now.Add(config.PAYMENT_DEADLINE)
	s.reservations[reservationID] = types.ReservationDetail{
		ReservationID:   reservationID,
		Status:          "success",
		Train:           train,
		ReservedAt:      now.Format(time.RFC3339),
		PaymentDeadline: deadline.Format(time.RFC3339),
	}

	log.Printf("[KorailService] 예약 성공 - 예약번호: %s", reservationID)

	return &types.ReservationResponse{
		ReservationID: reservationID,
		Status:        "success",
		Train:         train,
		Message:       "예약 성공. 10분 내 결제 필요",
		ReservedAt:    now.Format(time.RFC3339),
	}, nil
}

// ListReservations returns every live reservation on the account. An
// upstream "no results" is an empty list here, not a failure; this is
// deliberately more lenient than SearchTrains.
func (s *Service) ListReservations(ctx context.Context) ([]types.ReservationDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureSessionLocked(ctx); err != nil {
		return nil, err
	}

	log.Println("[KorailService] 예약 목록 조회")

	rsvs, err := s.rc.Reservations(ctx)
	if err != nil {
		if isSessionDead(err) {
			s.clearSessionLocked()
			return nil, types.NewSessionExpired("")
		}
		if isNoResult(err) {
			return []types.ReservationDetail{}, nil
		}
		return nil, types.NewUpstreamUnavailable(
			fmt.Sprintf("코레일 서버 연결 실패: %v", err), err)
	}

	out := make([]types.ReservationDetail, 0, len(rsvs))
	for _, r := range rsvs {
		detail, err := railReservationToDetail(r)
		if err != nil {
			log.Printf("[KorailService] 예약 정보 파싱 오류 (건너뜀): %v", err)
			continue
		}
		out = append(out, detail)
	}

	log.Printf("[KorailService] 예약 목록 조회 완료 - %d건", len(out))
	return out, nil
}

// GetReservation looks up one reservation: local cache first, then a
// best-effort scan of the live reservation list. Failures during the live
// fallback degrade to ReservationNotFound.
func (s *Service) GetReservation(ctx context.Context, id string) (*types.ReservationDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureSessionLocked(ctx); err != nil {
		return nil, err
	}

	log.Printf("[KorailService] 예약 조회 - ID: %s", id)

	if detail, ok := s.reservations[id]; ok {
		log.Println("[KorailService] 예약 조회 성공 (캐시)")
		return &detail, nil
	}

	rsvs, err := s.rc.Reservations(ctx)
	if err != nil {
		log.Printf("[KorailService] 예약 조회 실패: %v", err)
		return nil, types.NewReservationNotFound("")
	}

	for _, r := range rsvs {
		if r.RsvID == id {
			detail, err := railReservationToDetail(r)
			if err != nil {
				return nil, types.NewReservationNotFound("")
			}
			log.Println("[KorailService] 예약 조회 성공 (업스트림)")
			return &detail, nil
		}
	}

	return nil, types.NewReservationNotFound("")
}

// CancelReservation cancels the reservation with the given id. The target
// must be present in the live reservation list; the local cache alone is not
// proof the upstream still holds it.
func (s *Service) CancelReservation(ctx context.Context, id string) (*types.CancellationResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureSessionLocked(ctx); err != nil {
		return nil, err
	}

	log.Printf("[KorailService] 예약 취소 시도 - ID: %s", id)

	rsvs, err := s.rc.Reservations(ctx)
	if err != nil {
		if isSessionDead(err) {
			s.clearSessionLocked()
			return nil, types.NewSessionExpired("")
		}
		return nil, types.NewCancellationFailed(fmt.Sprintf("예약 취소에 실패했습니다: %v", err))
	}

	var target *RailReservation
	for i := range rsvs {
		if rsvs[i].RsvID == id {
			target = &rsvs[i]
			break
		}
	}
	if target == nil {
		return nil, types.NewReservationNotFound("")
	}

	if err := s.rc.Cancel(ctx, *target); err != nil {
		log.Printf("[KorailService] 예약 취소 실패: %v", err)
		if isSessionDead(err) {
			s.clearSessionLocked()
			return nil, types.NewSessionExpired("")
		}
		return nil, types.NewCancellationFailed(fmt.Sprintf("예약 취소에 실패했습니다: %v", err))
	}

	delete(s.reservations, id)
	now := s.now()

	log.Printf("[KorailService] 예약 취소 성공 - ID: %s", id)

	return &types.CancellationResponse{
		ReservationID: id,
		Status:        "cancelled",
		Message:       "예약이 취소되었습니다",
		CancelledAt:   now.Format(time.RFC3339),
	}, nil
}

// PruneExpiredReservations drops cached reservations whose payment deadline
// has passed; the operator voids those upstream anyway. Returns the number
// evicted.
func (s *Service) PruneExpiredReservations() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	pruned := 0
	for id, detail := range s.reservations {
		if detail.PaymentDeadline == "" {
			continue
		}
		deadline, err := time.Parse(time.RFC3339, detail.PaymentDeadline)
		if err != nil {
			continue
		}
		if now.After(deadline) {
			delete(s.reservations, id)
			pruned++
			log.Printf("[KorailService] 결제 기한 초과 예약 정리 - ID: %s", id)
		}
	}
	return pruned
}

// classifySearchErrLocked maps a raw search failure onto the typed taxonomy.
// A dead-session signal clears local state so the next call re-logs-in.
func (s *Service) classifySearchErrLocked(err error) error {
	log.Printf("[KorailService] 열차 조회 실패: %v", err)
	switch {
	case isNoResult(err):
		return types.NewNoTrains("")
	case isSessionDead(err):
		s.clearSessionLocked()
		return types.NewSessionExpired("")
	default:
		return types.NewUpstreamUnavailable(
			fmt.Sprintf("코레일 서버 연결 실패: %v", err), err)
	}
}

func (s *Service) classifyReserveErrLocked(err error) error {
	log.Printf("[KorailService] 예약 실패: %v", err)
	switch {
	case isSoldOut(err):
		return types.NewSoldOut("")
	case isNoResult(err):
		return types.NewNoTrains("")
	case isSessionDead(err):
		s.clearSessionLocked()
		return types.NewSessionExpired("")
	default:
		return types.NewUpstreamUnavailable(
			fmt.Sprintf("코레일 서버와 통신할 수 없습니다: %v", err), err)
	}
}

func railTrainToInfo(t RailTrain) (types.TrainInfo, error) {
	if t.TrainNo == "" {
		return types.TrainInfo{}, fmt.Errorf("missing train number")
	}
	return types.TrainInfo{
		TrainNo:      t.TrainNo,
		TrainType:    orDefault(t.TrainTypeName, "KTX"),
		DepStation:   t.DepStationName,
		ArrStation:   t.ArrStationName,
		DepTime:      formatTime(t.DepTime),
		ArrTime:      formatTime(t.ArrTime),
		GeneralSeats: types.BoolPtr(t.GeneralSeatAvailable),
		SpecialSeats: types.BoolPtr(t.SpecialSeatAvailable),
	}, nil
}

func railReservationToDetail(r RailReservation) (types.ReservationDetail, error) {
	if r.RsvID == "" {
		return types.ReservationDetail{}, fmt.Errorf("missing reservation id")
	}
	return types.ReservationDetail{
		ReservationID: r.RsvID,
		Status:        "success",
		Train: types.TrainInfo{
			TrainNo:      orDefault(r.TrainNo, "N/A"),
			TrainType:    orDefault(r.TrainTypeName, "KTX"),
			DepStation:   r.DepStationName,
			ArrStation:   r.ArrStationName,
			DepTime:      formatTime(r.DepTime),
			ArrTime:      formatTime(r.ArrTime),
			GeneralSeats: types.BoolPtr(true),
			SpecialSeats: types.BoolPtr(false),
		},
		ReservedAt:      r.RsvDate,
		PaymentDeadline: r.PayLimitDate,
	}, nil
}

// formatTime renders an upstream time string (HHmmss or HH:mm:ss) as HH:mm.
func formatTime(t string) string {
	if len(t) == 5 && strings.Contains(t, ":") {
		return t
	}
	clean := strings.ReplaceAll(strings.ReplaceAll(t, ":", ""), " ", "")
	if len(clean) >= 4 {
		return clean[:2] + ":" + clean[2:4]
	}
	return t
}

func synthesizeReservationID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:3]
	return "R" + now.Format(config.DATE_PARAM_FORMAT) + suffix
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func maskID(id string) string {
	if len(id) <= 3 {
		return "***"
	}
	return id[:3] + "***"
}
