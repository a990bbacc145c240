package korail

import (
	"context"
	"strings"
)

// RailTrain is one train record as the authenticated source reports it.
// Times are raw upstream strings (usually HHmmss, sometimes HH:mm:ss).
type RailTrain struct {
	TrainNo              string
	TrainTypeName        string
	TrainTypeCode        string
	DepStationName       string
	ArrStationName       string
	DepStationCode       string
	ArrStationCode       string
	DepTime              string
	ArrTime              string
	RunDate              string
	GeneralSeatAvailable bool
	SpecialSeatAvailable bool
}

// RailReservation is one live reservation record from the authenticated
// source. RsvDate and PayLimitDate are raw upstream strings.
type RailReservation struct {
	RsvID          string
	RsvChgNo       string
	JourneyCount   string
	TrainNo        string
	TrainTypeName  string
	DepStationName string
	ArrStationName string
	DepTime        string
	ArrTime        string
	RsvDate        string
	PayLimitDate   string
}

// LoginResult carries the authenticated flag the upstream sets after a login
// attempt. Authenticated must be checked explicitly: the upstream sometimes
// reports a failed login without returning an error at all.
type LoginResult struct {
	Authenticated bool
	MemberName    string
}

type ReserveOption string

const (
	RESERVE_GENERAL ReserveOption = "GENERAL_FIRST"
	RESERVE_SPECIAL ReserveOption = "SPECIAL_FIRST"
)

// RailClient is the opaque booking capability this service wraps. Its
// failure signaling is inconsistent: sometimes the authenticated flag,
// sometimes an error whose text has to be pattern-matched. The Service owns
// all of that interpretation; implementations should surface upstream
// messages verbatim.
type RailClient interface {
	Login(ctx context.Context, id, pw string) (*LoginResult, error)
	SearchTrain(ctx context.Context, dep, arr, date, time string) ([]RailTrain, error)
	SearchTrainAllDay(ctx context.Context, dep, arr, date, time string) ([]RailTrain, error)
	Reserve(ctx context.Context, train RailTrain, option ReserveOption) (*RailReservation, error)
	Reservations(ctx context.Context) ([]RailReservation, error)
	Cancel(ctx context.Context, rsv RailReservation) error
}

// Keyword sets for classifying free-text upstream failures. Best effort by
// design; anything unmatched is treated as a server-side failure.
var (
	loginFailedKeywords    = []string{"비밀번호", "password", "login"}
	accountBlockedKeywords = []string{"차단", "block", "제한"}
	sessionDeadKeywords    = []string{"session", "만료"}
	noResultKeywords       = []string{"결과가 없습니다", "no result"}
	soldOutKeywords        = []string{"매진", "sold out", "no seat"}
)

func containsAny(msg string, keywords []string) bool {
	lower := strings.ToLower(msg)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func isLoginFailure(err error) bool   { return containsAny(err.Error(), loginFailedKeywords) }
func isAccountBlocked(err error) bool { return containsAny(err.Error(), accountBlockedKeywords) }
func isSessionDead(err error) bool    { return containsAny(err.Error(), sessionDeadKeywords) }
func isNoResult(err error) bool       { return containsAny(err.Error(), noResultKeywords) }
func isSoldOut(err error) bool        { return containsAny(err.Error(), soldOutKeywords) }
