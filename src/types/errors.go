package types

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	ERR_LOGIN_FAILED        ErrorKind = "LOGIN_FAILED"
	ERR_ACCOUNT_BLOCKED     ErrorKind = "ACCOUNT_BLOCKED"
	ERR_SESSION_EXPIRED     ErrorKind = "SESSION_EXPIRED"
	ERR_STATION_NOT_FOUND   ErrorKind = "STATION_NOT_FOUND"
	ERR_NO_TRAINS           ErrorKind = "NO_TRAINS"
	ERR_UPSTREAM            ErrorKind = "UPSTREAM_UNAVAILABLE"
	ERR_SOLD_OUT            ErrorKind = "SOLD_OUT"
	ERR_RESERVATION_MISSING ErrorKind = "NOT_FOUND"
	ERR_CANCELLATION        ErrorKind = "CANCELLATION_FAILED"
	ERR_INVALID_PARAMS      ErrorKind = "INVALID_PARAMS"
	ERR_DATE_RANGE          ErrorKind = "DATE_RANGE_EXCEEDED"
	ERR_INTERNAL            ErrorKind = "INTERNAL_ERROR"
)

// ServiceError is the typed failure every service operation returns for a
// known failure path. Code carries the stable category code exposed on the
// wire; Detail is safe to show to a caller.
type ServiceError struct {
	Kind   ErrorKind
	Code   string
	Detail string
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %s: %s", e.Kind, e.Code, e.Detail, e.Err.Error())
	}
	return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Code, e.Detail)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Is makes errors.Is treat two ServiceErrors with the same Kind as equal, so
// callers can match against the bare constructors.
func (e *ServiceError) Is(target error) bool {
	var se *ServiceError
	if !errors.As(target, &se) {
		return false
	}
	return e.Kind == se.Kind
}

func NewLoginFailed(detail string) *ServiceError {
	if detail == "" {
		detail = "아이디 또는 비밀번호가 올바르지 않습니다"
	}
	return &ServiceError{Kind: ERR_LOGIN_FAILED, Code: "AUTH_001", Detail: detail}
}

func NewAccountBlocked(detail string) *ServiceError {
	if detail == "" {
		detail = "계정이 제한되었습니다"
	}
	return &ServiceError{Kind: ERR_ACCOUNT_BLOCKED, Code: "AUTH_002", Detail: detail}
}

func NewSessionExpired(detail string) *ServiceError {
	if detail == "" {
		detail = "세션이 만료되었습니다. 다시 로그인해주세요"
	}
	return &ServiceError{Kind: ERR_SESSION_EXPIRED, Code: "AUTH_003", Detail: detail}
}

func NewStationNotFound(station string) *ServiceError {
	return &ServiceError{
		Kind:   ERR_STATION_NOT_FOUND,
		Code:   "SEARCH_001",
		Detail: fmt.Sprintf("역명을 찾을 수 없습니다: %s", station),
	}
}

func NewNoTrains(detail string) *ServiceError {
	if detail == "" {
		detail = "해당 조건의 열차가 없습니다"
	}
	return &ServiceError{Kind: ERR_NO_TRAINS, Code: "SEARCH_002", Detail: detail}
}

func NewUpstreamUnavailable(detail string, err error) *ServiceError {
	if detail == "" {
		detail = "상위 서버에 연결할 수 없습니다"
	}
	return &ServiceError{Kind: ERR_UPSTREAM, Code: "SEARCH_003", Detail: detail, Err: err}
}

func NewSoldOut(detail string) *ServiceError {
	if detail == "" {
		detail = "매진되었습니다"
	}
	return &ServiceError{Kind: ERR_SOLD_OUT, Code: "RESERVE_001", Detail: detail}
}

func NewReservationNotFound(detail string) *ServiceError {
	if detail == "" {
		detail = "예약을 찾을 수 없습니다"
	}
	return &ServiceError{Kind: ERR_RESERVATION_MISSING, Code: "RESERVE_003", Detail: detail}
}

func NewCancellationFailed(detail string) *ServiceError {
	if detail == "" {
		detail = "예약 취소에 실패했습니다"
	}
	return &ServiceError{Kind: ERR_CANCELLATION, Code: "RESERVE_004", Detail: detail}
}

func NewInvalidParams(detail string) *ServiceError {
	return &ServiceError{Kind: ERR_INVALID_PARAMS, Code: "SEARCH_001", Detail: detail}
}

func NewDateRangeExceeded(detail string) *ServiceError {
	return &ServiceError{Kind: ERR_DATE_RANGE, Code: "SEARCH_004", Detail: detail}
}

func NewInternal(err error) *ServiceError {
	return &ServiceError{
		Kind:   ERR_INTERNAL,
		Code:   "SYSTEM_001",
		Detail: "서버 내부 오류가 발생했습니다",
		Err:    err,
	}
}

// KindOf classifies any error. Errors that are not ServiceErrors come back as
// ERR_INTERNAL so raw implementation detail never picks an HTTP status.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ERR_INTERNAL
}

// AsServiceError wraps unknown errors as internal failures at the boundary.
func AsServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return NewInternal(err)
}

var statusByCode = map[string]int{
	"AUTH_001":    http.StatusUnauthorized,
	"AUTH_002":    http.StatusForbidden,
	"AUTH_003":    http.StatusUnauthorized,
	"SEARCH_001":  http.StatusBadRequest,
	"SEARCH_002":  http.StatusNotFound,
	"SEARCH_003":  http.StatusServiceUnavailable,
	"SEARCH_004":  http.StatusBadRequest,
	"RESERVE_001": http.StatusConflict,
	"RESERVE_002": http.StatusUnauthorized,
	"RESERVE_003": http.StatusNotFound,
	"RESERVE_004": http.StatusUnprocessableEntity,
	"SYSTEM_001":  http.StatusInternalServerError,
	"SYSTEM_002":  http.StatusServiceUnavailable,
	"SYSTEM_003":  http.StatusGatewayTimeout,
}

// HTTPStatus maps the error code to the response status the thin API layer
// should use. Unknown codes fall back to 500.
func (e *ServiceError) HTTPStatus() int {
	if s, ok := statusByCode[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Response renders the stable wire envelope for this error.
func (e *ServiceError) Response() ErrorResponse {
	return ErrorResponse{Error: string(e.Kind), Code: e.Code, Detail: e.Detail}
}
