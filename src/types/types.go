package types

type SeatType string

const (
	SEAT_GENERAL SeatType = "general"
	SEAT_SPECIAL SeatType = "special"
)

type LoginRequest struct {
	KorailID string `json:"korail_id" binding:"required"`
	KorailPW string `json:"korail_pw" binding:"required"`
}

type LoginResponse struct {
	SessionToken string `json:"session_token"`
	ExpiresAt    string `json:"expires_at"`
	Name         string `json:"name"`
	Message      string `json:"message"`
}

// TrainInfo is the normalized view of one scheduled train, regardless of
// which upstream produced it. Seat flags are tri-state: nil means the source
// does not report availability (TAGO never does), while true/false are live
// values from the Korail session. AdultCharge is only known from TAGO.
type TrainInfo struct {
	TrainNo      string `json:"train_no"`
	TrainType    string `json:"train_type"`
	DepStation   string `json:"dep_station"`
	ArrStation   string `json:"arr_station"`
	DepTime      string `json:"dep_time"`
	ArrTime      string `json:"arr_time"`
	GeneralSeats *bool  `json:"general_seats"`
	SpecialSeats *bool  `json:"special_seats"`
	AdultCharge  *int   `json:"adult_charge,omitempty"`
}

type TrainSearchResponse struct {
	Trains     []TrainInfo `json:"trains"`
	SearchedAt string      `json:"searched_at"`
}

type ReservationRequest struct {
	TrainNo    string   `json:"train_no" binding:"required"`
	SeatType   SeatType `json:"seat_type" binding:"omitempty,oneof=general special"`
	DepStation string   `json:"dep_station" binding:"required"`
	ArrStation string   `json:"arr_station" binding:"required"`
	Date       string   `json:"date" binding:"required,traindate"`
	Time       string   `json:"time" binding:"omitempty,traintime"`
}

type ReservationResponse struct {
	ReservationID string    `json:"reservation_id"`
	Status        string    `json:"status"`
	Train         TrainInfo `json:"train"`
	Message       string    `json:"message"`
	ReservedAt    string    `json:"reserved_at"`
}

type ReservationDetail struct {
	ReservationID   string    `json:"reservation_id"`
	Status          string    `json:"status"`
	Train           TrainInfo `json:"train"`
	ReservedAt      string    `json:"reserved_at"`
	PaymentDeadline string    `json:"payment_deadline,omitempty"`
}

type ReservationListResponse struct {
	Reservations []ReservationDetail `json:"reservations"`
	Count        int                 `json:"count"`
}

type CancellationResponse struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
	CancelledAt   string `json:"cancelled_at"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func BoolPtr(b bool) *bool { return &b }
