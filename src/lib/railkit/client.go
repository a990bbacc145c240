// Package railkit is the thin wire adapter for the unofficial Korail mobile
// JSON API. It translates requests and responses only; session bookkeeping,
// retries and failure interpretation all live in the korail service, so
// upstream error text is surfaced verbatim.
package railkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"ktx/src/korail"
)

const (
	loginPath        = "/login.Login"
	schedulePath     = "/seatMovie.ScheduleView"
	reservePath      = "/certification.TicketReservation"
	reservationsPath = "/reservation.ReservationView"
	cancelPath       = "/reservationCancel"

	deviceType = "AD"
	appVersion = "190617001"
	appKey     = "korail1234567890"

	// h_rsv_psb codes on the schedule response: "11" reservable.
	seatAvailableCode = "11"
)

type Client struct {
	baseURL string
	hc      *http.Client
}

// New builds a client around its own cookie-jar'd HTTP transport; the
// upstream tracks its server-side session via cookies.
func New(baseURL string, timeoutClient *http.Client) *Client {
	jar, _ := cookiejar.New(nil)
	hc := *timeoutClient
	hc.Jar = jar
	return &Client{baseURL: baseURL, hc: &hc}
}

var _ korail.RailClient = (*Client)(nil)

func (c *Client) post(ctx context.Context, path string, form url.Values) (gjson.Result, error) {
	form.Set("Device", deviceType)
	form.Set("Version", appVersion)
	form.Set("Key", appKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("korail http %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errors.New("korail: invalid response body")
	}

	doc := gjson.ParseBytes(body)
	if doc.Get("strResult").String() == "FAIL" {
		// Keep the upstream message intact: the service layer classifies it.
		return doc, fmt.Errorf("%s (%s)",
			doc.Get("h_msg_txt").String(), doc.Get("h_msg_cd").String())
	}
	return doc, nil
}

func (c *Client) Login(ctx context.Context, id, pw string) (*korail.LoginResult, error) {
	form := url.Values{}
	form.Set("txtInputFlg", "2")
	form.Set("txtMemberNo", id)
	form.Set("txtPwd", pw)

	doc, err := c.post(ctx, loginPath, form)
	if err != nil {
		return nil, err
	}

	// A SUCC result without a membership number is still a failed login.
	return &korail.LoginResult{
		Authenticated: doc.Get("strMbCrdNo").String() != "",
		MemberName:    doc.Get("strCustNm").String(),
	}, nil
}

func (c *Client) SearchTrain(ctx context.Context, dep, arr, date, depTime string) ([]korail.RailTrain, error) {
	return c.schedulePage(ctx, dep, arr, date, depTime)
}

// SearchTrainAllDay pages through the schedule from the requested time to the
// end of the day. The upstream returns at most one page per call, keyed by
// departure time.
func (c *Client) SearchTrainAllDay(ctx context.Context, dep, arr, date, depTime string) ([]korail.RailTrain, error) {
	cursor := depTime
	if cursor == "" {
		cursor = "000000"
	}

	var all []korail.RailTrain
	seen := make(map[string]bool)
	for page := 0; page < 20; page++ {
		trains, err := c.schedulePage(ctx, dep, arr, date, cursor)
		if err != nil {
			if len(all) > 0 && isNoResult(err) {
				break
			}
			return nil, err
		}

		added := 0
		last := ""
		for _, t := range trains {
			key := t.TrainNo + "|" + t.DepTime
			last = t.DepTime
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, t)
			added++
		}
		if added == 0 || len(last) < 6 {
			break
		}
		cursor = advanceSecond(last)
	}
	return all, nil
}

func (c *Client) schedulePage(ctx context.Context, dep, arr, date, depTime string) ([]korail.RailTrain, error) {
	form := url.Values{}
	form.Set("txtGoStart", dep)
	form.Set("txtGoEnd", arr)
	form.Set("txtGoAbrdDt", date)
	form.Set("txtGoHour", depTime)
	form.Set("txtTrnGpCd", "109")
	form.Set("txtPsgFlg_1", "1")
	form.Set("radJobId", "1")

	doc, err := c.post(ctx, schedulePath, form)
	if err != nil {
		return nil, err
	}

	var trains []korail.RailTrain
	doc.Get("trn_infos.trn_info").ForEach(func(_, item gjson.Result) bool {
		trains = append(trains, korail.RailTrain{
			TrainNo:              item.Get("h_trn_no").String(),
			TrainTypeName:        item.Get("h_trn_clsf_nm").String(),
			TrainTypeCode:        item.Get("h_trn_clsf_cd").String(),
			DepStationName:       item.Get("h_dpt_rs_stn_nm").String(),
			ArrStationName:       item.Get("h_arv_rs_stn_nm").String(),
			DepStationCode:       item.Get("h_dpt_rs_stn_cd").String(),
			ArrStationCode:       item.Get("h_arv_rs_stn_cd").String(),
			DepTime:              item.Get("h_dpt_tm").String(),
			ArrTime:              item.Get("h_arv_tm").String(),
			RunDate:              item.Get("h_run_dt").String(),
			GeneralSeatAvailable: item.Get("h_gen_rsv_cd").String() == seatAvailableCode,
			SpecialSeatAvailable: item.Get("h_spe_rsv_cd").String() == seatAvailableCode,
		})
		return true
	})
	return trains, nil
}

func (c *Client) Reserve(ctx context.Context, train korail.RailTrain, option korail.ReserveOption) (*korail.RailReservation, error) {
	seatClass := "1"
	if option == korail.RESERVE_SPECIAL {
		seatClass = "2"
	}

	form := url.Values{}
	form.Set("txtJobId", "1101")
	form.Set("txtJrnyCnt", "1")
	form.Set("txtJrnyTpCd", "11")
	form.Set("txtJrnySqno1", "001")
	form.Set("txtStndFlg", "N")
	form.Set("txtTrnNo1", train.TrainNo)
	form.Set("txtTrnClsfCd1", train.TrainTypeCode)
	form.Set("txtRunDt1", train.RunDate)
	form.Set("txtDptDt1", train.RunDate)
	form.Set("txtDptRsStnCd1", train.DepStationCode)
	form.Set("txtDptTm1", train.DepTime)
	form.Set("txtArvRsStnCd1", train.ArrStationCode)
	form.Set("txtPsrmClCd1", seatClass)
	form.Set("txtTotPsgCnt", "1")
	form.Set("txtPsgTpCd1", "1")
	form.Set("txtDiscKndCd1", "000")
	form.Set("txtCompaCnt1", "1")

	doc, err := c.post(ctx, reservePath, form)
	if err != nil {
		return nil, err
	}

	return &korail.RailReservation{
		RsvID:          doc.Get("h_pnr_no").String(),
		TrainNo:        train.TrainNo,
		TrainTypeName:  train.TrainTypeName,
		DepStationName: train.DepStationName,
		ArrStationName: train.ArrStationName,
		DepTime:        train.DepTime,
		ArrTime:        train.ArrTime,
	}, nil
}

func (c *Client) Reservations(ctx context.Context) ([]korail.RailReservation, error) {
	doc, err := c.post(ctx, reservationsPath, url.Values{})
	if err != nil {
		return nil, err
	}

	var rsvs []korail.RailReservation
	doc.Get("jrny_infos.jrny_info").ForEach(func(_, journey gjson.Result) bool {
		journey.Get("train_infos.train_info").ForEach(func(_, item gjson.Result) bool {
			rsvs = append(rsvs, korail.RailReservation{
				RsvID:          item.Get("h_pnr_no").String(),
				RsvChgNo:       item.Get("h_rsv_chg_no").String(),
				JourneyCount:   item.Get("h_jrny_cnt").String(),
				TrainNo:        item.Get("h_trn_no").String(),
				TrainTypeName:  item.Get("h_trn_clsf_nm").String(),
				DepStationName: item.Get("h_dpt_rs_stn_nm").String(),
				ArrStationName: item.Get("h_arv_rs_stn_nm").String(),
				DepTime:        item.Get("h_dpt_tm").String(),
				ArrTime:        item.Get("h_arv_tm").String(),
				RsvDate:        item.Get("h_rsv_dt").String(),
				PayLimitDate:   item.Get("h_ntisu_lmt_dt").String() + item.Get("h_ntisu_lmt_tm").String(),
			})
			return true
		})
		return true
	})

	log.Printf("[RailKit] 예약 목록 %d건", len(rsvs))
	return rsvs, nil
}

func (c *Client) Cancel(ctx context.Context, rsv korail.RailReservation) error {
	form := url.Values{}
	form.Set("txtPnrNo", rsv.RsvID)
	form.Set("txtJrnySqno", "001")
	form.Set("txtJrnyCnt", orDefault(rsv.JourneyCount, "1"))
	form.Set("hidRsvChgNo", rsv.RsvChgNo)

	_, err := c.post(ctx, cancelPath, form)
	return err
}

func isNoResult(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "결과가 없습니다") || strings.Contains(msg, "no result")
}

// advanceSecond bumps an HHmmss cursor by one second so the next page starts
// past the last train already seen. "240000" and beyond ends the paging.
func advanceSecond(hhmmss string) string {
	var h, m, s int
	if _, err := fmt.Sscanf(hhmmss, "%2d%2d%2d", &h, &m, &s); err != nil {
		return "240000"
	}
	s++
	if s > 59 {
		s = 0
		m++
	}
	if m > 59 {
		m = 0
		h++
	}
	if h > 23 {
		return "240000"
	}
	return fmt.Sprintf("%02d%02d%02d", h, m, s)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
