package domain

import "time"

const (
	minutesPerDay  = 24 * 60
	minutesPerWeek = 7 * minutesPerDay
)

// DayTime is a weekly point in time. Day 0 is Sunday.
type DayTime struct {
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Period is one weekly recurring open/close interval. A nil Close means the place never closes.
type Period struct {
	Open  DayTime  `json:"open"`
	Close *DayTime `json:"close,omitempty"`
}

// OpenState is the tri-state result of business hours evaluation.
type OpenState string

const (
	OpenStateOpen    OpenState = "open"
	OpenStateClosed  OpenState = "closed"
	OpenStateUnknown OpenState = "unknown"
)

// OpenStatus is the evaluated business status at a given instant.
type OpenStatus struct {
	State      OpenState
	StatusText string
}

// IsOpen returns (open, known).
func (s OpenStatus) IsOpen() (bool, bool) {
	switch s.State {
	case OpenStateOpen:
		return true, true
	case OpenStateClosed:
		return false, true
	default:
		return false, false
	}
}

// Badge は一覧カード用の短いラベル。営業時間不明の場合は空文字を返し、「閉店」とは表示しない。
func (s OpenStatus) Badge() string {
	if s.State == OpenStateOpen {
		return "Open"
	}
	return ""
}

const (
	statusTextOpen    = "영업 중"
	statusTextClosed  = "영업 종료"
	statusTextUnknown = "영업시간 정보 없음"
)

func (d DayTime) weekMinutes() int {
	return d.Day*minutesPerDay + d.Hour*60 + d.Minute
}

// EvaluateOpenStatus は週単位の営業期間リストから now 時点の営業状態を算出する。
// now はその店舗のローカルタイムゾーンで渡すこと。結果は時刻依存のためキャッシュしない。
func EvaluateOpenStatus(periods []Period, now time.Time) OpenStatus {
	if len(periods) == 0 {
		return OpenStatus{State: OpenStateUnknown, StatusText: statusTextUnknown}
	}

	current := DayTime{Day: int(now.Weekday()), Hour: now.Hour(), Minute: now.Minute()}.weekMinutes()

	for _, period := range periods {
		if period.Close == nil {
			return OpenStatus{State: OpenStateOpen, StatusText: statusTextOpen}
		}
		openAt := period.Open.weekMinutes()
		closeAt := period.Close.weekMinutes()
		if closeAt < openAt {
			closeAt += minutesPerWeek
		}
		// 土曜→日曜をまたぐ期間は now を 1 週後ろにずらしても判定する。
		if within(current, openAt, closeAt) || within(current+minutesPerWeek, openAt, closeAt) {
			return OpenStatus{State: OpenStateOpen, StatusText: statusTextOpen}
		}
	}
	return OpenStatus{State: OpenStateClosed, StatusText: statusTextClosed}
}

// within は半開区間 [from, to) の判定。
func within(minute, from, to int) bool {
	return minute >= from && minute < to
}
