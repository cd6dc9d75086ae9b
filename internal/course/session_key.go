package course

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	sessionKeySep = "_"
)

// ErrInvalidSessionKey 会话键格式非法（期望 YYYY-MM-DD_HH:MM）
var ErrInvalidSessionKey = errors.New("考勤会话键格式无效")

// SessionKey 考勤会话复合键（日期 + 时间）
//
// 持久化与传输时序列化为 "YYYY-MM-DD_HH:MM"。
type SessionKey struct {
	Date string
	Time string
}

// NewSessionKey 校验日期与时间格式并构造会话键
func NewSessionKey(date, clock string) (SessionKey, error) {
	if len(date) != len(DateLayout) || len(clock) != len(TimeLayout) {
		return SessionKey{}, fmt.Errorf("%w: %q %q", ErrInvalidSessionKey, date, clock)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return SessionKey{}, fmt.Errorf("%w: %v", ErrInvalidSessionKey, err)
	}
	if _, err := time.Parse(TimeLayout, clock); err != nil {
		return SessionKey{}, fmt.Errorf("%w: %v", ErrInvalidSessionKey, err)
	}
	return SessionKey{Date: date, Time: clock}, nil
}

// ParseSessionKey 解析 "YYYY-MM-DD_HH:MM"
func ParseSessionKey(s string) (SessionKey, error) {
	date, clock, ok := strings.Cut(s, sessionKeySep)
	if !ok {
		return SessionKey{}, fmt.Errorf("%w: %q", ErrInvalidSessionKey, s)
	}
	return NewSessionKey(date, clock)
}

func (k SessionKey) String() string {
	return k.Date + sessionKeySep + k.Time
}

// MarshalText 使 map[SessionKey] 以字符串键输出
func (k SessionKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText 解析字符串键
func (k *SessionKey) UnmarshalText(b []byte) error {
	parsed, err := ParseSessionKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Less 按日期、时间升序
func (k SessionKey) Less(other SessionKey) bool {
	if k.Date != other.Date {
		return k.Date < other.Date
	}
	return k.Time < other.Time
}

// SortedSessionKeys 返回按时间顺序排列的会话键
func SortedSessionKeys(sessions map[SessionKey][]string) []SessionKey {
	keys := make([]SessionKey, 0, len(sessions))
	for k := range sessions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// ── 周分桶（热力图布局） ──

// WeekStart 返回 t 所在周的周一（按日截断）
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7 // 周一 = 0
	return day.AddDate(0, 0, -offset)
}

// HeatMapWeeks 返回覆盖 [from, to] 的连续整周，每周 7 天，周一开头
func HeatMapWeeks(from, to time.Time) [][]time.Time {
	if to.Before(from) {
		return nil
	}
	var weeks [][]time.Time
	for start := WeekStart(from); !start.After(to); start = start.AddDate(0, 0, 7) {
		week := make([]time.Time, 7)
		for i := range week {
			week[i] = start.AddDate(0, 0, i)
		}
		weeks = append(weeks, week)
	}
	return weeks
}
