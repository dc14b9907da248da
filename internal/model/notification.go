package model

import "time"

// NotificationRecord is one entry of the local notification history.
// Timestamp is seconds since the Unix epoch.
type NotificationRecord struct {
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	Timestamp float64 `json:"timestamp"`
}

// Time converts Timestamp to a time.Time.
func (r NotificationRecord) Time() time.Time {
	sec := int64(r.Timestamp)
	nsec := int64((r.Timestamp - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

// UnixSeconds converts t to the record timestamp representation.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
