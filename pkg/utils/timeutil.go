package utils

import (
	"time"
)

// MYT is the Malaysia Time location (UTC+8).
var MYT *time.Location

func init() {
	var err error
	MYT, err = time.LoadLocation("Asia/Kuala_Lumpur")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		MYT = time.FixedZone("MYT", 8*60*60)
	}
}

// NowMYT returns the current time in Malaysia Time.
func NowMYT() time.Time {
	return time.Now().In(MYT)
}

// ToMYT converts a time.Time to Malaysia Time.
func ToMYT(t time.Time) time.Time {
	return t.In(MYT)
}

// ParseDateMYT parses a date string in "2006-01-02" format and returns it in MYT.
func ParseDateMYT(dateStr string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", dateStr, MYT)
}

// FormatDateMYT formats a time.Time to "2006-01-02" in MYT.
func FormatDateMYT(t time.Time) string {
	return t.In(MYT).Format("2006-01-02")
}

// FormatDateTimeMYT formats a time.Time to "2006-01-02 15:04:05 MYT".
func FormatDateTimeMYT(t time.Time) string {
	return t.In(MYT).Format("2006-01-02 15:04:05 MYT")
}
