package analytics

import "time"

// MonthCount is the number of records created in one calendar month.
type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// MonthStart truncates t to the first instant of its UTC month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// BucketByMonth counts stamps into the last months calendar months ending with
// now's month, oldest first. Stamps outside the window are ignored.
func BucketByMonth(stamps []time.Time, now time.Time, months int) []MonthCount {
	if months <= 0 {
		return []MonthCount{}
	}
	first := MonthStart(now).AddDate(0, -(months - 1), 0)

	out := make([]MonthCount, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		key := first.AddDate(0, i, 0).Format("2006-01")
		out[i] = MonthCount{Month: key}
		index[key] = i
	}
	for _, stamp := range stamps {
		if i, ok := index[stamp.UTC().Format("2006-01")]; ok {
			out[i].Count++
		}
	}
	return out
}
