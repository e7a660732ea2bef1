package stats

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"time"

	"ledgerstats/internal/core"
)

var weekdayLabels = [...]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

// PivotKey returns the bucket key and label of t for unit.
func PivotKey(t time.Time, unit core.PivotUnit) (int, string) {
	switch unit {
	case core.Hour:
		h := t.Hour()
		return h, strconv.Itoa(h) + "时"
	case core.Weekday:
		w := int(t.Weekday())
		return w, weekdayLabels[w]
	case core.Yearmonth:
		m := int(t.Month())
		return m, strconv.Itoa(m) + "月"
	default:
		d := t.Day()
		return d, strconv.Itoa(d) + "日"
	}
}

// Pivot aggregates absolute amounts and counts by a cyclical time position,
// ignoring the calendar year. Buckets are ordered by key. Unknown units pivot
// by day of month.
func Pivot(records []core.Record, unit core.PivotUnit) []core.PivotBucket {
	buckets := make(map[int]*core.PivotBucket)
	for _, rec := range records {
		t, ok := rec.Time()
		if !ok {
			continue
		}
		key, label := PivotKey(t, unit)
		b, ok := buckets[key]
		if !ok {
			b = &core.PivotBucket{Key: key, Label: label}
			buckets[key] = b
		}
		b.Amount += math.Abs(rec.Amount)
		b.Count++
	}

	out := make([]core.PivotBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b core.PivotBucket) int { return cmp.Compare(a.Key, b.Key) })
	return out
}

// RankPivot orders buckets by amount, largest first. Buckets with equal
// amounts keep their key order.
func RankPivot(buckets []core.PivotBucket) []core.PivotBucket {
	out := slices.Clone(buckets)
	slices.SortStableFunc(out, func(a, b core.PivotBucket) int { return cmp.Compare(b.Amount, a.Amount) })
	return out
}
