// Package aging turns due dates into discrete urgency buckets. Everything
// here is pure: the current time is always an explicit parameter, never a
// global clock, so results are deterministic and never persisted.
package aging

import "time"

// Bucket is the urgency classification of a due date.
type Bucket string

const (
	BucketOverdue Bucket = "OVERDUE"
	BucketDueSoon Bucket = "DUE_SOON"
	BucketNormal  Bucket = "NORMAL"
)

// Classification is a bucket plus its day count: days overdue for OVERDUE,
// days until due otherwise.
type Classification struct {
	Bucket Bucket `json:"bucket"`
	Days   int    `json:"days"`
}

// Classifier holds the configured due-soon window. Zero value means no
// due-soon window: everything not overdue is NORMAL.
type Classifier struct {
	dueSoonDays int
}

// NewClassifier creates a classifier with the given due-soon window in
// whole days.
func NewClassifier(dueSoonDays int) Classifier {
	return Classifier{dueSoonDays: dueSoonDays}
}

// Classify buckets the due date relative to now, in whole days.
func (c Classifier) Classify(due, now time.Time) Classification {
	days := daysBetween(due, now)
	switch {
	case days > 0:
		return Classification{Bucket: BucketOverdue, Days: days}
	case -days <= c.dueSoonDays:
		return Classification{Bucket: BucketDueSoon, Days: -days}
	default:
		return Classification{Bucket: BucketNormal, Days: -days}
	}
}

// DaysOverdue is the derived-at-read aging attribute:
// max(0, now - due) in whole days.
func DaysOverdue(due, now time.Time) int {
	if d := daysBetween(due, now); d > 0 {
		return d
	}
	return 0
}

// daysBetween counts whole days from due to now: positive when due is in
// the past. Both sides truncate to calendar dates in UTC so the time of day
// never shifts the count.
func daysBetween(due, now time.Time) int {
	d := startOfDay(due)
	n := startOfDay(now)
	return int(n.Sub(d).Hours() / 24)
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
