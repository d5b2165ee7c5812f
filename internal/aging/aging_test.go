package aging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClassifyYesterdayIsOverdueOne(t *testing.T) {
	c := NewClassifier(3)
	today := date(2026, 3, 14)

	got := c.Classify(today.AddDate(0, 0, -1), today)

	assert.Equal(t, Classification{Bucket: BucketOverdue, Days: 1}, got)
}

func TestClassifyIsPure(t *testing.T) {
	c := NewClassifier(5)
	due := date(2026, 3, 10)
	now := date(2026, 3, 14)

	first := c.Classify(due, now)
	second := c.Classify(due, now)

	assert.Equal(t, first, second)
}

func TestClassifyBuckets(t *testing.T) {
	c := NewClassifier(3)
	now := date(2026, 3, 14)

	cases := []struct {
		name string
		due  time.Time
		want Classification
	}{
		{"due today is due soon", now, Classification{Bucket: BucketDueSoon, Days: 0}},
		{"inside window", now.AddDate(0, 0, 2), Classification{Bucket: BucketDueSoon, Days: 2}},
		{"window edge", now.AddDate(0, 0, 3), Classification{Bucket: BucketDueSoon, Days: 3}},
		{"past window", now.AddDate(0, 0, 4), Classification{Bucket: BucketNormal, Days: 4}},
		{"far future", now.AddDate(0, 1, 0), Classification{Bucket: BucketNormal, Days: 31}},
		{"long overdue", now.AddDate(0, 0, -45), Classification{Bucket: BucketOverdue, Days: 45}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Classify(tc.due, now))
		})
	}
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	c := NewClassifier(2)
	due := time.Date(2026, 3, 13, 23, 59, 0, 0, time.UTC)
	now := time.Date(2026, 3, 14, 0, 1, 0, 0, time.UTC)

	// Minutes apart but across midnight: one whole day overdue.
	assert.Equal(t, Classification{Bucket: BucketOverdue, Days: 1}, c.Classify(due, now))
}

func TestZeroWindowClassifier(t *testing.T) {
	c := NewClassifier(0)
	now := date(2026, 3, 14)

	assert.Equal(t, BucketDueSoon, c.Classify(now, now).Bucket)
	assert.Equal(t, BucketNormal, c.Classify(now.AddDate(0, 0, 1), now).Bucket)
}

func TestDaysOverdueNeverNegative(t *testing.T) {
	now := date(2026, 3, 14)

	assert.Equal(t, 0, DaysOverdue(now.AddDate(0, 0, 10), now))
	assert.Equal(t, 0, DaysOverdue(now, now))
	assert.Equal(t, 7, DaysOverdue(now.AddDate(0, 0, -7), now))
}
