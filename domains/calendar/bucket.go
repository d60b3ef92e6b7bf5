package calendar

import "strings"

// Bucket is a time-of-day filter for slot search.
type Bucket string

const (
	BucketMorning   Bucket = "morning"
	BucketAfternoon Bucket = "afternoon"
	BucketEvening   Bucket = "evening"
	BucketAll       Bucket = "all"
)

// ParseBucket accepts the English names plus the Spanish ones users tend to type.
func ParseBucket(v string) Bucket {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "morning", "manana", "mañana":
		return BucketMorning
	case "afternoon", "tarde":
		return BucketAfternoon
	case "evening", "noche":
		return BucketEvening
	case "all", "todo", "todos", "":
		return BucketAll
	}
	return BucketAll
}

// Contains reports whether a slot starting at hour belongs to the bucket.
// morning 8-11, afternoon 12-16, evening 17 onward.
func (b Bucket) Contains(hour int) bool {
	switch b {
	case BucketMorning:
		return hour >= 8 && hour <= 11
	case BucketAfternoon:
		return hour >= 12 && hour <= 16
	case BucketEvening:
		return hour >= 17
	default:
		return true
	}
}

// Spanish returns the label used in user-facing messages.
func (b Bucket) Spanish() string {
	switch b {
	case BucketMorning:
		return "mañana"
	case BucketAfternoon:
		return "tarde"
	case BucketEvening:
		return "noche"
	default:
		return "día"
	}
}
