// Package buckets provides pure functions mapping a millisecond timestamp
// to the integer bucket index of each rate-limit window the accountant
// tracks. Callers are expected to have already corrected tMs by the server
// clock offset.
package buckets

// Index is a bucket key: an integer dividing a millisecond timestamp by a
// window size.
type Index int64

const (
	second      = 1000
	tenSeconds  = 10 * second
	minute      = 60 * second
	fiveMinutes = 5 * minute
	hour        = 60 * minute
	day         = 24 * hour
)

// Second buckets tMs into one-second windows.
func Second(tMs int64) Index { return Index(tMs / second) }

// TenSeconds buckets tMs into ten-second windows.
func TenSeconds(tMs int64) Index { return Index(tMs / tenSeconds) }

// Minute buckets tMs into one-minute windows.
func Minute(tMs int64) Index { return Index(tMs / minute) }

// FiveMinutes buckets tMs into five-minute windows.
func FiveMinutes(tMs int64) Index { return Index(tMs / fiveMinutes) }

// Hour buckets tMs into one-hour windows.
func Hour(tMs int64) Index { return Index(tMs / hour) }

// Day buckets tMs into one-day windows.
func Day(tMs int64) Index { return Index(tMs / day) }
