package utils

import "time"

// Now is the service clock. Timestamps are stored in UTC.
func Now() time.Time {
	return time.Now().UTC()
}
