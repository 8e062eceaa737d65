package timeutil

import "time"

// NowUnix returns the current time in unix milliseconds, the unit every
// ctime/mtime column uses.
func NowUnix() int64 {
	return time.Now().UnixMilli()
}

func FromUnix(ms int64) time.Time {
	return time.UnixMilli(ms)
}
