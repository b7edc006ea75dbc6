package utils

import "time"

// NowMillis returns the current time in unix milliseconds
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// BackupTimestamp formats t the way exported backup file names expect,
// e.g. 2026-10-19T08-30-00.
func BackupTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15-04-05")
}
