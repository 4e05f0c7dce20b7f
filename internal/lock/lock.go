// Package lock guards a log file against being opened by two processes.
package lock

import "errors"

// ErrLocked is returned when another instance already holds the lock.
var ErrLocked = errors.New("log file already in use by another logkv instance")

// PathFor returns the lock file used for the log at logPath.
func PathFor(logPath string) string {
	return logPath + ".lock"
}
