// Package appinfo provides application identity constants.
// These are used across packages for consistent naming.
package appinfo

const (
	// AppName is the display name of the application.
	AppName = "Hytale Companion"

	// LockFileName is the lock file name for single instance control.
	LockFileName = "hytaled.lock"

	// DatabaseFileName is the SQLite database file name. The dashboard
	// opens the same file read-only.
	DatabaseFileName = "dashboard.db"
)
