package service

import "fmt"

// ConfigError means the gateway is missing or carrying invalid credentials.
// It is fatal to the call, not to the process; no network attempt is made.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "credentials not configured: " + e.Reason
}

// AuthError means the remote service rejected authentication or was
// unreachable during it.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// SyncError means a remote sync failed after authentication succeeded, or the
// resulting snapshot could not be persisted.
type SyncError struct {
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failed: %v", e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
