// Package common defines shared constants and sentinel errors used across
// the client and server layers of Stronghold sync. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors.
	ErrInternal        = errors.New("internal error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrVersionConflict = errors.New("version conflict")
	ErrInvalidArgument = errors.New("invalid argument")

	// Sync-engine errors.
	ErrNotInitialized = errors.New("sync engine not initialized")
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrUnknownKind    = errors.New("unknown document kind")

	// Auth errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrUserAlreadyExists   = errors.New("user already exists")
)
