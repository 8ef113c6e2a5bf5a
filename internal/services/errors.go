package services

import (
	"errors"
)

// Sentinel errors returned by the feature and vote services. Handlers map
// these to HTTP status codes with errors.Is.
var (
	ErrValidation       = errors.New("invalid input")
	ErrNotFound         = errors.New("feature not found")
	ErrNoVote           = errors.New("no existing vote")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConflict         = errors.New("conflicting vote update")
)
