package entity

import "errors"

var (
	// Community errors
	ErrCommunityNotFound = errors.New("community not found")
	ErrCommunityDeleted  = errors.New("community has been deleted")
	ErrCommunityInactive = errors.New("community is not active")

	// Event errors
	ErrEventNotFound  = errors.New("event not found")
	ErrEventCancelled = errors.New("event has been cancelled")
	ErrEventDeleted   = errors.New("event has been deleted")

	// RSVP errors
	ErrRSVPNotFound      = errors.New("rsvp not found")
	ErrCapacityExceeded  = errors.New("event capacity exceeded")
	ErrInvalidRSVPStatus = errors.New("invalid rsvp status")

	// Membership errors
	ErrMembershipNotFound = errors.New("membership not found")

	// Profile errors
	ErrProfileNotFound = errors.New("profile not found")

	// General errors
	ErrValidation            = errors.New("validation failed")
	ErrAuthorizationDenied   = errors.New("authorization denied")
	ErrConflict              = errors.New("concurrent update conflict")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
