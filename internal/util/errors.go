package util

import "errors"

var (
	ErrNotLoggedIn       = errors.New("not logged in")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrAlreadyEnrolled   = errors.New("already enrolled in this course")
	ErrCommentTooShort   = errors.New("review comment must be at least 10 characters")
	ErrRatingOutOfRange  = errors.New("rating must be between 1 and 5")
	ErrPasswordTooShort  = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrInvalidEmail      = errors.New("please enter a valid email address")
	ErrNameRequired      = errors.New("name is required")
	ErrInvalidTheme      = errors.New("theme must be light, dark or system")
	ErrInvalidBatchState = errors.New("unknown batch status")
)
