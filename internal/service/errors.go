package service

import (
	appErrors "github.com/d60-Lab/zingg/pkg/errors"
)

var (
	ErrUnauthenticated    = appErrors.Unauthorized("unauthenticated")
	ErrInvalidCredentials = appErrors.Unauthorized("invalid_credentials")
	ErrEmailRequired      = appErrors.Unauthorized("email_required")

	ErrFollowSelf        = appErrors.Validation("cannot_follow_self")
	ErrInvalidFollowType = appErrors.Validation("invalid_follow_type")
	ErrMissingFields     = appErrors.Validation("missing_fields")
	ErrInvalidEmail      = appErrors.Validation("invalid_email")
	ErrInvalidUsername   = appErrors.Validation("invalid_username")
	ErrCommentEmpty      = appErrors.Validation("empty_comment")
	ErrInvalidImage      = appErrors.Validation("invalid_image")

	ErrUserNotFound = appErrors.NotFound("user_not_found")
	ErrBlogNotFound = appErrors.NotFound("blog_not_found")

	ErrEmailTaken          = appErrors.Conflict("email_taken")
	ErrUsernameTaken       = appErrors.Conflict("username_taken")
	ErrUsernameUnavailable = appErrors.Conflict("username_unavailable")
)
