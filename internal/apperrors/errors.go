package apperrors

import (
	"errors"
)

var (
	ErrCredentialNotFound = errors.New("credential not found")

	ErrTokenRefreshFailed = errors.New("token refresh failed")
	ErrExchangeFailed     = errors.New("authorization code exchange failed")
	ErrNoToken            = errors.New("no usable access token")

	ErrUpstreamRequest = errors.New("upstream request failed")
	ErrMalformedData   = errors.New("malformed upstream data")

	ErrBadPeriod = errors.New("invalid activity period")
)
