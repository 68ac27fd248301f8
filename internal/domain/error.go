package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrNotSubscribed   = errors.New("chat is not subscribed")
	ErrNoCity          = errors.New("subscriber has no registered city")
	ErrInvalidArgument = errors.New("invalid argument")

	// Weather provider errors
	ErrCityNotFound        = errors.New("city not found")
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrMalformedResponse   = errors.New("malformed provider response")
)
