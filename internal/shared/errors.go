package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidAppID       = fmt.Errorf("invalid app id")
	ErrInvalidAppSecret   = fmt.Errorf("invalid app secret")
	ErrIneligibleAccount  = fmt.Errorf("account not eligible for streaming")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")

	// API and catalog errors
	ErrAPIRequest     = fmt.Errorf("API request failed")
	ErrInvalidQuality = fmt.Errorf("invalid format id")
	ErrTrackNotFound  = fmt.Errorf("track not found")
	ErrTrackNotCached = fmt.Errorf("track not in stream cache")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
