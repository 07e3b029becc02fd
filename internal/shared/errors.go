package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Catalog errors
	ErrInvalidCatalog = fmt.Errorf("invalid catalog")
	ErrTrackNotFound  = fmt.Errorf("track not found")

	// Media errors
	ErrManifestUnavailable = fmt.Errorf("audio manifest unavailable")
	ErrMediaLoad           = fmt.Errorf("media load failed")
	ErrMediaNotReady       = fmt.Errorf("media not ready")
	ErrUnsupportedFormat   = fmt.Errorf("unsupported audio format")
	ErrAutoplayDeclined    = fmt.Errorf("autoplay declined")
	ErrTimeout             = fmt.Errorf("operation timed out")

	// Service errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
