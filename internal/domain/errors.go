package domain

import "errors"

var (
	ErrInvalidPrompt = errors.New("invalid prompt")
	ErrQuotaExceeded = errors.New("quota exceeded")

	// Provider failures. Quota and unavailable are transient; callers may
	// retry later. No-image and rejected are terminal for the given prompt.
	ErrProviderQuotaExceeded   = errors.New("provider quota exhausted")
	ErrProviderUnavailable     = errors.New("provider unavailable")
	ErrProviderNoImageData     = errors.New("no image data in provider response")
	ErrProviderRequestRejected = errors.New("provider rejected request")

	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageWriteFailed = errors.New("storage write failed")
)
