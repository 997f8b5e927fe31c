package outline

import "errors"

// Typed provider failures. Both collapse into the fallback builder; they are
// distinct so logs and tests can tell transport trouble from bad output.
var (
	// ErrProviderUnavailable covers network errors, auth rejections,
	// timeouts, and non-2xx provider responses.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderResponseInvalid covers replies that arrived but could not
	// be used: malformed JSON, schema violations, slide count out of bounds.
	ErrProviderResponseInvalid = errors.New("provider response invalid")
)
