package model

import "errors"

// Error taxonomy. Components wrap these with %w so callers can use errors.Is.
var (
	// ErrMetadataFetch is returned when a remote item is unavailable,
	// restricted, or the metadata call times out.
	ErrMetadataFetch = errors.New("metadata fetch failed")

	// ErrAuthentication is returned when browser cookies are missing or
	// expired. Kept distinct so the CLI can suggest signing in again.
	ErrAuthentication = errors.New("authentication required")

	// ErrNoSuitableFormat is returned when no stream matches the mode.
	ErrNoSuitableFormat = errors.New("no suitable format")

	// ErrTransfer is returned on any I/O or network fault mid-transfer.
	ErrTransfer = errors.New("transfer failed")

	// ErrMerge is returned when the muxing process exits non-zero.
	ErrMerge = errors.New("merge failed")

	// ErrConfiguration is returned for invalid user configuration.
	ErrConfiguration = errors.New("invalid configuration")
)

// ItemError annotates a failure with the URL and step that produced it.
type ItemError struct {
	URL string
	Op  string
	Err error
}

func (e *ItemError) Error() string {
	if e.URL != "" {
		return e.Op + " [" + e.URL + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// NewItemError creates a new ItemError.
func NewItemError(url, op string, err error) *ItemError {
	return &ItemError{URL: url, Op: op, Err: err}
}
