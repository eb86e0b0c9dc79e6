package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork         = errors.New("network error")
	ErrRemoteFetch     = errors.New("remote fetch failed")
	ErrNoMatch         = errors.New("no matching release")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrIntegrity       = errors.New("integrity check failed")
	ErrExtraction      = errors.New("extraction failed")
)

// NetworkError reports a transport-level failure (timeout, DNS, refused).
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() []error { return []error{ErrNetwork, e.Err} }

// RemoteFetchError reports a non-2xx HTTP response.
type RemoteFetchError struct {
	URL        string
	StatusCode int
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *RemoteFetchError) Unwrap() error { return ErrRemoteFetch }

// NoMatchError means no usable table row exists for a codename.
type NoMatchError struct {
	Codename string
	Reason   string
}

func (e *NoMatchError) Error() string {
	if e.Reason == "" {
		return Msg(NoData, e.Codename)
	}
	return fmt.Sprintf("%s (%s)", Msg(NoData, e.Codename), e.Reason)
}

func (e *NoMatchError) Unwrap() error { return ErrNoMatch }

// IntegrityError reports a sha256 mismatch on a downloaded file.
type IntegrityError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

// ExtractionError reports a malformed archive or missing members.
type ExtractionError struct {
	Archive string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.Archive, e.Err)
}

func (e *ExtractionError) Unwrap() []error { return []error{ErrExtraction, e.Err} }

// InvalidArgument wraps ErrInvalidArgument with a description.
func InvalidArgument(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, a...))
}

type Code string

const (
	NoData          Code = "NO_DATA"
	UnknownLayout   Code = "UNKNOWN_LAYOUT"
	UnknownPolicy   Code = "UNKNOWN_POLICY"
	MissingCodename Code = "MISSING_CODENAME"
)

var messages = map[Code]string{
	NoData: `No data found for codename %s. Perhaps a typo or the page layout changed too much?`,

	UnknownLayout: `Unknown table layout %q

Known layouts:
  flash   version | flash | link | checksum
  legacy  version | link | checksum`,

	UnknownPolicy: `Unknown variant policy %q

Known policies:
  tag-shape  skip rows whose release tag has three or more periods
  carrier    skip rows whose version mentions a carrier marker
  none       take the selected row as-is`,

	MissingCodename: `Missing codename

Usage:
  otawatch check --name walleye`,
}

func Msg(code Code, a ...any) string {
	msg := messages[code]
	if msg == "" {
		msg = string(code)
	}
	return fmt.Sprintf(msg, a...)
}
