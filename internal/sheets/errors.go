package sheets

import (
	"errors"
	"fmt"
)

// Sentinel errors for credential material that fails normalization before it
// ever reaches the crypto layer.
var (
	// ErrKeyFormat reports a key without PEM BEGIN/END markers.
	ErrKeyFormat = errors.New("private key is missing PEM BEGIN/END markers")
	// ErrKeyTruncated reports a key whose base64 body is too short to be a
	// real RSA private key, which almost always means a cut-off paste.
	ErrKeyTruncated = errors.New("private key appears truncated")
)

// ValidationError reports a request that failed boundary validation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SigningError reports key material the crypto backend rejected.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("sign assertion: %v", e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// TokenExchangeError reports a non-success response from the OAuth token
// endpoint. Body carries the upstream response text verbatim for diagnostics.
type TokenExchangeError struct {
	Status int
	Body   string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("oauth token exchange failed: status=%d body=%s", e.Status, e.Body)
}

// UpstreamFetchError reports a non-success status from the spreadsheet values
// endpoint or the public CSV export endpoint. Message is the user-facing
// cause mapped from the status code.
type UpstreamFetchError struct {
	Status  int
	Message string
	Body    string
}

func (e *UpstreamFetchError) Error() string {
	return e.Message
}

// EmptyDataError reports a public export response too short to be real sheet
// data.
type EmptyDataError struct {
	Length int
}

func (e *EmptyDataError) Error() string {
	return fmt.Sprintf("no data found in spreadsheet: export body is %d bytes", e.Length)
}
