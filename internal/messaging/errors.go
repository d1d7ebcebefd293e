package messaging

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

const usageHelp = "verify TELSTRA_CLIENT_ID and TELSTRA_CLIENT_SECRET, or sign up for an API key at https://dev.telstra.com"

// AuthenticationError is returned when the token endpoint does not yield an
// access token.
type AuthenticationError struct {
	Cause error
}

func (e *AuthenticationError) Error() string {
	if e.Cause == nil {
		return "the Telstra API did not return an access token: " + usageHelp
	}
	return fmt.Sprintf("the Telstra API did not return an access token (%v): %s", e.Cause, usageHelp)
}

func (e *AuthenticationError) Unwrap() error { return e.Cause }

// TransportError wraps network level failures: DNS, refused connections and
// timeouts.
type TransportError struct {
	Step string
	URL  string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request to %s failed: %v", e.Step, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteServiceError is returned when the remote server responds with a
// non-2xx status.
type RemoteServiceError struct {
	URL        string
	Status     string
	StatusCode int
	Body       string
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("http status response from %s: %s", e.URL, e.Status)
}

// UnsupportedMediaError is returned when an MMS payload is not a recognised
// image, audio or video format.
type UnsupportedMediaError struct {
	Detected string
}

func (e *UnsupportedMediaError) Error() string {
	if e.Detected == "" {
		return "unsupported media: could not determine content type"
	}
	return fmt.Sprintf("unsupported media: detected %s", e.Detected)
}

func IsAuthentication(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}

func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

func IsUnsupportedMedia(err error) bool {
	var target *UnsupportedMediaError
	return errors.As(err, &target)
}

func IsRemoteService(err error) bool {
	var target *RemoteServiceError
	return errors.As(err, &target)
}
