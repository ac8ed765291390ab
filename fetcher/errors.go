package fetcher

import (
	"errors"
	"fmt"
)

// Reason classifies why a fetch failed
type Reason int

const (
	// NetworkFailure covers transport errors: DNS, refused connections, timeouts, bad URLs
	NetworkFailure Reason = iota + 1
	// NonOkStatus means the server answered with something other than 200
	NonOkStatus
	// AuthElementNotFound means the login form fields were not on the login page
	AuthElementNotFound
	// DriverLaunchFailure means the browser could not be started or connected to
	DriverLaunchFailure
	// LoginRejected means the form was submitted but the session never left the login page
	LoginRejected
	// NavigationTimeout means the target page did not become ready in time
	NavigationTimeout
)

func (r Reason) String() string {
	switch r {
	case NetworkFailure:
		return "network_failure"
	case NonOkStatus:
		return "non_ok_status"
	case AuthElementNotFound:
		return "auth_element_not_found"
	case DriverLaunchFailure:
		return "driver_launch_failure"
	case LoginRejected:
		return "login_rejected"
	case NavigationTimeout:
		return "navigation_timeout"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Status is the operator-facing description of the failure
func (r Reason) Status() string {
	switch r {
	case NetworkFailure:
		return "site unreachable"
	case NonOkStatus:
		return "site returned an error status"
	case AuthElementNotFound:
		return "login form not found"
	case DriverLaunchFailure:
		return "browser could not be started"
	case LoginRejected:
		return "login failed"
	case NavigationTimeout:
		return "page did not become ready"
	default:
		return "fetch failed"
	}
}

// FetchError is returned by every Fetcher when no document could be retrieved
type FetchError struct {
	Reason     Reason
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("failed to fetch %s: %s", e.URL, e.Reason.Status())
	if e.Reason == NonOkStatus {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ReasonOf extracts the failure reason from err, or 0 when err is not a FetchError
func ReasonOf(err error) Reason {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return 0
}

func newError(reason Reason, url string, err error) *FetchError {
	return &FetchError{Reason: reason, URL: url, Err: err}
}
