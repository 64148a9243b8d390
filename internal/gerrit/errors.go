package gerrit

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Entity errors. They are fatal to the fetch of one project only.
var (
	ErrEntityNotFound    = errors.New("no change with that current revision")
	ErrNoCurrentRevision = errors.New("change has no current revision")
	ErrNoRevisions       = errors.New("change has no revisions")
	ErrRevisionNotFound  = errors.New("revision not found in change")
	ErrNoFetchInfo       = errors.New("revision has no fetch info for protocol")
)

// TransportError is an HTTP error response served by Gerrit.
type TransportError struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *TransportError) Error() string {
	if e.StatusCode == http.StatusNotFound {
		return fmt.Sprintf("%s: not found on Gerrit server", e.URL)
	}
	extra := strings.TrimSpace(e.Body)
	if extra != "" {
		extra = ": " + extra
	}
	return fmt.Sprintf("%s: %s%s", e.URL, e.Status, extra)
}

// DecodeError reports a response body that does not have the shape of a
// list of changes. Body holds the raw response for diagnosis.
type DecodeError struct {
	Body string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed changes response: %v: %s", e.Err, e.Body)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
