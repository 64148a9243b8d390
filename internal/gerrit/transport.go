package gerrit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// xssiPrefix is the line Gerrit puts in front of every JSON response.
const xssiPrefix = ")]}'"

// Response is a raw Gerrit response. Body is nil when the server sent no
// content.
type Response struct {
	Status int
	Body   []byte
}

// Transport performs GET requests against a Gerrit server.
type Transport interface {
	// SetCredentials sets the login for later requests. Empty values make
	// them anonymous again.
	SetCredentials(username, password string)
	// Get requests path with the raw query string and returns the body
	// with the anti-XSSI prefix removed.
	Get(ctx context.Context, path, rawQuery string) (*Response, error)
}

// HTTPTransport is a Transport over net/http.
type HTTPTransport struct {
	baseURL  string
	client   *http.Client
	username string
	password string
}

// NewHTTPTransport returns a transport for the Gerrit server at baseURL,
// for example "http://localhost:8080/gerrit/". A zero timeout means none.
func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (t *HTTPTransport) SetCredentials(username, password string) {
	t.username = username
	t.password = password
}

func (t *HTTPTransport) authenticated() bool {
	return t.username != "" && t.password != ""
}

// Get implements Transport. Authenticated requests go to the /a/ endpoint
// with basic auth; anonymous requests see public data only.
func (t *HTTPTransport) Get(ctx context.Context, path, rawQuery string) (*Response, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("malformed Gerrit API path %q", path)
	}
	if t.authenticated() {
		path = "/a" + path
	}
	url := t.baseURL + path
	if rawQuery != "" {
		url += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if t.authenticated() {
		req.SetBasicAuth(t.username, t.password)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Gerrit: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	body = stripXSSI(body)
	if len(bytes.TrimSpace(body)) == 0 {
		body = nil
	}
	return &Response{Status: resp.StatusCode, Body: body}, nil
}

func stripXSSI(body []byte) []byte {
	if !bytes.HasPrefix(body, []byte(xssiPrefix)) {
		return body
	}
	i := bytes.IndexByte(body, '\n')
	if i < 0 {
		return nil
	}
	return body[i+1:]
}
