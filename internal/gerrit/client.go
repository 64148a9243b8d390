package gerrit

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const changesPath = "/changes/"

// Credentials authenticate against Gerrit. Both fields must be set for a
// request to be authenticated.
type Credentials struct {
	Username string
	Password string
}

// IsSet reports whether both username and password are non-empty.
func (c Credentials) IsSet() bool {
	return c.Username != "" && c.Password != ""
}

// Client queries one Gerrit server.
type Client struct {
	transport Transport
}

// NewClient returns a client for the Gerrit server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithTransport(NewHTTPTransport(baseURL, timeout))
}

// NewClientWithTransport returns a client that sends requests through t.
func NewClientWithTransport(t Transport) *Client {
	return &Client{transport: t}
}

// ChangesQueryString returns the raw query string for a change query:
// pretty printing off, terms joined into q=, one o= per option.
func ChangesQueryString(terms []string, options []string) string {
	var sb strings.Builder
	sb.WriteString("pp=0&q=")
	sb.WriteString(BuildQuery(terms))
	for _, o := range options {
		sb.WriteString("&o=")
		sb.WriteString(o)
	}
	return sb.String()
}

// Changes runs a change query. Options such as "CURRENT_REVISION" ask Gerrit
// for additional fields. The call is authenticated only when creds is set.
// An empty response is an empty result, not an error. The call is not
// retried.
func (c *Client) Changes(ctx context.Context, terms []string, options []string, creds Credentials) (*ChangeInfos, error) {
	// credentials apply to this call only
	if creds.IsSet() {
		c.transport.SetCredentials(creds.Username, creds.Password)
	} else {
		c.transport.SetCredentials("", "")
	}

	query := ChangesQueryString(terms, options)
	log.Debug().Str("query", query).Bool("authenticated", creds.IsSet()).Msg("Querying Gerrit changes")

	resp, err := c.transport.Get(ctx, changesPath, query)
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return NewChangeInfos(nil, nil), nil
	}
	return DecodeChanges(resp.Body)
}

// DecodeChanges decodes a change query response body twice: into typed
// changes and into a dynamic tree. Both must succeed.
func DecodeChanges(body []byte) (*ChangeInfos, error) {
	var changes []ChangeInfo
	if err := json.Unmarshal(body, &changes); err != nil {
		return nil, &DecodeError{Body: string(body), Err: err}
	}
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &DecodeError{Body: string(body), Err: err}
	}
	log.Debug().Int("changes", len(changes)).Msg("Decoded Gerrit response")
	return NewChangeInfos(changes, raw), nil
}
