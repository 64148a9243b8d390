package gerrit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoChanges = `[
  {
    "id": "demo~master~I0123",
    "project": "demo",
    "branch": "master",
    "topic": "feature",
    "status": "NEW",
    "subject": "Add demo",
    "_number": 1234,
    "current_revision": "abc123",
    "revisions": {
      "abc123": {
        "_number": 1,
        "fetch": {
          "http": {"url": "http://gerrit/demo", "ref": "refs/changes/34/1234/1"}
        },
        "commit": {"subject": "Add demo"}
      }
    },
    "owner": {"_account_id": 1000}
  }
]`

// fakeGerrit serves canned change query replies and records requests.
type fakeGerrit struct {
	mu       sync.Mutex
	status   int
	body     string
	requests []*http.Request
}

func (g *fakeGerrit) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, r)
	if g.status != 0 {
		w.WriteHeader(g.status)
	}
	if g.body != "" {
		w.Write([]byte(g.body))
	}
}

func (g *fakeGerrit) last(t *testing.T) *http.Request {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	require.NotEmpty(t, g.requests, "no request reached the server")
	return g.requests[len(g.requests)-1]
}

func newFakeGerrit(t *testing.T, status int, body string) (*fakeGerrit, *httptest.Server) {
	t.Helper()
	g := &fakeGerrit{status: status, body: body}
	server := httptest.NewServer(g)
	t.Cleanup(server.Close)
	return g, server
}

func TestChanges(t *testing.T) {
	g, server := newFakeGerrit(t, http.StatusOK, xssiPrefix+"\n"+demoChanges)
	client := NewClient(server.URL+"/", 0)

	infos, err := client.Changes(context.Background(),
		[]string{"topic:feature", "status:open"},
		[]string{"CURRENT_REVISION"},
		Credentials{})
	require.NoError(t, err)

	req := g.last(t)
	assert.Equal(t, "/changes/", req.URL.Path)
	assert.Equal(t, "pp=0&q=topic:feature+status:open&o=CURRENT_REVISION", req.URL.RawQuery)
	_, _, hasAuth := req.BasicAuth()
	assert.False(t, hasAuth)

	require.Equal(t, 1, infos.Len())
	c := infos.Changes[0]
	assert.Equal(t, "demo", c.Project)
	assert.Equal(t, "feature", c.Topic)
	assert.Equal(t, "abc123", c.CurrentRevision)
	assert.Equal(t, "refs/changes/34/1234/1", c.Revisions["abc123"].Fetch["http"].Ref)

	// The raw tree keeps fields the typed decode drops.
	require.Len(t, infos.Raw, 1)
	raw, ok := infos.Raw[0].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, raw, "owner")
}

func TestChangesAuthenticated(t *testing.T) {
	g, server := newFakeGerrit(t, http.StatusOK, xssiPrefix+"\n[]")
	client := NewClient(server.URL, 0)

	infos, err := client.Changes(context.Background(), []string{"topic:x"}, nil,
		Credentials{Username: "gopher", Password: "PASSWORD"})
	require.NoError(t, err)
	assert.Equal(t, 0, infos.Len())

	req := g.last(t)
	assert.Equal(t, "/a/changes/", req.URL.Path)
	user, pass, ok := req.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "gopher", user)
	assert.Equal(t, "PASSWORD", pass)
}

func TestChangesPartialCredentialsStayAnonymous(t *testing.T) {
	g, server := newFakeGerrit(t, http.StatusOK, "[]")
	client := NewClient(server.URL, 0)

	_, err := client.Changes(context.Background(), nil, nil, Credentials{Username: "gopher"})
	require.NoError(t, err)
	assert.Equal(t, "/changes/", g.last(t).URL.Path)
}

func TestChangesCredentialsDoNotCarryOver(t *testing.T) {
	g, server := newFakeGerrit(t, http.StatusOK, "[]")
	client := NewClient(server.URL, 0)
	ctx := context.Background()

	_, err := client.Changes(ctx, nil, nil, Credentials{Username: "gopher", Password: "PASSWORD"})
	require.NoError(t, err)
	assert.Equal(t, "/a/changes/", g.last(t).URL.Path)

	_, err = client.Changes(ctx, nil, nil, Credentials{})
	require.NoError(t, err)
	req := g.last(t)
	assert.Equal(t, "/changes/", req.URL.Path)
	_, _, ok := req.BasicAuth()
	assert.False(t, ok)
}

func TestChangesEmptyBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no content", body: ""},
		{name: "only xssi line", body: xssiPrefix + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, server := newFakeGerrit(t, http.StatusOK, tt.body)
			infos, err := NewClient(server.URL, 0).Changes(context.Background(), []string{"topic:x"}, nil, Credentials{})
			require.NoError(t, err)
			assert.Equal(t, 0, infos.Len())
			assert.Nil(t, infos.ProjectTips())
		})
	}
}

func TestChangesDecodeError(t *testing.T) {
	body := `{"project": "not a list"}`
	_, server := newFakeGerrit(t, http.StatusOK, xssiPrefix+"\n"+body)

	_, err := NewClient(server.URL, 0).Changes(context.Background(), nil, nil, Credentials{})
	require.Error(t, err)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, body, decodeErr.Body)
	assert.Contains(t, err.Error(), body)
}

func TestChangesTransportError(t *testing.T) {
	_, server := newFakeGerrit(t, http.StatusUnauthorized, "Unauthorized")

	_, err := NewClient(server.URL, 0).Changes(context.Background(), nil, nil, Credentials{})
	require.Error(t, err)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusUnauthorized, transportErr.StatusCode)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestChangesUnreachable(t *testing.T) {
	_, err := NewClient("http://localhost:99999", 0).Changes(context.Background(), nil, nil, Credentials{})
	assert.Error(t, err)
}

func TestStripXSSI(t *testing.T) {
	assert.Equal(t, []byte("[]"), stripXSSI([]byte(")]}'\n[]")))
	assert.Equal(t, []byte("[]"), stripXSSI([]byte("[]")))
	assert.Nil(t, stripXSSI([]byte(")]}'")))
}
