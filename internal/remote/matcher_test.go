package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectNameFromURL(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{url: "http://das/haus/vom/nikolause", want: "nikolause", wantOK: true},
		{url: "nikolause", wantOK: false},
		{url: "", wantOK: false},
		{url: "n/i/k/o/lause", want: "lause", wantOK: true},
		{url: "https://gerrit.example.com/demo.git", want: "demo.git", wantOK: true},
		{url: "https://gerrit.example.com/demo/", want: "demo", wantOK: true},
		{url: "/", wantOK: false},
		{url: "ssh://user@gerrit:29418/platform/demo", want: "demo", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := ProjectNameFromURL(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		project string
		want    bool
	}{
		{name: "bare name", url: "http://gerrit/demo", project: "demo", want: true},
		{name: "git suffix", url: "/srv/git/demo.git", project: "demo", want: true},
		{name: "nested project", url: "ssh://gerrit:29418/platform/demo", project: "platform/demo", want: true},
		{name: "other project", url: "http://gerrit/other", project: "demo", want: false},
		{name: "prefix is not a match", url: "http://gerrit/demo-tools", project: "demo", want: false},
		{name: "no slash", url: "demo", project: "demo", want: false},
		{name: "empty project", url: "http://gerrit/demo", project: "", want: false},
		{name: "trailing slash", url: "http://gerrit/demo.git/", project: "demo", want: true},
		{name: "nested project with git suffix", url: "https://gerrit/r/platform/demo.git", project: "platform/demo", want: true},
		{name: "same name in another namespace", url: "https://gerrit/vendor/demo", project: "platform/demo", want: false},
		{name: "nested remote for a flat project", url: "https://gerrit/platform/demo", project: "demo", want: true},
		{name: "partial namespace", url: "https://gerrit/xplatform/demo", project: "platform/demo", want: false},
		{name: "scp-like remote", url: "git@gerrit:platform/demo.git", project: "platform/demo", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.url, tt.project))
		})
	}
}
