// Package remote maps git remote URLs to Gerrit project names.
package remote

import "strings"

const gitSuffix = ".git"

// ProjectNameFromURL returns the last "/"-separated segment of a remote URL,
// which is how Gerrit names the project behind it. It returns false when
// the URL has no "/" at all.
func ProjectNameFromURL(url string) (string, bool) {
	i := strings.LastIndex(url, "/")
	if i < 0 {
		return "", false
	}
	// "http://host/demo/" names demo.
	if i == len(url)-1 {
		return ProjectNameFromURL(url[:i])
	}
	return url[i+1:], true
}

// Matches reports whether a remote URL points at the Gerrit project. Remotes
// are configured both with and without a ".git" suffix, so both forms match.
// The whole project path has to close the URL path, so "platform/demo" is
// served by ".../platform/demo.git" but not by ".../vendor/demo".
func Matches(url, project string) bool {
	if _, ok := ProjectNameFromURL(url); !ok || project == "" {
		return false
	}
	path := strings.TrimSuffix(strings.TrimRight(url, "/"), gitSuffix)
	project = strings.Trim(project, "/")

	if path == project {
		return true
	}
	// scp-like remotes separate host and path with ':'
	return strings.HasSuffix(path, "/"+project) || strings.HasSuffix(path, ":"+project)
}
