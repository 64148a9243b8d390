package gerrit

import (
	"fmt"
	"sync"
)

// FetchInfo is the JSON struct for a Gerrit FetchInfo.
type FetchInfo struct {
	URL string `json:"url"`
	Ref string `json:"ref"`
}

// RevisionInfo is the JSON struct for a Gerrit RevisionInfo.
type RevisionInfo struct {
	Number int                   `json:"_number,omitempty"`
	Ref    string                `json:"ref,omitempty"`
	Fetch  map[string]*FetchInfo `json:"fetch,omitempty"`
}

// ChangeInfo is the JSON struct for a Gerrit ChangeInfo, returned by a
// change query.
type ChangeInfo struct {
	ID              string                   `json:"id,omitempty"`
	Project         string                   `json:"project"`
	Branch          string                   `json:"branch,omitempty"`
	Topic           string                   `json:"topic,omitempty"`
	ChangeID        string                   `json:"change_id,omitempty"`
	Subject         string                   `json:"subject,omitempty"`
	Status          string                   `json:"status"`
	Number          int                      `json:"_number,omitempty"`
	CurrentRevision string                   `json:"current_revision,omitempty"`
	Revisions       map[string]*RevisionInfo `json:"revisions,omitempty"`
}

// CurrentFetchInfo returns the fetch info of the current revision for the
// given protocol, usually "http".
func (c *ChangeInfo) CurrentFetchInfo(protocol string) (*FetchInfo, error) {
	if c.CurrentRevision == "" {
		return nil, fmt.Errorf("%s: %w", c.Project, ErrNoCurrentRevision)
	}
	if len(c.Revisions) == 0 {
		return nil, fmt.Errorf("%s: %w", c.Project, ErrNoRevisions)
	}
	rev, ok := c.Revisions[c.CurrentRevision]
	if !ok || rev == nil {
		return nil, fmt.Errorf("%s: %s: %w", c.Project, c.CurrentRevision, ErrRevisionNotFound)
	}
	fi, ok := rev.Fetch[protocol]
	if !ok || fi == nil {
		return nil, fmt.Errorf("%s: %s: %w %q", c.Project, c.CurrentRevision, ErrNoFetchInfo, protocol)
	}
	return fi, nil
}

// ProjectTip is the newest revision of a project within a query result.
type ProjectTip struct {
	Project string `json:"project"`
	Commit  string `json:"commit"`
}

// ChangeInfos is the result of one change query. Changes holds the typed
// decode used for logic; Raw holds the same payload as a dynamic JSON tree
// so callers can print fields the typed decode drops.
//
// A ChangeInfos is read-only once built.
type ChangeInfos struct {
	Changes []ChangeInfo
	Raw     []any

	tipsOnce sync.Once
	tips     []ProjectTip
	tipIndex map[string]string
}

// NewChangeInfos returns a collection over changes and their raw payload.
func NewChangeInfos(changes []ChangeInfo, raw []any) *ChangeInfos {
	return &ChangeInfos{Changes: changes, Raw: raw}
}

// Len returns the number of changes.
func (c *ChangeInfos) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Changes)
}

// ProjectTips returns one tip per project in order of first appearance.
// Gerrit returns the newest change first, so the first change seen for a
// project is its tip. It returns nil for an empty collection.
//
// A change without a current revision still claims its project; the empty
// commit surfaces as an entity error when the tip is fetched.
func (c *ChangeInfos) ProjectTips() []ProjectTip {
	if c.Len() == 0 {
		return nil
	}
	c.tipsOnce.Do(func() {
		c.tipIndex = make(map[string]string)
		for _, ch := range c.Changes {
			if _, seen := c.tipIndex[ch.Project]; seen {
				continue
			}
			c.tipIndex[ch.Project] = ch.CurrentRevision
			c.tips = append(c.tips, ProjectTip{Project: ch.Project, Commit: ch.CurrentRevision})
		}
	})
	return c.tips
}

// ProjectTip returns the tip commit of project.
func (c *ChangeInfos) ProjectTip(project string) (string, bool) {
	if c.ProjectTips() == nil {
		return "", false
	}
	commit, ok := c.tipIndex[project]
	return commit, ok
}

// EntityFromCommit returns the change whose current revision is hash.
func (c *ChangeInfos) EntityFromCommit(hash string) (*ChangeInfo, error) {
	if hash == "" {
		return nil, ErrNoCurrentRevision
	}
	if c != nil {
		for i := range c.Changes {
			if c.Changes[i].CurrentRevision == hash {
				return &c.Changes[i], nil
			}
		}
	}
	return nil, fmt.Errorf("%s: %w", hash, ErrEntityNotFound)
}
