package gerrit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func change(project, rev, ref string) ChangeInfo {
	return ChangeInfo{
		Project:         project,
		Status:          "NEW",
		CurrentRevision: rev,
		Revisions: map[string]*RevisionInfo{
			rev: {Fetch: map[string]*FetchInfo{
				"http": {URL: "http://gerrit/" + project, Ref: ref},
			}},
		},
	}
}

func TestProjectTipsFirstEntityWins(t *testing.T) {
	infos := NewChangeInfos([]ChangeInfo{
		change("p", "newest", "refs/changes/02/2/1"),
		change("q", "other", "refs/changes/03/3/1"),
		change("p", "oldest", "refs/changes/01/1/1"),
	}, nil)

	tips := infos.ProjectTips()
	require.Len(t, tips, 2)
	assert.Equal(t, ProjectTip{Project: "p", Commit: "newest"}, tips[0])
	assert.Equal(t, ProjectTip{Project: "q", Commit: "other"}, tips[1])

	commit, ok := infos.ProjectTip("p")
	assert.True(t, ok)
	assert.Equal(t, "newest", commit)

	_, ok = infos.ProjectTip("missing")
	assert.False(t, ok)
}

func TestProjectTipsEmpty(t *testing.T) {
	assert.Nil(t, NewChangeInfos(nil, nil).ProjectTips())

	var infos *ChangeInfos
	assert.Nil(t, infos.ProjectTips())
	_, ok := infos.ProjectTip("p")
	assert.False(t, ok)
}

func TestEntityFromCommit(t *testing.T) {
	infos := NewChangeInfos([]ChangeInfo{
		change("p", "abc123", "refs/changes/34/1234/1"),
		change("q", "def456", "refs/changes/35/1235/1"),
	}, nil)

	entity, err := infos.EntityFromCommit("def456")
	require.NoError(t, err)
	assert.Equal(t, "q", entity.Project)

	_, err = infos.EntityFromCommit("0000000")
	assert.ErrorIs(t, err, ErrEntityNotFound)

	_, err = infos.EntityFromCommit("")
	assert.ErrorIs(t, err, ErrNoCurrentRevision)

	var empty *ChangeInfos
	_, err = empty.EntityFromCommit("abc123")
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestCurrentFetchInfo(t *testing.T) {
	good := change("demo", "abc123", "refs/changes/34/1234/1")
	fi, err := good.CurrentFetchInfo("http")
	require.NoError(t, err)
	assert.Equal(t, "refs/changes/34/1234/1", fi.Ref)

	tests := []struct {
		name   string
		change ChangeInfo
		want   error
		proto  string
	}{
		{
			name:   "no current revision",
			change: ChangeInfo{Project: "demo", Revisions: good.Revisions},
			want:   ErrNoCurrentRevision,
			proto:  "http",
		},
		{
			name:   "no revisions",
			change: ChangeInfo{Project: "demo", CurrentRevision: "abc123"},
			want:   ErrNoRevisions,
			proto:  "http",
		},
		{
			name:   "current revision missing from revisions",
			change: ChangeInfo{Project: "demo", CurrentRevision: "zzz", Revisions: good.Revisions},
			want:   ErrRevisionNotFound,
			proto:  "http",
		},
		{
			name:   "protocol missing",
			change: good,
			want:   ErrNoFetchInfo,
			proto:  "ssh",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.change.CurrentFetchInfo(tt.proto)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
