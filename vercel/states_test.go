package vercel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadyStateClassification(t *testing.T) {
	cases := map[ReadyState]struct {
		terminal  bool
		succeeded bool
	}{
		ReadyStateInitializing: {terminal: false},
		ReadyStateBuilding:     {terminal: false},
		ReadyStateUploading:    {terminal: false},
		ReadyStateDeploying:    {terminal: false},
		ReadyStateQueued:       {terminal: true, succeeded: true},
		ReadyStateReady:        {terminal: true, succeeded: true},
		ReadyStateArchived:     {terminal: true},
		ReadyStateError:        {terminal: true},
		ReadyStateCanceled:     {terminal: true},
	}

	// every member of the enumeration must be classified
	require.Len(t, cases, len(ReadyStates()))

	for _, state := range ReadyStates() {
		c, ok := cases[state]
		require.True(t, ok, "state %s has no expectation", state)
		t.Run(string(state), func(t *testing.T) {
			assert.True(t, state.Known())
			assert.Equal(t, c.terminal, state.IsTerminal())
			assert.Equal(t, !c.terminal, state.InProgress())
			assert.Equal(t, c.succeeded, state.Succeeded())
		})
	}
}

func TestUnknownReadyState(t *testing.T) {
	state := ReadyState("WARMING")
	assert.False(t, state.Known())
	assert.False(t, state.IsTerminal())
	assert.False(t, state.InProgress())

	_, err := ParseReadyState("WARMING")
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "build.readyState", perr.Field)
	assert.Contains(t, err.Error(), "WARMING")

	got, err := ParseReadyState(" ready ")
	require.NoError(t, err)
	assert.Equal(t, ReadyStateReady, got)
}

func TestDeploymentStatus(t *testing.T) {
	for _, state := range []DeploymentState{"", DeploymentBuilding, DeploymentError, DeploymentInitializing, DeploymentQueued, DeploymentReady, DeploymentCanceled} {
		d := Deployment{State: state}
		got, err := d.Status()
		require.NoError(t, err)
		assert.Equal(t, state, got)
	}

	d := Deployment{State: "DELETED"}
	_, err := d.Status()
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "deployment.state", perr.Field)
	assert.Contains(t, err.Error(), listDeploymentsDoc)
}

func TestDeploymentCommitSHA(t *testing.T) {
	cases := map[string]struct {
		meta map[string]string
		want string
	}{
		"github":        {meta: map[string]string{"githubCommitSha": "abc"}, want: "abc"},
		"gitlab":        {meta: map[string]string{"gitlabCommitSha": "def"}, want: "def"},
		"bitbucket":     {meta: map[string]string{"bitbucketCommitSha": "123"}, want: "123"},
		"github first":  {meta: map[string]string{"githubCommitSha": "abc", "gitlabCommitSha": "def"}, want: "abc"},
		"no git source": {meta: nil, want: ""},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			d := Deployment{Meta: c.meta}
			assert.Equal(t, c.want, d.CommitSHA())
		})
	}
}

func TestPaginationNextCursor(t *testing.T) {
	cases := map[string]struct {
		body    string
		want    *int64
		wantErr bool
	}{
		"number":       {body: `{"count":20,"next":1690000000,"prev":null}`, want: ptr(int64(1690000000))},
		"float number": {body: `{"count":20,"next":1.69e9,"prev":null}`, want: ptr(int64(1690000000))},
		"fractional":   {body: `{"count":20,"next":1.5,"prev":null}`, wantErr: true},
		"out of range": {body: `{"count":20,"next":1e300,"prev":null}`, wantErr: true},
		"null":         {body: `{"count":0,"next":null,"prev":null}`},
		"absent":       {body: `{"count":0}`},
		"string":       {body: `{"count":1,"next":"1690000000"}`, wantErr: true},
		"boolean":      {body: `{"count":1,"next":false}`, wantErr: true},
		"object":       {body: `{"count":1,"next":{"until":1}}`, wantErr: true},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			var p Pagination
			require.NoError(t, json.Unmarshal([]byte(c.body), &p))

			got, err := p.NextCursor()
			if c.wantErr {
				var perr *ProtocolError
				require.ErrorAs(t, err, &perr)
				assert.Contains(t, err.Error(), "null or number")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
