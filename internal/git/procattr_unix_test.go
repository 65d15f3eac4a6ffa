//go:build unix

package git

import (
	"testing"

	"github.com/pders01/git-closest/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestCommandsRunInOwnProcessGroup(t *testing.T) {
	repo := testutil.NewTempGitRepo(t)
	defer repo.Cleanup()

	r := Open(repo.Path)
	cmd := r.command("rev-parse", "HEAD")
	require.NotNil(t, cmd.SysProcAttr)
	require.True(t, cmd.SysProcAttr.Setpgid)

	head, err := r.CurrentCommit()
	require.NoError(t, err)
	require.Equal(t, repo.Head(), head)
}
