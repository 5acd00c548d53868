package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommitPrefersLdflags(t *testing.T) {
	old := GitCommit
	t.Cleanup(func() { GitCommit = old })

	GitCommit = "abc1234"
	assert.Equal(t, "abc1234", Commit())
	assert.Contains(t, String(), Version)
	assert.Contains(t, String(), "abc1234")
}
