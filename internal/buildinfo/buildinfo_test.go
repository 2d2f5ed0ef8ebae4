package buildinfo

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetails(t *testing.T) {
	d := Details()
	assert.Len(t, d, 4)
	assert.Equal(t, "Commit", d[0].Label)
	assert.Equal(t, CommitHash, d[0].Value)
	assert.Equal(t, runtime.Version(), d[3].Value)
}
