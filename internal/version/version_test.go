package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, Commit, info.Commit)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Contains(t, info.Platform, runtime.GOOS)
	assert.Contains(t, info.Platform, runtime.GOARCH)
}

func TestString(t *testing.T) {
	s := String()

	assert.True(t, strings.HasPrefix(s, ApplicationName+" version "))
	assert.Contains(t, s, Version)
}

func TestStringWithCommit(t *testing.T) {
	origCommit := Commit
	defer func() { Commit = origCommit }()

	Commit = "0123456789abcdef0123456789abcdef01234567"
	s := String()

	assert.Contains(t, s, "commit: 01234567")
}

func TestShort(t *testing.T) {
	origCommit := Commit
	defer func() { Commit = origCommit }()

	Commit = "unknown"
	assert.Equal(t, ApplicationName+" "+Version, Short())

	Commit = "0123456789abcdef0123456789abcdef01234567"
	assert.Equal(t, ApplicationName+" "+Version+" (01234567)", Short())
}
