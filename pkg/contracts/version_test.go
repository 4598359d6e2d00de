package contracts

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, APIVersion, info.APIVersion)
}

func TestVersionStrings(t *testing.T) {
	assert.Equal(t, "Largest Banks ETL v"+Version, GetVersionString())
	assert.True(t, strings.HasPrefix(GetFullVersionString(), GetVersionString()+" (built: "))
	assert.True(t, IsStable())
}
