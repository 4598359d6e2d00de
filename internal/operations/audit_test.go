package operations

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog_Log(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "code_log.txt")
	clock := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.Local)

	audit := NewAuditLog(path, discardLogger()).WithClock(func() time.Time { return clock })
	require.NoError(t, audit.Log(MessagePreliminaries))

	clock = clock.Add(90 * time.Second)
	require.NoError(t, audit.Log(MessageComplete))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"2024-Mar-05-14:07:09 : Preliminaries complete. Initiating ETL process\n"+
			"2024-Mar-05-14:08:39 : Process Complete.\n",
		string(data))
}

func TestAuditLog_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "code_log.txt")
	require.NoError(t, os.WriteFile(path, []byte("earlier run\n"), 0644))

	require.NoError(t, NewAuditLog(path, discardLogger()).Log("again"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "earlier run\n")
	assert.Regexp(t, `\n\d{4}-[A-Z][a-z]{2}-\d{2}-\d{2}:\d{2}:\d{2} : again\n$`, string(data))
}

func TestAuditLog_UnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	err := NewAuditLog(filepath.Join(blocker, "code_log.txt"), discardLogger()).Log("x")
	assert.Error(t, err)
}
