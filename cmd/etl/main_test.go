package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankscli/internal/config"
	"bankscli/internal/infrastructure"
)

const document = `<table><tbody>
<tr><th>Rank</th><th>Bank name</th><th>Market cap</th></tr>
<tr><td>1</td><td><a href="#">x</a><a href="#">Bank A</a></td><td>100.00
</td></tr>
<tr><td>2</td><td><a href="#">x</a><a href="#">Bank B</a></td><td>200.00
</td></tr>
</tbody></table>`

func setupRun(t *testing.T) (dir string, args []string) {
	t.Helper()
	dir = t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "banks.html"), []byte(document), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rates.csv"), []byte("Currency,Rate\nGBP,0.8\nEUR,0.9\n"), 0644))

	t.Setenv("BANKS_LOGGING_OUTPUT", "file")
	t.Setenv("BANKS_LOGGING_FILE_PATH", filepath.Join(dir, "logs", "etl.log"))
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	return dir, []string{
		"-base-dir", dir,
		"-source-kind", "file",
		"-source", "banks.html",
		"-rates", "rates.csv",
		"-csv", "out/banks.csv",
		"-db", "out/Banks.db",
		"-currencies", "gbp, eur",
		"-threshold", "150",
		"-audit-log", "code_log.txt",
	}
}

func TestRun_Succeeds(t *testing.T) {
	dir, args := setupRun(t)

	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	csvData, err := os.ReadFile(filepath.Join(dir, "out", "banks.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"Name,MC_USD_Billion,MC_GBP_Billion,MC_EUR_Billion\nBank A,100,80,90\nBank B,200,160,180\n",
		string(csvData))

	assert.FileExists(t, filepath.Join(dir, "out", "Banks.db"))
	assert.FileExists(t, filepath.Join(dir, "code_log.txt"))

	out := stdout.String()
	assert.Contains(t, out, "Bank B")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "load_db")
}

func TestRun_FailsOnMissingRates(t *testing.T) {
	_, args := setupRun(t)
	args = append(args, "-rates", "absent.csv")

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run(args, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "RATE_SOURCE_UNAVAILABLE")
	assert.Contains(t, stdout.String(), "failed")
}

func TestRun_RejectsInvalidFlags(t *testing.T) {
	_, args := setupRun(t)

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run(append(args, "-source-kind", "ftp"), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "invalid flags")

	stderr.Reset()
	assert.Equal(t, 2, run([]string{"-threshold", "lots"}, &stdout, &stderr))
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"-version"}, &stdout, &stderr))
	assert.True(t, strings.HasPrefix(stdout.String(), "Largest Banks ETL v"+config.AppVersion))
}

func TestSplitCurrencies(t *testing.T) {
	assert.Equal(t, []string{"GBP", "EUR", "INR"}, splitCurrencies(" gbp,EUR,, inr "))
	assert.Nil(t, splitCurrencies(""))
}
