package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chinjsg/csv-extractor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func minimalHeader() string {
	return strings.Join(domain.MinimalHeader(), ",")
}

func TestRun_ValidFile(t *testing.T) {
	path := writeFile(t,
		strings.Join(domain.FullHeader(), ","),
		"03-01-2022,,,,Singapore,2022-03-02 04:20:52,1.28,103.83,801292,939,,,Singapore,13696.26,0.117",
		"03-02-2022,,,,Singapore,2022-03-02T11:03:04,1.28,103.83,108,0,78,,,,",
	)

	var out bytes.Buffer
	assert.Equal(t, 0, run(path, &out))
	assert.NotContains(t, out.String(), "FAIL")
}

func TestRun_DetectsProblems(t *testing.T) {
	path := writeFile(t,
		minimalHeader(),
		"03-02-2022,Singapore,108,0,78,",
		"03-01-2022,Singapore,106,0,72,",
		"3/3/2022,Singapore,110,0,80,",
		"03-04-2022,Singapore,112",
	)

	var out bytes.Buffer
	assert.Equal(t, 1, run(path, &out))
	assert.Contains(t, out.String(), "[PASS] header matches a canonical schema")
	assert.Contains(t, out.String(), "[FAIL] dates are non-decreasing")
	assert.Contains(t, out.String(), `line 4: date "3/3/2022"`)
	assert.Contains(t, out.String(), "line 5: 3 fields, want 6")
}

func TestValidate_UnknownHeader(t *testing.T) {
	phases := validate([][]string{{"Date", "Country"}})
	assert.False(t, phases[0].passed())
}

func TestValidate_Empty(t *testing.T) {
	phases := validate(nil)
	assert.False(t, phases[0].passed())
}

func TestRun_MissingFile(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 1, run(filepath.Join(t.TempDir(), "none.csv"), &out))
	assert.Contains(t, out.String(), "FATAL")
}
