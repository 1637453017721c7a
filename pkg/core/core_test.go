package core

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_Smoke(t *testing.T) {
	rs, err := LoadRules("")
	require.NoError(t, err)
	require.NotZero(t, rs.Len())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hosts"), []byte("x\nmy-app.herokuapp.com\n"), 0o644))
	findings, err := Scan(context.Background(), Config{Root: dir}, rs)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].Line)
	assert.Equal(t, 1, ExitCode(findings, "low"))
	assert.Equal(t, 0, ExitCode(findings, ""))
}

func TestParseRules(t *testing.T) {
	rs, err := ParseRules("inline", []byte("- id: A\n  pattern: a+\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, rs.IDs())

	_, err = ParseRules("inline", []byte("- pattern: a\n"))
	var le *LoadError
	assert.ErrorAs(t, err, &le)
}

func TestMarshalRoundTrip(t *testing.T) {
	in := []Finding{{File: "f", Line: 3, Match: "m", RuleID: "R", Description: "d", Severity: "HIGH"}}
	var buf bytes.Buffer
	require.NoError(t, MarshalFindings(&buf, in))
	out, err := UnmarshalFindings(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, "dir", in))
	out, err = UnmarshalFindings(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	buf.Reset()
	require.NoError(t, MarshalFindings(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
