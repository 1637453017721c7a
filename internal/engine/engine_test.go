package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hermit-shells/hermit/internal/rules"
	"github.com/hermit-shells/hermit/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bucketPattern = `([A-Za-z0-9\-_.]+)\.s3\.amazonaws\.com`

func mustWrite(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func rule(id, pattern, severity string) *rules.Rule {
	return rules.MustNew(rules.Spec{ID: id, Pattern: pattern, Description: "desc " + id, CloudProvider: "TEST", Severity: severity})
}

// fixture mirrors a cache directory with one interesting file and one file
// over the size limit.
func fixture(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	mustWrite(t, dir, "test.txt", "hello world\nmybucket.s3.amazonaws.com/path\nno match here")
	f, err := os.Create(filepath.Join(dir, "large.txt"))
	require.NoError(t, err)
	require.NoError(t, f.Truncate(51<<20))
	require.NoError(t, f.Close())
	return dir
}

func TestScan_DetectsPattern(t *testing.T) {
	dir := fixture(t)
	fs, err := Scan(context.Background(), Config{Root: dir}, rules.RuleSet{rule("TEST.ID", bucketPattern, "LOW")})
	require.NoError(t, err)
	require.Len(t, fs, 1)

	f := fs[0]
	assert.Equal(t, filepath.Join(dir, "test.txt"), f.File)
	assert.Equal(t, 2, f.Line)
	assert.Equal(t, "mybucket.s3.amazonaws.com", f.Match)
	assert.Equal(t, "TEST.ID", f.RuleID)
	assert.Equal(t, "desc TEST.ID", f.Description)
	assert.Equal(t, types.SevLow, f.Severity)
}

func TestScan_SkipsLargeFiles(t *testing.T) {
	dir := fixture(t)
	res, err := ScanWithStats(context.Background(), Config{Root: dir}, rules.RuleSet{rule("ANY", `[\s\S]`, "LOW")})
	require.NoError(t, err)
	require.NotEmpty(t, res.Findings)
	for _, f := range res.Findings {
		assert.True(t, strings.HasSuffix(f.File, "test.txt"), "unexpected finding in %s", f.File)
	}
	assert.Equal(t, 1, res.SkippedLarge)
	assert.Equal(t, 1, res.FilesScanned)
}

func TestScan_MaxBytesBoundary(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "exact.txt", "abcd")
	mustWrite(t, dir, "over.txt", "abcde")
	fs, err := Scan(context.Background(), Config{Root: dir, MaxBytes: 4}, rules.RuleSet{rule("A", "a", "LOW")})
	require.NoError(t, err)
	require.Len(t, fs, 1)
	assert.Equal(t, filepath.Join(dir, "exact.txt"), fs[0].File)
}

func TestScan_OrderingAndNoDedup(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "a.txt", "x1.herokuapp.com y.s3.amazonaws.com x2.herokuapp.com\n\nz.s3.amazonaws.com\n")
	mustWrite(t, dir, "b/c.txt", "dup.herokuapp.com dup.herokuapp.com\n")

	rs := rules.RuleSet{
		rule("S3", `[a-z0-9]+\.s3\.amazonaws\.com`, "high"),
		rule("HEROKU", `[a-z0-9]+\.herokuapp\.com`, "medium"),
	}
	fs, err := Scan(context.Background(), Config{Root: dir}, rs)
	require.NoError(t, err)

	type got struct {
		file  string
		line  int
		rule  string
		match string
	}
	var actual []got
	for _, f := range fs {
		rel, _ := filepath.Rel(dir, f.File)
		actual = append(actual, got{filepath.ToSlash(rel), f.Line, f.RuleID, f.Match})
	}
	assert.Equal(t, []got{
		{"a.txt", 1, "S3", "y.s3.amazonaws.com"},
		{"a.txt", 1, "HEROKU", "x1.herokuapp.com"},
		{"a.txt", 1, "HEROKU", "x2.herokuapp.com"},
		{"a.txt", 3, "S3", "z.s3.amazonaws.com"},
		{"b/c.txt", 1, "HEROKU", "dup.herokuapp.com"},
		{"b/c.txt", 1, "HEROKU", "dup.herokuapp.com"},
	}, actual)
	assert.Equal(t, types.SevHigh, fs[0].Severity)
	assert.Equal(t, types.SevMed, fs[1].Severity)
}

func TestScan_IncludesHiddenEntries(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, ".hidden/config", "bucket.s3.amazonaws.com\n")
	mustWrite(t, dir, ".env", "OTHER=other.s3.amazonaws.com\n")
	fs, err := Scan(context.Background(), Config{Root: dir}, rules.RuleSet{rule("S3", bucketPattern, "LOW")})
	require.NoError(t, err)
	require.Len(t, fs, 2)
	assert.Equal(t, filepath.Join(dir, ".env"), fs[0].File)
	assert.Equal(t, filepath.Join(dir, ".hidden", "config"), fs[1].File)
}

func TestScan_SkipsSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := mustWrite(t, t.TempDir(), "outside.txt", "bucket.s3.amazonaws.com\n")
	if err := os.Symlink(target, filepath.Join(dir, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	fs, err := Scan(context.Background(), Config{Root: dir}, rules.RuleSet{rule("S3", bucketPattern, "LOW")})
	require.NoError(t, err)
	assert.Empty(t, fs)
}

func TestScan_SymlinkedRoot(t *testing.T) {
	realDir := t.TempDir()
	mustWrite(t, realDir, "test.txt", "hello world\nmybucket.s3.amazonaws.com/path\n")
	outside := mustWrite(t, t.TempDir(), "outside.txt", "other.s3.amazonaws.com\n")
	if err := os.Symlink(outside, filepath.Join(realDir, "nested-link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	link := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.Symlink(realDir, link))

	fs, err := Scan(context.Background(), Config{Root: link}, rules.RuleSet{rule("S3", bucketPattern, "HIGH")})
	require.NoError(t, err)
	require.Len(t, fs, 1, "nested symlinks stay skipped")
	assert.Equal(t, filepath.Join(link, "test.txt"), fs[0].File)
	assert.Equal(t, 2, fs[0].Line)
	assert.Equal(t, "mybucket.s3.amazonaws.com", fs[0].Match)

	n, err := CountTargets(context.Background(), Config{Root: link})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestScan_Latin1NextLineSplits(t *testing.T) {
	dir := t.TempDir()
	// 0x85 is NEL once decoded as ISO-8859-1; 0xff forces the fallback.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nel.txt"), []byte("\xffa\x85b.s3.amazonaws.com\n"), 0o644))
	fs, err := Scan(context.Background(), Config{Root: dir}, rules.RuleSet{rule("S3", bucketPattern, "LOW")})
	require.NoError(t, err)
	require.Len(t, fs, 1)
	assert.Equal(t, 2, fs[0].Line)
	assert.Equal(t, "b.s3.amazonaws.com", fs[0].Match)
}

func TestScan_Latin1Fallback(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "legacy.txt")
	require.NoError(t, os.WriteFile(p, []byte("line one\nhost caf\xe9-assets here\n"), 0o644))
	fs, err := Scan(context.Background(), Config{Root: dir}, rules.RuleSet{rule("CAFE", `café-[a-z]+`, "LOW")})
	require.NoError(t, err)
	require.Len(t, fs, 1)
	assert.Equal(t, 2, fs[0].Line)
	assert.Equal(t, "café-assets", fs[0].Match)
}

func TestScan_UniversalNewlines(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "mixed.txt", "a.s3.amazonaws.com\r\nb.s3.amazonaws.com\rc.s3.amazonaws.com\n")
	fs, err := Scan(context.Background(), Config{Root: dir}, rules.RuleSet{rule("S3", bucketPattern, "LOW")})
	require.NoError(t, err)
	require.Len(t, fs, 3)
	for i, f := range fs {
		assert.Equal(t, i+1, f.Line)
		assert.NotContains(t, f.Match, "\r")
	}
}

func TestScan_ParallelMatchesSequential(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 40; i++ {
		var b strings.Builder
		for l := 0; l < i%7+1; l++ {
			fmt.Fprintf(&b, "ref-%d-%d.s3.amazonaws.com app%d.herokuapp.com\n", i, l, l)
		}
		mustWrite(t, dir, fmt.Sprintf("d%d/f%02d.txt", i%4, i), b.String())
	}
	rs := rules.RuleSet{
		rule("HEROKU", `[a-z0-9]+\.herokuapp\.com`, "MEDIUM"),
		rule("S3", bucketPattern, "HIGH"),
	}
	seq, err := Scan(context.Background(), Config{Root: dir}, rs)
	require.NoError(t, err)
	par, err := Scan(context.Background(), Config{Root: dir, Threads: 8}, rs)
	require.NoError(t, err)
	require.NotEmpty(t, seq)
	assert.Equal(t, seq, par)
}

func TestScan_Globs(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "a.txt", "a.s3.amazonaws.com")
	mustWrite(t, dir, "b.tf", "b.s3.amazonaws.com")
	mustWrite(t, dir, "sub/c.md", "c.s3.amazonaws.com")
	rs := rules.RuleSet{rule("S3", bucketPattern, "LOW")}

	fs, err := Scan(context.Background(), Config{Root: dir, IncludeGlobs: "**/*.tf"}, rs)
	require.NoError(t, err)
	require.Len(t, fs, 1)
	assert.Equal(t, "b.s3.amazonaws.com", fs[0].Match)

	fs, err = Scan(context.Background(), Config{Root: dir, ExcludeGlobs: "*.md, *.tf"}, rs)
	require.NoError(t, err)
	require.Len(t, fs, 1)
	assert.Equal(t, "a.s3.amazonaws.com", fs[0].Match)
}

func TestScan_EmptyRuleSetOrTree(t *testing.T) {
	dir := t.TempDir()
	fs, err := Scan(context.Background(), Config{Root: dir}, rules.RuleSet{rule("S3", bucketPattern, "LOW")})
	require.NoError(t, err)
	assert.NotNil(t, fs)
	assert.Empty(t, fs)

	mustWrite(t, dir, "a.txt", "a.s3.amazonaws.com")
	fs, err = Scan(context.Background(), Config{Root: dir}, nil)
	require.NoError(t, err)
	assert.Empty(t, fs)
}

func TestScan_BadRoot(t *testing.T) {
	dir := t.TempDir()
	_, err := Scan(context.Background(), Config{Root: filepath.Join(dir, "missing")}, nil)
	assert.Error(t, err)

	file := mustWrite(t, dir, "file.txt", "x")
	_, err = Scan(context.Background(), Config{Root: file}, nil)
	assert.ErrorContains(t, err, "not a directory")
}

func TestScan_Cancelled(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "a.txt", "a.s3.amazonaws.com")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Scan(ctx, Config{Root: dir}, rules.RuleSet{rule("S3", bucketPattern, "LOW")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScan_UnreadableFileIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	dir := t.TempDir()
	p := mustWrite(t, dir, "locked.txt", "a.s3.amazonaws.com")
	mustWrite(t, dir, "open.txt", "b.s3.amazonaws.com")
	require.NoError(t, os.Chmod(p, 0))
	t.Cleanup(func() { _ = os.Chmod(p, 0o644) })

	res, err := ScanWithStats(context.Background(), Config{Root: dir}, rules.RuleSet{rule("S3", bucketPattern, "LOW")})
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "b.s3.amazonaws.com", res.Findings[0].Match)
	assert.Equal(t, 1, res.SkippedUnreadable)
}

func TestCountTargets(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "a.txt", "x")
	mustWrite(t, dir, "b/c.go", "x")
	mustWrite(t, dir, ".git/config", "x")
	n, err := CountTargets(context.Background(), Config{Root: dir})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = CountTargets(context.Background(), Config{Root: dir, IncludeGlobs: "**/*.go"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
