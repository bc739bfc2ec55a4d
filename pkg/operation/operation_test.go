// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package operation_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/verifycp/pkg/config"
	"github.com/walteh/verifycp/pkg/log"
	"github.com/walteh/verifycp/pkg/operation"
	"github.com/walteh/verifycp/pkg/progress"
	"github.com/walteh/verifycp/pkg/testutils"
	"github.com/walteh/verifycp/pkg/transfer"
	"github.com/walteh/verifycp/pkg/unit"
)

// 🧪 createTestEnv creates a test environment
func createTestEnv(t *testing.T) (context.Context, string, *progress.Reporter, *bytes.Buffer) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	logger := zerolog.New(zerolog.NewTestWriter(t))
	ctx := logger.WithContext(context.Background())

	console := &bytes.Buffer{}
	reporter := progress.New(log.New(console, logger), progress.Options{Verbose: true})

	return ctx, t.TempDir(), reporter, console
}

func run(t *testing.T, ctx context.Context, cfg *config.Options, reporter operation.Reporter, fs transfer.FileSystem) (*operation.Outcome, error) {
	t.Helper()
	if cfg.Jobs == 0 {
		cfg.Jobs = 1
	}
	op, err := operation.New(operation.Options{Config: cfg, Reporter: reporter, FS: fs})
	require.NoError(t, err, "creating operator")
	return op.Run(ctx)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "reading %s", path)
	return string(data)
}

// 🧪 rottingFS appends a byte to everything read back from disk
type rottingFS struct{ transfer.OSFileSystem }

func (rottingFS) Open(path string) (io.ReadCloser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(append(data, 0))), nil
}

func TestNew(t *testing.T) {
	_, _, reporter, _ := createTestEnv(t)

	tests := []struct {
		name        string
		opts        operation.Options
		errContains string
	}{
		{name: "missing_config", opts: operation.Options{Reporter: reporter}, errContains: "config is required"},
		{name: "missing_reporter", opts: operation.Options{Config: &config.Options{Origin: "a", Destination: "b", Jobs: 1}}, errContains: "reporter is required"},
		{name: "invalid_config", opts: operation.Options{Config: &config.Options{Origin: "a", Destination: "b"}, Reporter: reporter}, errContains: "jobs must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := operation.New(tt.opts)
			require.Error(t, err)
			assert.Nil(t, op)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestCopyDirectory(t *testing.T) {
	ctx, dir, reporter, console := createTestEnv(t)

	const n = 5
	var files []testutils.File
	for i := 0; i < n; i++ {
		files = append(files, testutils.File{Name: fmt.Sprintf("docs/f%d.txt", i), Content: []byte(fmt.Sprintf("content %d", i))})
	}
	files = append(files, testutils.File{Name: "docs/skip.tmp", Content: []byte("excluded")})
	testutils.WriteTree(t, filepath.Join(dir, "src"), files...)

	cfg := &config.Options{
		Origin:      filepath.Join(dir, "src"),
		Destination: filepath.Join(dir, "dst"),
		Excludes:    []string{"**/*.tmp"},
	}
	outcome, err := run(t, ctx, cfg, reporter, nil)
	require.NoError(t, err)

	assert.Equal(t, operation.ExitOK, operation.ExitCode(outcome, err))
	assert.Equal(t, n, outcome.Summary.Total)
	assert.Equal(t, n, outcome.Summary.Succeeded)
	for i := 0; i < n; i++ {
		assert.Equal(t, fmt.Sprintf("content %d", i), readFile(t, filepath.Join(dir, "dst", "docs", fmt.Sprintf("f%d.txt", i))))
	}
	assert.NoFileExists(t, filepath.Join(dir, "dst", "docs", "skip.tmp"), "excluded files are never copied")
	assert.Contains(t, console.String(), "all 5 units verified")
}

func TestUnwritableDestinations(t *testing.T) {
	ctx, dir, reporter, console := createTestEnv(t)

	const n, m = 6, 2
	var files []testutils.File
	for i := 0; i < n; i++ {
		files = append(files, testutils.File{Name: fmt.Sprintf("f%d.txt", i), Content: []byte("payload")})
	}
	testutils.WriteTree(t, filepath.Join(dir, "src"), files...)

	// a directory squatting on the destination path cannot be opened for writing
	for i := 0; i < m; i++ {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "dst", fmt.Sprintf("f%d.txt", i*3)), 0755))
	}

	outcome, err := run(t, ctx, &config.Options{Origin: filepath.Join(dir, "src"), Destination: filepath.Join(dir, "dst"), Jobs: 3}, reporter, nil)
	require.NoError(t, err, "unit failures are not fatal")

	assert.Equal(t, operation.ExitFailed, operation.ExitCode(outcome, err))
	assert.Equal(t, n, outcome.Summary.Total)
	assert.Equal(t, n-m, outcome.Summary.Succeeded)
	require.Equal(t, m, outcome.Summary.Failed)
	for _, f := range outcome.Summary.Failures {
		var we *unit.WriteError
		assert.True(t, errors.As(f.Err, &we), "failure should be a WriteError, got %v", f.Err)
	}
	assert.Contains(t, console.String(), "2 of 6 units failed verification")
}

func TestNonexistentOrigin(t *testing.T) {
	ctx, dir, reporter, _ := createTestEnv(t)
	dst := filepath.Join(dir, "dst")

	outcome, err := run(t, ctx, &config.Options{Origin: filepath.Join(dir, "missing"), Destination: dst}, reporter, nil)
	require.Error(t, err)
	assert.Nil(t, outcome)

	var re *unit.ResolutionError
	assert.True(t, errors.As(err, &re), "error should be a ResolutionError, got %v", err)
	assert.Equal(t, operation.ExitFatal, operation.ExitCode(outcome, err))
	assert.NoDirExists(t, dst, "nothing is written when resolution fails")
}

func TestSingleFolderCollisions(t *testing.T) {
	ctx, dir, reporter, console := createTestEnv(t)
	testutils.WriteZip(t, filepath.Join(dir, "pack.zip"),
		testutils.File{Name: "a/x.txt", Content: []byte("from a")},
		testutils.File{Name: "b/x.txt", Content: []byte("from b")},
	)

	dst := filepath.Join(dir, "flat")
	outcome, err := run(t, ctx, &config.Options{Origin: filepath.Join(dir, "pack.zip"), Destination: dst, SingleFolder: true}, reporter, nil)
	require.NoError(t, err)

	assert.Equal(t, operation.ExitOK, operation.ExitCode(outcome, err), "collisions are warnings, not failures")
	assert.Equal(t, "from a", readFile(t, filepath.Join(dst, "x.txt")))
	assert.Equal(t, "from b", readFile(t, filepath.Join(dst, "x (1).txt")))
	require.Len(t, outcome.Collisions, 1)
	assert.Equal(t, "x (1).txt", outcome.Collisions[0].Assigned)
	assert.Contains(t, console.String(), "name collision for b/x.txt")
}

func TestSingleFolderDuplicateEntries(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		write func(t testing.TB, path string, files ...testutils.File)
	}{
		{name: "zip", file: "dupes.zip", write: testutils.WriteZip},
		{name: "rar", file: "dupes.rar", write: testutils.WriteRar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, dir, reporter, _ := createTestEnv(t)
			tt.write(t, filepath.Join(dir, tt.file),
				testutils.File{Name: "x.txt", Content: []byte("first")},
				testutils.File{Name: "x.txt", Content: []byte("second")},
			)

			dst := filepath.Join(dir, "flat")
			outcome, err := run(t, ctx, &config.Options{Origin: filepath.Join(dir, tt.file), Destination: dst, SingleFolder: true}, reporter, nil)
			require.NoError(t, err)

			assert.Equal(t, operation.ExitOK, operation.ExitCode(outcome, err))
			require.Len(t, outcome.Results, 2)
			assert.Equal(t, "first", readFile(t, filepath.Join(dst, "x.txt")), "first entry should keep its bytes")
			assert.Equal(t, "second", readFile(t, filepath.Join(dst, "x (1).txt")), "second entry should not be a copy of the first")
			assert.NotEqual(t, outcome.Results[0].SourceChecksum, outcome.Results[1].SourceChecksum, "each unit should digest its own entry")
			require.Len(t, outcome.Collisions, 1)
		})
	}
}

func TestRarExtraction(t *testing.T) {
	ctx, dir, reporter, _ := createTestEnv(t)
	testutils.WriteRar(t, filepath.Join(dir, "pack.rar"),
		testutils.File{Name: "r1.bin", Content: []byte{1, 2, 3}},
		testutils.File{Name: "r2.bin", Content: []byte{4, 5, 6, 7}},
	)

	dst := filepath.Join(dir, "fresh")
	outcome, err := run(t, ctx, &config.Options{Origin: filepath.Join(dir, "pack.rar"), Destination: dst}, reporter, nil)
	require.NoError(t, err)

	assert.Equal(t, operation.ExitOK, operation.ExitCode(outcome, err))
	require.Len(t, outcome.Results, 2)
	for _, res := range outcome.Results {
		assert.True(t, res.Matched)
		assert.Equal(t, res.SourceChecksum, res.DestinationChecksum)
	}
	assert.Equal(t, "\x01\x02\x03", readFile(t, filepath.Join(dst, "r1.bin")))
	assert.Equal(t, "\x04\x05\x06\x07", readFile(t, filepath.Join(dst, "r2.bin")))
}

func TestNestedExtraction(t *testing.T) {
	inner := testutils.RarBytes(
		testutils.File{Name: "deep/r1.bin", Content: []byte("inner one")},
		testutils.File{Name: "r2.bin", Content: []byte("inner two")},
	)

	tests := []struct {
		name         string
		singleFolder bool
		want         map[string]string
	}{
		{
			name: "structured",
			want: map[string]string{
				"sub/inner.rar":         string(inner),
				"sub/inner/deep/r1.bin": "inner one",
				"sub/inner/r2.bin":      "inner two",
				"top.txt":               "top",
			},
		},
		{
			name:         "single_folder",
			singleFolder: true,
			want: map[string]string{
				"inner.rar":          string(inner),
				"rar-content/r1.bin": "inner one",
				"rar-content/r2.bin": "inner two",
				"top.txt":            "top",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, dir, reporter, _ := createTestEnv(t)
			testutils.WriteZip(t, filepath.Join(dir, "outer.zip"),
				testutils.File{Name: "top.txt", Content: []byte("top")},
				testutils.File{Name: "sub/inner.rar", Content: inner},
			)

			dst := filepath.Join(dir, "out")
			outcome, err := run(t, ctx, &config.Options{
				Origin:       filepath.Join(dir, "outer.zip"),
				Destination:  dst,
				SingleFolder: tt.singleFolder,
				Nested:       true,
			}, reporter, nil)
			require.NoError(t, err)

			assert.Equal(t, operation.ExitOK, operation.ExitCode(outcome, err))
			assert.Equal(t, 4, outcome.Summary.Total, "two outer entries and two nested entries")
			for rel, content := range tt.want {
				assert.Equal(t, content, readFile(t, filepath.Join(dst, filepath.FromSlash(rel))), "content of %s", rel)
			}
		})
	}
}

func TestNestedDisabled(t *testing.T) {
	ctx, dir, reporter, _ := createTestEnv(t)
	testutils.WriteZip(t, filepath.Join(dir, "outer.zip"),
		testutils.File{Name: "inner.rar", Content: testutils.RarBytes(testutils.File{Name: "r1.bin", Content: []byte("x")})},
	)

	dst := filepath.Join(dir, "out")
	outcome, err := run(t, ctx, &config.Options{Origin: filepath.Join(dir, "outer.zip"), Destination: dst}, reporter, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Summary.Total)
	assert.NoDirExists(t, filepath.Join(dst, "inner"))
}

func TestIntegrityMismatch(t *testing.T) {
	ctx, dir, reporter, console := createTestEnv(t)
	testutils.WriteTree(t, filepath.Join(dir, "src"), testutils.File{Name: "a.bin", Content: []byte("abc")})

	dst := filepath.Join(dir, "dst")
	outcome, err := run(t, ctx, &config.Options{Origin: filepath.Join(dir, "src", "a.bin"), Destination: dst}, reporter, rottingFS{})
	require.NoError(t, err)

	assert.Equal(t, operation.ExitFailed, operation.ExitCode(outcome, err))
	require.Len(t, outcome.Summary.Failures, 1)
	assert.Equal(t, "IntegrityMismatchError", unit.ErrorKind(outcome.Summary.Failures[0].Err))
	assert.FileExists(t, filepath.Join(dst, "a.bin"), "mismatched files stay on disk")
	assert.Contains(t, console.String(), "MISMATCH")
}

func TestReport(t *testing.T) {
	ctx, dir, reporter, _ := createTestEnv(t)
	testutils.WriteTree(t, filepath.Join(dir, "src"), testutils.File{Name: "a.txt", Content: []byte("a")})

	reportPath := filepath.Join(dir, "reports", "run.json")
	outcome, err := run(t, ctx, &config.Options{
		Origin:      filepath.Join(dir, "src"),
		Destination: filepath.Join(dir, "dst"),
		ReportPath:  reportPath,
	}, reporter, nil)
	require.NoError(t, err)
	assert.Equal(t, operation.ExitOK, operation.ExitCode(outcome, err))

	data := readFile(t, reportPath)
	assert.Contains(t, data, `"succeeded": 1`)
	assert.Contains(t, data, `"kind": "plain_file"`)
}

func TestReportWriteFailure(t *testing.T) {
	ctx, dir, reporter, _ := createTestEnv(t)
	testutils.WriteTree(t, filepath.Join(dir, "src"), testutils.File{Name: "a.txt", Content: []byte("a")})

	// the report path is an existing directory
	reportPath := filepath.Join(dir, "taken.yaml")
	require.NoError(t, os.MkdirAll(reportPath, 0755))

	outcome, err := run(t, ctx, &config.Options{
		Origin:      filepath.Join(dir, "src"),
		Destination: filepath.Join(dir, "dst"),
		ReportPath:  reportPath,
	}, reporter, nil)
	require.Error(t, err)
	assert.NotNil(t, outcome, "the transfer outcome is kept")
	assert.Equal(t, operation.ExitFatal, operation.ExitCode(outcome, err))
}
