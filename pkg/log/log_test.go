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

package log

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/verifycp/pkg/checksum"
	"github.com/walteh/verifycp/pkg/unit"
)

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "log_unit",
			op: func(t *testing.T, logger *Logger) {
				logger.LogUnit(unit.IntegrityResult{
					Unit:                unit.TransferUnit{Source: "/src/a.txt", Destination: "/dst/a.txt"},
					SourceChecksum:      checksum.Empty,
					DestinationChecksum: checksum.Empty,
					Matched:             true,
					Bytes:               12,
				})
			},
			wantLogs: []string{
				"✓ /src/a.txt                          → /dst/a.txt                          12 B       match e3b0c44298fc",
			},
		},
		{
			name: "log_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("info message")
				logger.Warning("warning message")
				logger.Error("error message")
				logger.Success("success message")
			},
			wantLogs: []string{
				"ℹ️  info message",
				"⚠️  warning message",
				"❌ error message",
				"✅ success message",
			},
		},
		{
			name: "log_formatted_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Infof("info %s", "test")
				logger.Warningf("warning %s", "test")
				logger.Errorf("error %s", "test")
				logger.Successf("success %s", "test")
			},
			wantLogs: []string{
				"ℹ️  info test",
				"⚠️  warning test",
				"❌ error test",
				"✅ success test",
			},
		},
		{
			name: "log_header",
			op: func(t *testing.T, logger *Logger) {
				logger.Header("extracting pack.zip")
			},
			wantLogs: []string{
				"verifycp • extracting pack.zip",
			},
		},
		{
			name: "log_newline",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("first")
				logger.LogNewline()
				logger.Info("second")
			},
			wantLogs: []string{
				"ℹ️  first",
				"",
				"ℹ️  second",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create buffer for console output
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.New(zerolog.NewTestWriter(t)))

			// Perform operation
			tt.op(t, logger)

			// Check output
			output := strings.TrimSpace(buf.String())
			lines := strings.Split(output, "\n")

			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match")
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, strings.TrimSpace(lines[i]), "log line %d should match", i)
			}
		})
	}
}

func TestUnitFormatting(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name string
		res  unit.IntegrityResult
		want string
	}{
		{
			name: "verified_plain_file",
			res: unit.IntegrityResult{
				Unit:                unit.TransferUnit{Source: "/src/a.txt", Destination: "/dst/a.txt", Kind: unit.KindPlainFile},
				SourceChecksum:      checksum.Empty,
				DestinationChecksum: checksum.Empty,
				Matched:             true,
				Bytes:               12,
			},
			want: "✓ /src/a.txt                          → /dst/a.txt                          12 B       match e3b0c44298fc",
		},
		{
			name: "mismatched_archive_entry",
			res: unit.IntegrityResult{
				Unit:                unit.TransferUnit{Source: "docs/b.bin", Archive: "/src/pack.zip", Destination: "/dst/docs/b.bin", Kind: unit.KindArchiveEntry},
				SourceChecksum:      strings.Repeat("a", 64),
				DestinationChecksum: strings.Repeat("b", 64),
				Bytes:               2048,
				Err: &unit.IntegrityMismatchError{
					Path:                "/dst/docs/b.bin",
					SourceChecksum:      strings.Repeat("a", 64),
					DestinationChecksum: strings.Repeat("b", 64),
				},
			},
			want: "≠ pack.zip:docs/b.bin                 → /dst/docs/b.bin                     2.0 kB     MISMATCH aaaaaaaaaaaa != bbbbbbbbbbbb",
		},
		{
			name: "write_failure",
			res: unit.IntegrityResult{
				Unit: unit.TransferUnit{Source: "/src/c.txt", Destination: "/dst/c.txt", Kind: unit.KindPlainFile},
				Err:  &unit.WriteError{Path: "/dst/c.txt", Err: os.ErrPermission},
			},
			want: "✗ /src/c.txt                          → /dst/c.txt                          0 B        WriteError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatUnit(tt.res)
			assert.True(t, strings.HasPrefix(got, "    "), "unit lines should be indented")
			assert.Equal(t, tt.want, strings.TrimSpace(got), "formatted output should match")
		})
	}
}

func TestSetup(t *testing.T) {
	buf := &bytes.Buffer{}

	logger := Setup(buf, false)
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	logger = Setup(buf, true)
	logger.Debug().Msg("now visible")
	assert.Contains(t, buf.String(), "now visible")
}
