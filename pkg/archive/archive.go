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

// Package archive opens ZIP and RAR files read-only and exposes their entries.
//
// Both formats implement Handle. The variant is picked once from the file
// extension; after that callers only see the capability set: list the entries,
// read the bytes of one entry. A Handle is not safe for concurrent use.
package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 📦 Format identifies an archive variant
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatRar
)

// String returns a string representation of Format
func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatRar:
		return "rar"
	default:
		return "unknown"
	}
}

// 📄 Entry is one item listed from an archive
type Entry struct {
	Name  string // name exactly as stored in the archive
	Index int    // position in the listing; names may repeat, positions don't
	Size  int64
	IsDir bool
}

// 🗄️ Handle is an open archive
type Handle interface {
	// Format returns the archive variant
	Format() Format
	// Path returns the archive file path
	Path() string
	// Entries lists every entry in archive order
	Entries(ctx context.Context) ([]Entry, error)
	// ReadEntry returns the full content of the entry at e.Index. The name
	// must match what the listing reported at that position.
	ReadEntry(ctx context.Context, e Entry) ([]byte, error)
	// Close releases the underlying file
	Close() error
}

// ErrEntryNotFound is returned by ReadEntry for entries the archive does not hold
var ErrEntryNotFound = errors.Base("entry not found")

// 🔍 FormatOf picks the variant from the file extension
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return FormatZip
	case ".rar":
		return FormatRar
	default:
		return FormatUnknown
	}
}

// IsArchive reports whether path names a supported archive
func IsArchive(path string) bool {
	return FormatOf(path) != FormatUnknown
}

// 🏭 Open opens the archive at path read-only
func Open(path string) (Handle, error) {
	format := FormatOf(path)
	if format == FormatUnknown {
		return nil, errors.Errorf("unsupported archive format: %s", filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening archive: %w", err)
	}

	switch format {
	case FormatZip:
		return newZipHandle(path, f), nil
	default:
		return newRarHandle(path, f), nil
	}
}
