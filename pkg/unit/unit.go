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

// Package unit holds the data passed between the resolver, the transfer
// engine and the reporter.
package unit

import (
	"path/filepath"
)

// 📦 Kind says where the bytes of a unit come from
type Kind int

const (
	KindPlainFile    Kind = iota // a regular file on disk
	KindArchiveEntry             // an entry inside a ZIP or RAR archive
)

// String returns a string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindPlainFile:
		return "plain_file"
	case KindArchiveEntry:
		return "archive_entry"
	default:
		return "unknown"
	}
}

// 🎯 TransferUnit maps one source to one destination file.
// Units are values; nothing mutates them after resolution.
type TransferUnit struct {
	Source      string // file path, or entry name for archive entries
	Archive     string // archive path, empty for plain files
	Destination string // absolute destination file path
	Kind        Kind
	Entry       int // position of the entry in its archive listing
}

// 🔍 Origin is the human-readable source of the unit
func (u TransferUnit) Origin() string {
	if u.Kind == KindArchiveEntry {
		return filepath.Base(u.Archive) + ":" + u.Source
	}
	return u.Source
}

// 📊 IntegrityResult is produced once per unit after the transfer finished
type IntegrityResult struct {
	Unit                TransferUnit
	SourceChecksum      string // hex SHA-256 of the bytes read
	DestinationChecksum string // hex SHA-256 of the bytes re-read from disk
	Matched             bool
	Bytes               int64
	Err                 error // unit-level failure, nil on success
}

// ✅ OK reports whether the unit succeeded. A result without a checksum match
// is never OK, even when no error was recorded.
func (r IntegrityResult) OK() bool {
	return r.Err == nil && r.Matched
}
