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

package unit

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// 🚫 ResolutionError aborts the whole run: there is nothing to transfer
type ResolutionError struct {
	Origin string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s: %v", e.Origin, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// 💾 WriteError means the destination of a single unit could not be written
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// 📥 ReadError means the source of a single unit could not be read
type ReadError struct {
	Source string
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Source, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ⚠️ IntegrityMismatchError means the bytes on disk differ from the bytes read.
// The destination file is left in place.
type IntegrityMismatchError struct {
	Path                string
	SourceChecksum      string
	DestinationChecksum string
}

func (e *IntegrityMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: source %s, destination %s",
		e.Path, short(e.SourceChecksum), short(e.DestinationChecksum))
}

// 🔀 NameCollisionError records a flattened name that was already taken.
// The later entry is written to Assigned instead.
type NameCollisionError struct {
	Entry    string // entry name inside the archive
	Name     string // flattened name that collided
	Assigned string // name actually used
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("name collision for %s: %s already taken, using %s", e.Entry, e.Name, e.Assigned)
}

// 🏷️ ErrorKind names the failure class of err for summaries and reports
func ErrorKind(err error) string {
	var (
		resolution *ResolutionError
		write      *WriteError
		read       *ReadError
		mismatch   *IntegrityMismatchError
		collision  *NameCollisionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &mismatch):
		return "IntegrityMismatchError"
	case errors.As(err, &write):
		return "WriteError"
	case errors.As(err, &read):
		return "ReadError"
	case errors.As(err, &collision):
		return "NameCollisionError"
	case errors.As(err, &resolution):
		return "ResolutionError"
	default:
		return "Error"
	}
}

func short(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
