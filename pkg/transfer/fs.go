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

package transfer

import (
	"io"
	"os"
)

// 💾 FileSystem is the destination side of a transfer
type FileSystem interface {
	MkdirAll(path string, perm os.FileMode) error
	Create(path string) (WritableFile, error)
	Open(path string) (io.ReadCloser, error)
}

// WritableFile is a destination file open for writing
type WritableFile interface {
	io.Writer
	Sync() error
	Close() error
}

// OSFileSystem writes to the local disk
type OSFileSystem struct{}

func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (OSFileSystem) Create(path string) (WritableFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (OSFileSystem) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}
