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

// Package testutils builds filesystem and archive fixtures for tests.
package testutils

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// 📄 File is one fixture entry. Names ending in "/" are directories.
type File struct {
	Name    string
	Content []byte
}

// 🌳 WriteTree creates the given files below root, making parent directories
func WriteTree(t testing.TB, root string, files ...File) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f.Name))
		if strings.HasSuffix(f.Name, "/") {
			require.NoError(t, os.MkdirAll(path, 0755), "creating directory %s", f.Name)
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755), "creating parent of %s", f.Name)
		require.NoError(t, os.WriteFile(path, f.Content, 0644), "writing %s", f.Name)
	}
}

// 🗜️ WriteZip writes a deflated ZIP archive holding files to path
func WriteZip(t testing.TB, path string, files ...File) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		method := zip.Deflate
		if strings.HasSuffix(f.Name, "/") {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: method})
		require.NoError(t, err, "creating zip entry %s", f.Name)
		_, err = w.Write(f.Content)
		require.NoError(t, err, "writing zip entry %s", f.Name)
	}
	require.NoError(t, zw.Close(), "closing zip writer")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644), "writing zip archive")
}

// 📚 WriteRar writes a RAR 1.5 archive with stored (uncompressed) entries to path
func WriteRar(t testing.TB, path string, files ...File) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, RarBytes(files...), 0644), "writing rar archive")
}

const (
	rarBlockArchive = 0x73
	rarBlockFile    = 0x74
	rarBlockEnd     = 0x7b

	rarHasData   = 0x8000
	rarDirectory = 0x00e0

	rarHostUnix    = 3
	rarMethodStore = 0x30
	rarVersion     = 20
	rarDosEpoch    = 0x00210000 // 1980-01-01 00:00
)

// RarBytes encodes files as a RAR 1.5 archive using the store method
func RarBytes(files ...File) []byte {
	le := binary.LittleEndian
	var buf bytes.Buffer

	buf.Write([]byte("Rar!\x1a\x07\x00"))
	writeRarBlock(&buf, rarBlockArchive, 0, make([]byte, 6))

	for _, f := range files {
		name := strings.TrimSuffix(f.Name, "/")
		flags := uint16(rarHasData)
		attr := uint32(0o100644)
		content := f.Content
		if strings.HasSuffix(f.Name, "/") {
			flags |= rarDirectory
			attr = 0o040755
			content = nil
		}

		var body bytes.Buffer
		_ = binary.Write(&body, le, uint32(len(content))) // packed size
		_ = binary.Write(&body, le, uint32(len(content))) // unpacked size
		body.WriteByte(rarHostUnix)
		_ = binary.Write(&body, le, crc32.ChecksumIEEE(content))
		_ = binary.Write(&body, le, uint32(rarDosEpoch))
		body.WriteByte(rarVersion)
		body.WriteByte(rarMethodStore)
		_ = binary.Write(&body, le, uint16(len(name)))
		_ = binary.Write(&body, le, attr)
		body.WriteString(name)

		writeRarBlock(&buf, rarBlockFile, flags, body.Bytes())
		buf.Write(content)
	}

	writeRarBlock(&buf, rarBlockEnd, 0, nil)
	return buf.Bytes()
}

// writeRarBlock writes a block header; the CRC covers everything after itself
func writeRarBlock(buf *bytes.Buffer, kind byte, flags uint16, body []byte) {
	le := binary.LittleEndian
	hdr := make([]byte, 7)
	hdr[2] = kind
	le.PutUint16(hdr[3:], flags)
	le.PutUint16(hdr[5:], uint16(len(hdr)+len(body)))

	crc := crc32.NewIEEE()
	crc.Write(hdr[2:])
	crc.Write(body)
	le.PutUint16(hdr[0:], uint16(crc.Sum32()))

	buf.Write(hdr)
	buf.Write(body)
}
