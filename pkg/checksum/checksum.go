// Package checksum computes the SHA-256 digests used to verify transfers.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"

	"gitlab.com/tozd/go/errors"
)

const bufferSize = 1024 * 1024 // 1MB

// Empty is the digest of zero bytes
const Empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// Reader calculates the SHA-256 checksum of everything r yields
func Reader(r io.Reader) (string, int64, error) {
	h := NewHasher()
	n, err := io.CopyBuffer(h, r, make([]byte, bufferSize))
	if err != nil {
		return "", n, errors.Errorf("read: %w", err)
	}
	return h.Sum(), n, nil
}

// Bytes calculates the SHA-256 checksum of b
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Hasher is an io.Writer that digests whatever passes through it
type Hasher struct {
	hash hash.Hash
	n    int64
}

// NewHasher creates a new Hasher
func NewHasher() *Hasher {
	return &Hasher{hash: sha256.New()}
}

// Write implements io.Writer
func (h *Hasher) Write(p []byte) (int, error) {
	n, err := h.hash.Write(p)
	h.n += int64(n)
	return n, err
}

// Sum returns the hex digest of the bytes written so far
func (h *Hasher) Sum() string {
	return hex.EncodeToString(h.hash.Sum(nil))
}

// Len returns the number of bytes digested so far
func (h *Hasher) Len() int64 {
	return h.n
}
