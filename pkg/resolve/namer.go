package resolve

import (
	"fmt"
	"path/filepath"
	"strings"
)

// 🔀 Namer hands out unique file names per directory for flattened
// extraction. The first entry keeps its name; later ones get " (n)" before
// the extension: x.txt, x (1).txt, x (2).txt.
type Namer struct {
	taken map[string]struct{}
}

// NewNamer creates an empty Namer
func NewNamer() *Namer {
	return &Namer{taken: make(map[string]struct{})}
}

// Assign reserves a free name for base inside dir. renamed is true when base
// itself was already taken.
func (n *Namer) Assign(dir, base string) (name string, renamed bool) {
	if n.reserve(dir, base) {
		return base, false
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		// dotfiles such as ".env" have no stem
		stem, ext = base, ""
	}

	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, i, ext)
		if n.reserve(dir, candidate) {
			return candidate, true
		}
	}
}

func (n *Namer) reserve(dir, name string) bool {
	key := filepath.Join(dir, name)
	if _, ok := n.taken[key]; ok {
		return false
	}
	n.taken[key] = struct{}{}
	return true
}
