package archive

import (
	"context"
	"io"
	"io/fs"
	"os"

	"github.com/mholt/archives"
	"gitlab.com/tozd/go/errors"
)

// 🗜️ zipHandle reads ZIP archives through the central directory. The
// directory is walked once; every later read opens its entry by position.
type zipHandle struct {
	path    string
	file    *os.File
	format  archives.Zip
	entries []Entry
	opens   []func() (fs.File, error)
	indexed bool
}

func newZipHandle(path string, f *os.File) *zipHandle {
	return &zipHandle{path: path, file: f}
}

func (z *zipHandle) Format() Format { return FormatZip }

func (z *zipHandle) Path() string { return z.path }

// index walks the central directory on first use
func (z *zipHandle) index(ctx context.Context) error {
	if z.indexed {
		return nil
	}

	var (
		entries []Entry
		opens   []func() (fs.File, error)
	)
	err := z.format.Extract(ctx, z.file, func(ctx context.Context, f archives.FileInfo) error {
		entries = append(entries, Entry{
			Name:  f.NameInArchive,
			Index: len(entries),
			Size:  f.Size(),
			IsDir: f.IsDir(),
		})
		opens = append(opens, f.Open)
		return nil
	})
	if err != nil {
		return errors.Errorf("listing zip entries: %w", err)
	}

	z.entries, z.opens, z.indexed = entries, opens, true
	return nil
}

func (z *zipHandle) Entries(ctx context.Context) ([]Entry, error) {
	if err := z.index(ctx); err != nil {
		return nil, err
	}
	out := make([]Entry, len(z.entries))
	copy(out, z.entries)
	return out, nil
}

func (z *zipHandle) ReadEntry(ctx context.Context, e Entry) ([]byte, error) {
	if err := z.index(ctx); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if e.Index < 0 || e.Index >= len(z.entries) {
		return nil, errors.Errorf("%s: %w", e.Name, ErrEntryNotFound)
	}
	if got := z.entries[e.Index]; got.Name != e.Name || got.IsDir {
		return nil, errors.Errorf("%s: %w", e.Name, ErrEntryNotFound)
	}

	rc, err := z.opens[e.Index]()
	if err != nil {
		return nil, errors.Errorf("opening entry %s: %w", e.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Errorf("reading entry %s: %w", e.Name, err)
	}
	return data, nil
}

func (z *zipHandle) Close() error {
	z.opens = nil
	return z.file.Close()
}
