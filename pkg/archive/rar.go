package archive

import (
	"context"
	"io"
	"os"

	"github.com/mholt/archives"
	"github.com/nwaples/rardecode/v2"
	"gitlab.com/tozd/go/errors"
)

// 📚 rarHandle reads RAR archives. RAR is a sequential format, so reads keep a
// cursor into the stream; reading entries in archive order decodes each entry
// exactly once.
type rarHandle struct {
	path   string
	file   *os.File
	format archives.Rar
	cursor *rardecode.Reader
	pos    int // index of the next header the cursor yields
}

func newRarHandle(path string, f *os.File) *rarHandle {
	return &rarHandle{path: path, file: f}
}

func (r *rarHandle) Format() Format { return FormatRar }

func (r *rarHandle) Path() string { return r.path }

func (r *rarHandle) Entries(ctx context.Context) ([]Entry, error) {
	if err := r.rewind(); err != nil {
		return nil, err
	}
	// the listing pass moves the file offset; the cursor must restart
	defer func() { r.cursor = nil }()

	var entries []Entry
	err := r.format.Extract(ctx, r.file, func(ctx context.Context, f archives.FileInfo) error {
		entries = append(entries, Entry{
			Name:  f.NameInArchive,
			Index: len(entries),
			Size:  f.Size(),
			IsDir: f.IsDir(),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("listing rar entries: %w", err)
	}
	return entries, nil
}

func (r *rarHandle) ReadEntry(ctx context.Context, e Entry) ([]byte, error) {
	if e.Index < 0 {
		return nil, errors.Errorf("%s: %w", e.Name, ErrEntryNotFound)
	}
	// entries behind the cursor need a fresh pass from the start
	if r.cursor == nil || e.Index < r.pos {
		if err := r.reset(); err != nil {
			return nil, err
		}
	}

	data, err := r.seek(ctx, e)
	if err != nil {
		r.cursor = nil
		if errors.Is(err, ErrEntryNotFound) {
			return nil, errors.Errorf("%s: %w", e.Name, err)
		}
		return nil, err
	}
	return data, nil
}

// seek advances the cursor to e.Index and reads the entry there
func (r *rarHandle) seek(ctx context.Context, e Entry) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hdr, err := r.cursor.Next()
		if err == io.EOF {
			return nil, ErrEntryNotFound
		}
		if err != nil {
			return nil, errors.Errorf("reading rar header: %w", err)
		}

		at := r.pos
		r.pos++
		if at < e.Index {
			continue
		}
		if hdr.IsDir || hdr.Name != e.Name {
			return nil, ErrEntryNotFound
		}

		data, err := io.ReadAll(r.cursor)
		if err != nil {
			return nil, errors.Errorf("reading entry %s: %w", e.Name, err)
		}
		return data, nil
	}
}

func (r *rarHandle) rewind() error {
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return errors.Errorf("rewinding archive: %w", err)
	}
	return nil
}

func (r *rarHandle) reset() error {
	if err := r.rewind(); err != nil {
		return err
	}
	rr, err := rardecode.NewReader(r.file)
	if err != nil {
		return errors.Errorf("opening rar stream: %w", err)
	}
	r.cursor, r.pos = rr, 0
	return nil
}

func (r *rarHandle) Close() error {
	r.cursor = nil
	return r.file.Close()
}
