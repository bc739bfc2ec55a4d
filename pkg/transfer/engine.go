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

// Package transfer copies or extracts transfer units and verifies each one by
// digesting the bytes read, writing them, and digesting them again from disk.
package transfer

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/verifycp/pkg/archive"
	"github.com/walteh/verifycp/pkg/checksum"
	"github.com/walteh/verifycp/pkg/resolve"
	"github.com/walteh/verifycp/pkg/unit"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🔧 Options configures the engine
type Options struct {
	FS   FileSystem // defaults to OSFileSystem
	Jobs int        // parallel plain-file transfers; <= 1 means sequential
}

// 🚚 Engine processes transfer units
type Engine struct {
	fs   FileSystem
	jobs int
}

// Sources looks up the archive a unit reads from
type Sources interface {
	Handle(archivePath string) (archive.Handle, bool)
}

// 🏭 New creates a new engine
func New(opts Options) *Engine {
	if opts.FS == nil {
		opts.FS = OSFileSystem{}
	}
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	return &Engine{fs: opts.FS, jobs: opts.Jobs}
}

// 🏃 Run transfers every unit of the plan and returns one result per unit
// processed, in resolution order. A failed unit never stops the run; only
// context cancellation does, and then the unprocessed units have no result.
func (e *Engine) Run(ctx context.Context, phase string, plan *resolve.Plan, obs Observer) []unit.IntegrityResult {
	if obs == nil {
		obs = NopObserver{}
	}
	logger := zerolog.Ctx(ctx)

	for _, dir := range append([]string{plan.Destination}, plan.Dirs...) {
		if err := e.fs.MkdirAll(dir, 0755); err != nil {
			// the units below it will report the failure
			logger.Warn().Err(err).Str("dir", dir).Msg("creating directory")
		}
	}

	// a handle serves one unit at a time
	concurrent := e.jobs > 1 && !plan.HasArchives()

	obs.Begin(phase, len(plan.Units), concurrent)
	defer obs.End(phase)

	if concurrent {
		return e.runConcurrent(ctx, phase, plan, obs)
	}
	return e.runSequential(ctx, phase, plan, obs)
}

func (e *Engine) runSequential(ctx context.Context, phase string, plan *resolve.Plan, obs Observer) []unit.IntegrityResult {
	total := len(plan.Units)
	results := make([]unit.IntegrityResult, 0, total)

	for i, u := range plan.Units {
		if ctx.Err() != nil {
			zerolog.Ctx(ctx).Warn().Int("remaining", total-i).Msg("run cancelled")
			break
		}

		obs.UnitStarted(Event{Phase: phase, Index: i, Completed: i, Total: total, Unit: u})
		res := e.Transfer(ctx, u, plan)
		results = append(results, res)
		obs.UnitCompleted(Event{Phase: phase, Index: i, Completed: i + 1, Total: total, Unit: u, Result: &res})
	}

	return results
}

func (e *Engine) runConcurrent(ctx context.Context, phase string, plan *resolve.Plan, obs Observer) []unit.IntegrityResult {
	total := len(plan.Units)
	slots := make([]*unit.IntegrityResult, total)

	var (
		mu        sync.Mutex
		completed int
		g         errgroup.Group
	)
	g.SetLimit(e.jobs)

	for i, u := range plan.Units {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			mu.Lock()
			obs.UnitStarted(Event{Phase: phase, Index: i, Completed: completed, Total: total, Unit: u})
			mu.Unlock()

			res := e.Transfer(ctx, u, plan)

			mu.Lock()
			slots[i] = &res
			completed++
			obs.UnitCompleted(Event{Phase: phase, Index: i, Completed: completed, Total: total, Unit: u, Result: &res})
			mu.Unlock()

			// failures are carried in the result, never through the group
			return nil
		})
	}
	_ = g.Wait()

	results := make([]unit.IntegrityResult, 0, total)
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results
}

// 📦 Transfer copies or extracts a single unit and verifies it
func (e *Engine) Transfer(ctx context.Context, u unit.TransferUnit, src Sources) unit.IntegrityResult {
	res := unit.IntegrityResult{Unit: u}
	logger := zerolog.Ctx(ctx).With().
		Str("source", u.Origin()).
		Str("destination", u.Destination).
		Str("kind", u.Kind.String()).
		Logger()

	reader, err := e.openSource(ctx, u, src)
	if err != nil {
		res.Err = &unit.ReadError{Source: u.Origin(), Err: err}
		logger.Error().Err(err).Msg("reading source")
		return res
	}
	defer reader.Close()

	sum, n, err := e.write(u.Origin(), u.Destination, reader)
	res.SourceChecksum = sum
	res.Bytes = n
	if err != nil {
		res.Err = err
		logger.Error().Err(err).Msg("writing destination")
		return res
	}

	verify, err := e.digest(u.Destination)
	if err != nil {
		res.Err = &unit.WriteError{Path: u.Destination, Err: errors.Errorf("re-reading destination: %w", err)}
		logger.Error().Err(err).Msg("verifying destination")
		return res
	}
	res.DestinationChecksum = verify
	res.Matched = sum == verify

	if !res.Matched {
		res.Err = &unit.IntegrityMismatchError{
			Path:                u.Destination,
			SourceChecksum:      sum,
			DestinationChecksum: verify,
		}
		logger.Warn().Str("source_sha256", sum).Str("destination_sha256", verify).Msg("checksum mismatch")
		return res
	}

	logger.Debug().Str("sha256", sum).Int64("bytes", n).Msg("transfer verified")
	return res
}

// openSource returns the bytes of a unit as a stream
func (e *Engine) openSource(ctx context.Context, u unit.TransferUnit, src Sources) (io.ReadCloser, error) {
	switch u.Kind {
	case unit.KindPlainFile:
		f, err := OSFileSystem{}.Open(u.Source)
		if err != nil {
			return nil, errors.Errorf("opening source: %w", err)
		}
		return f, nil
	case unit.KindArchiveEntry:
		if src == nil {
			return nil, errors.Errorf("no archive source for %s", u.Archive)
		}
		h, ok := src.Handle(u.Archive)
		if !ok {
			return nil, errors.Errorf("archive %s is not open", u.Archive)
		}
		data, err := h.ReadEntry(ctx, archive.Entry{Name: u.Source, Index: u.Entry})
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	default:
		return nil, errors.Errorf("unknown unit kind %d", u.Kind)
	}
}

// write streams r from origin into path, digesting the bytes as they are read. The
// returned error is a *unit.ReadError or *unit.WriteError.
func (e *Engine) write(origin, path string, r io.Reader) (string, int64, error) {
	if err := e.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", 0, &unit.WriteError{Path: path, Err: errors.Errorf("creating parent directories: %w", err)}
	}

	dst, err := e.fs.Create(path)
	if err != nil {
		return "", 0, &unit.WriteError{Path: path, Err: errors.Errorf("creating file: %w", err)}
	}

	hasher := checksum.NewHasher()
	src := &trackedReader{r: io.TeeReader(r, hasher)}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		if src.err != nil {
			return hasher.Sum(), hasher.Len(), &unit.ReadError{Source: origin, Err: errors.Errorf("reading source: %w", src.err)}
		}
		return hasher.Sum(), hasher.Len(), &unit.WriteError{Path: path, Err: errors.Errorf("copying content: %w", err)}
	}

	if err := dst.Sync(); err != nil {
		dst.Close()
		return hasher.Sum(), hasher.Len(), &unit.WriteError{Path: path, Err: errors.Errorf("syncing file: %w", err)}
	}
	if err := dst.Close(); err != nil {
		return hasher.Sum(), hasher.Len(), &unit.WriteError{Path: path, Err: errors.Errorf("closing file: %w", err)}
	}

	return hasher.Sum(), hasher.Len(), nil
}

// digest re-reads a written file through the destination filesystem
func (e *Engine) digest(path string) (string, error) {
	f, err := e.fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sum, _, err := checksum.Reader(f)
	return sum, err
}

// trackedReader remembers read-side failures so they are not blamed on the
// destination
type trackedReader struct {
	r   io.Reader
	err error
}

func (t *trackedReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.err = err
	}
	return n, err
}
