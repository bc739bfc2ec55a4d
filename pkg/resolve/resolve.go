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

// Package resolve turns an origin path into the ordered list of transfer units.
//
// Resolution only reads. It never creates the destination or writes anything;
// a failed resolution leaves the filesystem untouched.
package resolve

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/verifycp/pkg/archive"
	"github.com/walteh/verifycp/pkg/unit"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Options configures a resolution
type Options struct {
	Origin       string   // file, directory or archive to transfer
	Destination  string   // destination directory
	SingleFolder bool     // flatten archive entries into Destination
	Excludes     []string // doublestar patterns on slash-separated relative paths
	Namer        *Namer   // optional; shared to keep flattened names unique across plans
}

// 🔍 Resolve builds the plan for opts.Origin
func Resolve(ctx context.Context, opts Options) (*Plan, error) {
	logger := zerolog.Ctx(ctx)

	origin, err := filepath.Abs(opts.Origin)
	if err != nil {
		return nil, fail(opts.Origin, errors.Errorf("getting absolute origin path: %w", err))
	}
	dest, err := filepath.Abs(opts.Destination)
	if err != nil {
		return nil, fail(origin, errors.Errorf("getting absolute destination path: %w", err))
	}

	info, err := os.Stat(origin)
	if err != nil {
		return nil, fail(origin, errors.Errorf("stat origin: %w", err))
	}

	if dinfo, err := os.Stat(dest); err == nil && !dinfo.IsDir() {
		return nil, fail(origin, errors.Errorf("destination %s is a file, expected a directory", dest))
	} else if err != nil && !os.IsNotExist(err) {
		return nil, fail(origin, errors.Errorf("stat destination: %w", err))
	}

	r := &resolver{
		origin:   origin,
		dest:     dest,
		excludes: opts.Excludes,
		single:   opts.SingleFolder,
		namer:    opts.Namer,
		plan:     newPlan(origin, dest),
	}
	if r.namer == nil {
		r.namer = NewNamer()
	}

	switch {
	case info.IsDir():
		logger.Debug().Str("origin", origin).Msg("resolving directory")
		err = r.directory()
	case !info.Mode().IsRegular():
		err = errors.Errorf("unsupported file type %s", info.Mode().Type())
	case archive.IsArchive(origin):
		logger.Debug().Str("origin", origin).Bool("single_folder", r.single).Msg("resolving archive")
		err = r.archive(ctx)
	default:
		logger.Debug().Str("origin", origin).Msg("resolving file")
		err = r.file()
	}
	if err != nil {
		r.plan.Close()
		return nil, fail(origin, err)
	}

	logger.Debug().
		Int("units", len(r.plan.Units)).
		Int("dirs", len(r.plan.Dirs)).
		Int("collisions", len(r.plan.Collisions)).
		Msg("resolved plan")

	return r.plan, nil
}

type resolver struct {
	origin   string
	dest     string
	excludes []string
	single   bool
	namer    *Namer
	plan     *Plan
}

// 📄 file resolves a single regular non-archive file
func (r *resolver) file() error {
	f, err := os.Open(r.origin)
	if err != nil {
		return errors.Errorf("opening origin: %w", err)
	}
	f.Close()

	target := filepath.Join(r.dest, filepath.Base(r.origin))
	if target == r.origin {
		return errors.Errorf("origin and destination are the same file")
	}

	r.plan.Units = append(r.plan.Units, unit.TransferUnit{
		Source:      r.origin,
		Destination: target,
		Kind:        unit.KindPlainFile,
	})
	return nil
}

// 📁 directory resolves every file below the origin directory
func (r *resolver) directory() error {
	if within(r.origin, r.dest) {
		return errors.Errorf("destination %s is inside the origin directory", r.dest)
	}

	err := filepath.WalkDir(r.origin, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == r.origin {
			return nil
		}

		rel, err := filepath.Rel(r.origin, p)
		if err != nil {
			return errors.Errorf("getting relative path: %w", err)
		}

		if isExcluded(r.excludes, filepath.ToSlash(rel), d.IsDir()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		target := filepath.Join(r.dest, rel)

		if d.IsDir() {
			r.plan.Dirs = append(r.plan.Dirs, target)
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			// links to directories are not followed
			info, err := os.Stat(p)
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		r.plan.Units = append(r.plan.Units, unit.TransferUnit{
			Source:      p,
			Destination: target,
			Kind:        unit.KindPlainFile,
		})
		return nil
	})
	if err != nil {
		return errors.Errorf("walking directory: %w", err)
	}
	return nil
}

// 🗜️ archive resolves the entries of a ZIP or RAR origin
func (r *resolver) archive(ctx context.Context) error {
	h, err := archive.Open(r.origin)
	if err != nil {
		return err
	}
	r.plan.addHandle(h)

	entries, err := h.Entries(ctx)
	if err != nil {
		return err
	}

	for _, e := range entries {
		name, ok := cleanEntryName(e.Name)
		if !ok {
			return errors.Errorf("unsafe entry path %q", e.Name)
		}
		if name == "." || isExcluded(r.excludes, name, e.IsDir) {
			continue
		}

		if e.IsDir {
			if !r.single {
				r.plan.Dirs = append(r.plan.Dirs, filepath.Join(r.dest, filepath.FromSlash(name)))
			}
			continue
		}

		var target string
		if r.single {
			base := path.Base(name)
			assigned, renamed := r.namer.Assign(r.dest, base)
			if renamed {
				r.plan.Collisions = append(r.plan.Collisions, &unit.NameCollisionError{
					Entry:    e.Name,
					Name:     base,
					Assigned: assigned,
				})
			}
			target = filepath.Join(r.dest, assigned)
		} else {
			target = filepath.Join(r.dest, filepath.FromSlash(name))
		}

		if target == r.origin {
			return errors.Errorf("entry %q would overwrite the archive itself", e.Name)
		}

		r.plan.Units = append(r.plan.Units, unit.TransferUnit{
			Source:      e.Name,
			Archive:     r.origin,
			Destination: target,
			Kind:        unit.KindArchiveEntry,
			Entry:       e.Index,
		})
	}
	return nil
}

// cleanEntryName normalises an archive entry name and rejects names that
// would land outside the destination root
func cleanEntryName(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(name, "/") {
		return "", false
	}
	clean := path.Clean(strings.TrimSuffix(name, "/"))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	return clean, true
}

// isExcluded checks if a relative path matches any exclude pattern.
// A pattern ending in "/" matches a directory and everything below it.
func isExcluded(patterns []string, rel string, isDir bool) bool {
	for _, pattern := range patterns {
		if dirPattern, ok := strings.CutSuffix(pattern, "/"); ok {
			parts := strings.Split(rel, "/")
			last := len(parts)
			if !isDir {
				last-- // the file name itself is not a directory
			}
			for i := 1; i <= last; i++ {
				if matched, _ := doublestar.Match(dirPattern, strings.Join(parts[:i], "/")); matched {
					return true
				}
			}
			continue
		}
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// within reports whether p is root or below it
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func fail(origin string, err error) error {
	var re *unit.ResolutionError
	if errors.As(err, &re) {
		return err
	}
	return &unit.ResolutionError{Origin: origin, Err: err}
}
