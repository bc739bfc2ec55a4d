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

// Package report writes a machine-readable record of a run.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/verifycp/pkg/config"
	"github.com/walteh/verifycp/pkg/unit"
)

// 📋 Report is the persisted outcome of one run
type Report struct {
	Origin       string      `json:"origin" yaml:"origin"`
	Destination  string      `json:"destination" yaml:"destination"`
	SingleFolder bool        `json:"single_folder" yaml:"single_folder"`
	Nested       bool        `json:"nested" yaml:"nested"`
	StartedAt    time.Time   `json:"started_at" yaml:"started_at"`
	FinishedAt   time.Time   `json:"finished_at" yaml:"finished_at"`
	Total        int         `json:"total" yaml:"total"`
	Succeeded    int         `json:"succeeded" yaml:"succeeded"`
	Failed       int         `json:"failed" yaml:"failed"`
	Bytes        int64       `json:"bytes" yaml:"bytes"`
	Units        []Entry     `json:"units" yaml:"units"`
	Collisions   []Collision `json:"collisions,omitempty" yaml:"collisions,omitempty"`
}

// 📄 Entry records one transfer unit
type Entry struct {
	Kind              string `json:"kind" yaml:"kind"`
	Source            string `json:"source" yaml:"source"`
	Archive           string `json:"archive,omitempty" yaml:"archive,omitempty"`
	Destination       string `json:"destination" yaml:"destination"`
	SourceSHA256      string `json:"source_sha256" yaml:"source_sha256"`
	DestinationSHA256 string `json:"destination_sha256" yaml:"destination_sha256"`
	Matched           bool   `json:"matched" yaml:"matched"`
	Bytes             int64  `json:"bytes" yaml:"bytes"`
	ErrorKind         string `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Error             string `json:"error,omitempty" yaml:"error,omitempty"`
}

// 🔀 Collision records a renamed archive entry
type Collision struct {
	Entry    string `json:"entry" yaml:"entry"`
	Name     string `json:"name" yaml:"name"`
	Assigned string `json:"assigned" yaml:"assigned"`
}

// 🏭 New builds a report from the results of a run
func New(opts config.Options, results []unit.IntegrityResult, collisions []*unit.NameCollisionError, started, finished time.Time) *Report {
	r := &Report{
		Origin:       opts.Origin,
		Destination:  opts.Destination,
		SingleFolder: opts.SingleFolder,
		Nested:       opts.Nested,
		StartedAt:    started.UTC(),
		FinishedAt:   finished.UTC(),
		Total:        len(results),
		Units:        make([]Entry, 0, len(results)),
	}

	for _, res := range results {
		e := Entry{
			Kind:              res.Unit.Kind.String(),
			Source:            res.Unit.Source,
			Archive:           res.Unit.Archive,
			Destination:       res.Unit.Destination,
			SourceSHA256:      res.SourceChecksum,
			DestinationSHA256: res.DestinationChecksum,
			Matched:           res.Matched,
			Bytes:             res.Bytes,
		}
		if res.OK() {
			r.Succeeded++
			r.Bytes += res.Bytes
		} else {
			r.Failed++
			e.ErrorKind = unit.ErrorKind(res.Err)
			if res.Err != nil {
				e.Error = res.Err.Error()
			}
		}
		r.Units = append(r.Units, e)
	}

	for _, c := range collisions {
		r.Collisions = append(r.Collisions, Collision{Entry: c.Entry, Name: c.Name, Assigned: c.Assigned})
	}

	return r
}

// 📝 Marshal encodes the report in the given format
func (r *Report) Marshal(format string) ([]byte, error) {
	switch format {
	case config.ReportJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, errors.Errorf("encoding JSON: %w", err)
		}
		return append(data, '\n'), nil
	case config.ReportYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return nil, errors.Errorf("encoding YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, errors.Errorf("closing YAML encoder: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, errors.Errorf("unknown report format %q", format)
	}
}

// 💾 Write stores the report at path; the format follows the extension
func (r *Report) Write(ctx context.Context, path string) error {
	format := config.ReportFormatOf(path)
	data, err := r.Marshal(format)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Errorf("writing report: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Str("format", format).Int("units", r.Total).Msg("report written")
	return nil
}
