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

package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// 📄 Report formats
const (
	ReportYAML = "yaml"
	ReportJSON = "json"
)

// ErrInvalid marks options that fail validation
var ErrInvalid = errors.Base("invalid options")

// 📚 Options represents a complete run configuration
type Options struct {
	Origin       string   `json:"origin" yaml:"origin"`               // file, directory or archive
	Destination  string   `json:"destination" yaml:"destination"`     // destination directory
	Verbose      bool     `json:"verbose" yaml:"verbose"`             // per-unit output
	SingleFolder bool     `json:"single_folder" yaml:"single_folder"` // flatten archive entries
	Excludes     []string `json:"excludes,omitempty" yaml:"excludes,omitempty"`
	Jobs         int      `json:"jobs" yaml:"jobs"`     // parallel plain-file transfers
	Nested       bool     `json:"nested" yaml:"nested"` // expand extracted .rar files
	ReportPath   string   `json:"report,omitempty" yaml:"report,omitempty"`
	NoProgress   bool     `json:"-" yaml:"-"`
	Debug        bool     `json:"-" yaml:"-"`
}

// 🔍 Validate checks if the options are valid and normalizes paths
func (o *Options) Validate() error {
	// Check required fields
	if strings.TrimSpace(o.Origin) == "" {
		return errors.Errorf("%w: origin is required", ErrInvalid)
	}
	if strings.TrimSpace(o.Destination) == "" {
		return errors.Errorf("%w: destination is required", ErrInvalid)
	}
	if o.Jobs < 1 {
		return errors.Errorf("%w: jobs must be at least 1, got %d", ErrInvalid, o.Jobs)
	}
	for _, pattern := range o.Excludes {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("%w: exclude pattern %q is malformed", ErrInvalid, pattern)
		}
	}
	if o.ReportPath != "" && strings.HasSuffix(o.ReportPath, string(filepath.Separator)) {
		return errors.Errorf("%w: report %s is a directory", ErrInvalid, o.ReportPath)
	}

	// Clean up paths
	o.Origin = filepath.Clean(o.Origin)
	o.Destination = filepath.Clean(o.Destination)
	if o.ReportPath != "" {
		o.ReportPath = filepath.Clean(o.ReportPath)
	}

	return nil
}

// 📄 ReportFormatOf picks the report format from the file extension.
// Anything but .json is written as YAML.
func ReportFormatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ReportJSON
	}
	return ReportYAML
}

// 📝 String returns a string representation of the options
func (o *Options) String() string {
	mode := "structured"
	if o.SingleFolder {
		mode = "single-folder"
	}
	return fmt.Sprintf("%s -> %s (%s, jobs=%d)", o.Origin, o.Destination, mode, o.Jobs)
}
