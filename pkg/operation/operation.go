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

package operation

import (
	"context"
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/verifycp/pkg/config"
	"github.com/walteh/verifycp/pkg/progress"
	"github.com/walteh/verifycp/pkg/resolve"
	"github.com/walteh/verifycp/pkg/transfer"
	"github.com/walteh/verifycp/pkg/unit"
)

// 🚦 Exit codes
const (
	ExitOK     = 0 // every unit verified
	ExitFailed = 1 // at least one unit failed
	ExitFatal  = 2 // nothing could run, or the report could not be written
)

// 🎯 Operator runs one verified copy or extraction
type Operator interface {
	// Run resolves, transfers and summarizes. The error is fatal; unit
	// failures are carried in the outcome.
	Run(ctx context.Context) (*Outcome, error)
}

// 📣 Reporter observes the engine and prints the summary
type Reporter interface {
	transfer.Observer
	Describe(p *resolve.Plan)
	Summary(s progress.Summary)
}

// 🔧 Options contains configuration for the operator
type Options struct {
	// Config is the validated run configuration
	Config *config.Options
	// Reporter renders progress and the summary
	Reporter Reporter
	// FS is the destination filesystem, defaults to the local disk
	FS transfer.FileSystem
}

// 📊 Outcome is everything a run produced
type Outcome struct {
	Results    []unit.IntegrityResult
	Collisions []*unit.NameCollisionError
	Summary    progress.Summary
	StartedAt  time.Time
	FinishedAt time.Time
}

// 🏭 New creates a new operator with the given options
func New(opts Options) (Operator, error) {
	if opts.Config == nil {
		return nil, errors.Errorf("config is required")
	}
	if opts.Reporter == nil {
		return nil, errors.Errorf("reporter is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, errors.Errorf("validating options: %w", err)
	}
	if opts.FS == nil {
		opts.FS = transfer.OSFileSystem{}
	}
	return &operator{
		config:   opts.Config,
		reporter: opts.Reporter,
		engine:   transfer.New(transfer.Options{FS: opts.FS, Jobs: opts.Config.Jobs}),
	}, nil
}

// 🎮 operator implements the Operator interface
type operator struct {
	config   *config.Options
	reporter Reporter
	engine   *transfer.Engine
}

// 🚦 ExitCode maps the result of Run to a process exit code
func ExitCode(outcome *Outcome, err error) int {
	switch {
	case err != nil:
		return ExitFatal
	case outcome == nil || !outcome.Summary.OK():
		return ExitFailed
	default:
		return ExitOK
	}
}
