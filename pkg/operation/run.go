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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/verifycp/pkg/progress"
	"github.com/walteh/verifycp/pkg/report"
	"github.com/walteh/verifycp/pkg/resolve"
)

// 📛 Phase names shown by the reporter
const (
	PhaseCopy    = "copy"
	PhaseExtract = "extract"
	PhaseNested  = "nested"
)

// 🏃 Run executes the whole pipeline
func (op *operator) Run(ctx context.Context) (*Outcome, error) {
	logger := zerolog.Ctx(ctx)
	out := &Outcome{StartedAt: time.Now()}

	var namer *resolve.Namer
	if op.config.SingleFolder {
		namer = resolve.NewNamer()
	}

	plan, err := resolve.Resolve(ctx, resolve.Options{
		Origin:       op.config.Origin,
		Destination:  op.config.Destination,
		SingleFolder: op.config.SingleFolder,
		Excludes:     op.config.Excludes,
		Namer:        namer,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := plan.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing archives")
		}
	}()

	logger.Debug().
		Str("origin", plan.Origin).
		Str("destination", plan.Destination).
		Int("units", len(plan.Units)).
		Int("collisions", len(plan.Collisions)).
		Msg("plan resolved")

	phase := PhaseCopy
	if plan.HasArchives() {
		phase = PhaseExtract
	}
	op.reporter.Describe(plan)
	out.Results = op.engine.Run(ctx, phase, plan, op.reporter)
	out.Collisions = append(out.Collisions, plan.Collisions...)

	if op.config.Nested && plan.HasArchives() && ctx.Err() == nil {
		results, collisions := op.nested(ctx, out.Results, namer)
		out.Results = append(out.Results, results...)
		out.Collisions = append(out.Collisions, collisions...)
	}

	out.FinishedAt = time.Now()
	out.Summary = progress.Summarize(out.Results, out.Collisions)
	op.reporter.Summary(out.Summary)

	if op.config.ReportPath != "" {
		r := report.New(*op.config, out.Results, out.Collisions, out.StartedAt, out.FinishedAt)
		if err := r.Write(ctx, op.config.ReportPath); err != nil {
			return out, errors.Errorf("writing report: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return out, errors.Errorf("run interrupted: %w", err)
	}

	return out, nil
}
