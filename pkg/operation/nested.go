package operation

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/verifycp/pkg/archive"
	"github.com/walteh/verifycp/pkg/resolve"
	"github.com/walteh/verifycp/pkg/unit"
)

// flattened nested archives land here in single-folder mode
const nestedFolder = "rar-content"

// 📦 nested expands every verified .rar produced by the primary pass. A
// structured run extracts inner.rar next to itself into inner/; a
// single-folder run flattens all of them into rar-content/ with the same
// namer as the primary pass. Nested archives are not expanded recursively.
func (op *operator) nested(ctx context.Context, primary []unit.IntegrityResult, namer *resolve.Namer) ([]unit.IntegrityResult, []*unit.NameCollisionError) {
	logger := zerolog.Ctx(ctx)

	var (
		merged   *resolve.Plan
		failures []unit.IntegrityResult
	)

	for _, res := range primary {
		if !res.OK() || archive.FormatOf(res.Unit.Destination) != archive.FormatRar {
			continue
		}

		dest := nestedDestination(op.config.Destination, res.Unit.Destination, op.config.SingleFolder)
		logger.Debug().Str("archive", res.Unit.Destination).Str("destination", dest).Msg("expanding nested archive")

		plan, err := resolve.Resolve(ctx, resolve.Options{
			Origin:       res.Unit.Destination,
			Destination:  dest,
			SingleFolder: op.config.SingleFolder,
			Excludes:     op.config.Excludes,
			Namer:        namer,
		})
		if err != nil {
			// one bad inner archive fails its own unit, not the run
			logger.Warn().Err(err).Str("archive", res.Unit.Destination).Msg("skipping nested archive")
			failures = append(failures, unit.IntegrityResult{
				Unit: unit.TransferUnit{Source: res.Unit.Destination, Destination: dest, Kind: unit.KindPlainFile},
				Err:  err,
			})
			continue
		}

		if merged == nil {
			merged = plan
			continue
		}
		merged.Merge(plan)
	}

	if merged == nil {
		return failures, nil
	}
	defer func() {
		if err := merged.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing nested archives")
		}
	}()

	op.reporter.Describe(merged)
	results := op.engine.Run(ctx, PhaseNested, merged, op.reporter)
	return append(failures, results...), merged.Collisions
}

func nestedDestination(root, archivePath string, singleFolder bool) string {
	if singleFolder {
		return filepath.Join(root, nestedFolder)
	}
	base := filepath.Base(archivePath)
	return filepath.Join(filepath.Dir(archivePath), strings.TrimSuffix(base, filepath.Ext(base)))
}
