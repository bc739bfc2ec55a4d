package progress

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/walteh/verifycp/pkg/unit"
)

// 📊 Summary is the outcome of a whole run
type Summary struct {
	Total      int
	Succeeded  int
	Failed     int
	Bytes      int64 // bytes written by verified units
	Failures   []unit.IntegrityResult
	Collisions []*unit.NameCollisionError
}

// 🧮 Summarize counts results. A unit counts as succeeded only when it
// was written and its checksums matched.
func Summarize(results []unit.IntegrityResult, collisions []*unit.NameCollisionError) Summary {
	s := Summary{Total: len(results), Collisions: collisions}
	for _, res := range results {
		if res.OK() {
			s.Succeeded++
			s.Bytes += res.Bytes
			continue
		}
		s.Failed++
		s.Failures = append(s.Failures, res)
	}
	return s
}

// OK reports whether every unit succeeded
func (s Summary) OK() bool {
	return s.Failed == 0
}

// 📝 FormatFailure formats one failed unit with its error kind
func FormatFailure(res unit.IntegrityResult) string {
	err := "no checksum match"
	if res.Err != nil {
		err = res.Err.Error()
	}
	return fmt.Sprintf("%s%s %s %s",
		strings.Repeat(" ", 4),
		color.RedString("✗"),
		color.New(color.Bold).Sprintf("%-24s", unit.ErrorKind(res.Err)),
		err)
}

// 🏁 Summary prints the end-of-run summary
func (r *Reporter) Summary(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	console := r.logger.Console()
	fmt.Fprint(console, pterm.DefaultSection.Sprint("Summary"))
	fmt.Fprintf(console, "    total %s  succeeded %s  failed %s  written %s\n",
		color.New(color.Bold).Sprint(s.Total),
		color.GreenString("%d", s.Succeeded),
		failedColor(s.Failed).Sprint(s.Failed),
		color.CyanString(humanize.Bytes(uint64(s.Bytes))))

	if len(s.Collisions) > 0 {
		fmt.Fprint(console, pterm.DefaultSection.WithLevel(2).Sprint("Renamed entries"))
		for _, c := range s.Collisions {
			r.logger.Warning(c.Error())
		}
	}

	if len(s.Failures) > 0 {
		fmt.Fprint(console, pterm.DefaultSection.WithLevel(2).Sprint("Failed units"))
		for _, res := range s.Failures {
			fmt.Fprintln(console, FormatFailure(res))
		}
		r.logger.LogNewline()
		r.logger.Errorf("%d of %d units failed verification", s.Failed, s.Total)
		return
	}

	r.logger.Successf("all %d units verified", s.Total)
}

func failedColor(n int) *color.Color {
	if n > 0 {
		return color.New(color.FgRed, color.Bold)
	}
	return color.New(color.FgGreen)
}
