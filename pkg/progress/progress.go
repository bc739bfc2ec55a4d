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

// Package progress renders transfer events: a progress bar, optional
// per-unit lines and the end-of-run summary.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pterm/pterm"

	"github.com/walteh/verifycp/pkg/log"
	"github.com/walteh/verifycp/pkg/resolve"
	"github.com/walteh/verifycp/pkg/transfer"
	"github.com/walteh/verifycp/pkg/unit"
)

// 🔧 Options configures a reporter
type Options struct {
	Verbose   bool      // print one line per finished unit
	ShowBar   bool      // render a progress bar
	BarWriter io.Writer // where the bar is drawn, defaults to stderr
}

// 📣 Reporter observes the transfer engine
type Reporter struct {
	logger *log.Logger
	opts   Options

	mu    sync.Mutex
	bar   *pterm.ProgressbarPrinter
	title string
	last  transfer.Event
}

var _ transfer.Observer = (*Reporter)(nil)

// 🏭 New creates a new reporter
func New(logger *log.Logger, opts Options) *Reporter {
	if opts.BarWriter == nil {
		opts.BarWriter = os.Stderr
	}
	return &Reporter{logger: logger, opts: opts}
}

// Describe names the archives a plan reads from, in verbose mode
func (r *Reporter) Describe(p *resolve.Plan) {
	if !r.opts.Verbose {
		return
	}

	entries := make(map[string]int)
	for _, u := range p.Units {
		if u.Kind == unit.KindArchiveEntry {
			entries[u.Archive]++
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range p.Handles() {
		r.logger.Infof("%s archive %s • %d entries", h.Format(), filepath.Base(h.Path()), entries[h.Path()])
	}
}

// Begin starts a phase of total units
func (r *Reporter) Begin(phase string, total int, concurrent bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.title = phase
	if concurrent {
		r.title = phase + " (completion order)"
	}
	r.last = transfer.Event{Phase: phase, Total: total}
	r.logger.Header(fmt.Sprintf("%s %d units", r.title, total))

	if !r.opts.ShowBar || total == 0 {
		return
	}
	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(r.title).
		WithWriter(r.opts.BarWriter).
		Start()
	if err != nil {
		r.logger.Warningf("progress bar unavailable: %v", err)
		return
	}
	r.bar = bar
}

// UnitStarted names the unit in the bar title
func (r *Reporter) UnitStarted(ev transfer.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar != nil {
		r.bar.UpdateTitle(r.title + " " + ev.Unit.Origin())
	}
}

// UnitCompleted advances the bar and prints the unit line in verbose mode
func (r *Reporter) UnitCompleted(ev transfer.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.last = ev
	if r.opts.Verbose && ev.Result != nil {
		r.logger.LogUnit(*ev.Result)
	}
	if r.bar != nil {
		r.bar.Increment()
	}
}

// End stops the bar
func (r *Reporter) End(phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar != nil {
		_, _ = r.bar.Stop()
		r.bar = nil
		return
	}
	fmt.Fprintln(r.logger.Console(), FormatProgress(r.last.Completed, r.last.Total))
}

// 📊 FormatProgress formats a progress message with percentage
func FormatProgress(current, total int) string {
	var percentage float64
	if total == 0 {
		percentage = 0
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = float64(current) / float64(total) * 100
	}

	if current >= total {
		return fmt.Sprintf("✅ Progress: %d/%d (%.0f%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %d/%d (%.0f%%)", current, total, percentage)
}
