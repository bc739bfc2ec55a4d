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

package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/verifycp/pkg/unit"
)

// 🎨 Display configuration
const (
	fileIndent = 4  // spaces to indent unit lines
	pathWidth  = 35 // width for source and destination
	sizeWidth  = 10 // width for byte counts
	sumWidth   = 12 // checksum prefix shown in unit lines
)

// 🏗️ Setup builds the process logger. Structured logs go to w through a
// console writer; debug lowers the level from info to debug.
func Setup(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger().Level(level)
}

// 🎯 Logger writes human-facing lines to the console and mirrors them to zerolog
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// Console is the writer console lines go to
func (l *Logger) Console() io.Writer {
	return l.console
}

// 📝 FormatUnit formats the outcome of one transfer unit for display
func FormatUnit(res unit.IntegrityResult) string {
	var mismatch *unit.IntegrityMismatchError

	var symbol, status string
	switch {
	case res.OK():
		symbol = color.GreenString("✓")
		status = color.GreenString("match") + " " + color.New(color.Faint).Sprint(prefix(res.SourceChecksum))
	case errors.As(res.Err, &mismatch):
		symbol = color.New(color.FgRed, color.Bold).Sprint("≠")
		status = color.New(color.FgRed, color.Bold).Sprint("MISMATCH") + " " +
			prefix(mismatch.SourceChecksum) + " != " + prefix(mismatch.DestinationChecksum)
	default:
		symbol = color.RedString("✗")
		status = color.RedString(unit.ErrorKind(res.Err))
	}

	return fmt.Sprintf("%s%s %s %s %s %s %s",
		strings.Repeat(" ", fileIndent),
		symbol,
		fmt.Sprintf("%-*s", pathWidth, res.Unit.Origin()),
		color.New(color.Faint).Sprint("→"),
		fmt.Sprintf("%-*s", pathWidth, res.Unit.Destination),
		color.CyanString(fmt.Sprintf("%-*s", sizeWidth, humanize.Bytes(uint64(res.Bytes)))),
		status)
}

func prefix(sum string) string {
	if len(sum) > sumWidth {
		return sum[:sumWidth]
	}
	return sum
}

// 📝 LogUnit prints a unit line and records the result
func (l *Logger) LogUnit(res unit.IntegrityResult) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, FormatUnit(res))

	ev := l.zlog.Info()
	if !res.OK() {
		ev = l.zlog.Warn().Err(res.Err).Str("error_kind", unit.ErrorKind(res.Err))
	}
	ev.Str("source", res.Unit.Origin()).
		Str("destination", res.Unit.Destination).
		Str("source_sha256", res.SourceChecksum).
		Str("destination_sha256", res.DestinationChecksum).
		Bool("matched", res.Matched).
		Int64("bytes", res.Bytes).
		Msg("unit transferred")
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("verifycp")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
