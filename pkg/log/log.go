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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/sortrc/pkg/relocate"
)

// 🎨 Display configuration
const (
	fileIndent    = 4  // spaces to indent file entries
	nameWidth     = 35 // Base width for filename
	categoryWidth = 15 // Width for category
	statusWidth   = 15 // Width for status text
)

// 🏷️ Status text shown per file
const (
	statusMoved   = "moved"
	statusRenamed = "renamed"
	statusPlanned = "planned"
	statusSkipped = "skipped"
	statusFailed  = "failed"
)

// 📦 RunOperation describes one sorting run for logging
type RunOperation struct {
	Root    string // Directory being sorted
	Workers int    // Concurrency limit
	DryRun  bool   // Whether moves are only planned
}

// 📊 Stats counts what the observed run did
type Stats struct {
	Moved   int
	Renamed int
	Skipped int
	Failed  int
	Elapsed time.Duration // from StartRun to EndRun
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	mu        sync.Mutex
	currentOp *RunOperation
	started   time.Time
	stats     Stats
	now       func() time.Time
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
	return NewWithZerolog(console, zlog)
}

// 🏭 NewWithZerolog creates a logger that shares an existing zerolog logger
func NewWithZerolog(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
		now:     time.Now,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatEvent formats a relocation event for display
func (l *Logger) formatEvent(ev relocate.Event) (string, string) {
	var symbol rune
	var symbolColor color.Attribute
	var status string
	switch {
	case ev.Err != nil && relocate.IsBenign(ev.Err):
		symbol, symbolColor, status = '-', color.FgYellow, statusSkipped
	case ev.Err != nil:
		symbol, symbolColor, status = '✗', color.FgRed, statusFailed
	case ev.Move.Renamed:
		symbol, symbolColor, status = '⟳', color.FgBlue, statusRenamed
	case ev.Move.DryRun:
		symbol, symbolColor, status = '•', color.FgCyan, statusPlanned
	default:
		symbol, symbolColor, status = '✓', color.FgGreen, statusMoved
	}

	// Build the line
	line := fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, l.rel(ev.Move.Source)),
		color.New(color.FgCyan).Sprint(fmt.Sprintf("%-*s", categoryWidth, ev.Move.Category.String())),
		fmt.Sprintf("%-*s", statusWidth, status))

	return line, status
}

// rel shortens path against the run root when one is set. Caller holds l.mu.
func (l *Logger) rel(path string) string {
	if l.currentOp == nil || l.currentOp.Root == "" {
		return path
	}
	if r, err := filepath.Rel(l.currentOp.Root, path); err == nil {
		return filepath.ToSlash(r)
	}
	return path
}

// 👀 Observe logs a relocation event; safe for concurrent use
func (l *Logger) Observe(ctx context.Context, ev relocate.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line, status := l.formatEvent(ev)
	switch status {
	case statusSkipped:
		l.stats.Skipped++
	case statusFailed:
		l.stats.Failed++
	case statusRenamed:
		l.stats.Moved++
		l.stats.Renamed++
	default:
		l.stats.Moved++
	}

	fmt.Fprintln(l.console, line)

	event := l.zlog.Info()
	if status == statusFailed {
		event = l.zlog.Error().Err(ev.Err)
	}
	event.
		Str("source", ev.Move.Source).
		Str("destination", ev.Move.Destination).
		Str("category", ev.Move.Category.String()).
		Str("status", status).
		Bool("dry_run", ev.Move.DryRun).
		Msg("file relocation")
}

// 📝 StartRun starts a new sorting run
func (l *Logger) StartRun(ctx context.Context, op RunOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentOp = &op
	l.started = l.now()
	l.stats = Stats{}

	mode := "sorting"
	if op.DryRun {
		mode = "planning"
	}

	// Print run header
	fmt.Fprintf(l.console, "[%s %s]\n", mode,
		color.New(color.FgCyan).Sprint(op.Root))

	l.zlog.Info().
		Str("root", op.Root).
		Int("workers", op.Workers).
		Bool("dry_run", op.DryRun).
		Msg("starting run")
}

// 📝 EndRun ends the current run and returns what was observed
func (l *Logger) EndRun(ctx context.Context) Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := l.stats
	if l.currentOp == nil {
		return stats
	}
	stats.Elapsed = l.now().Sub(l.started)

	l.zlog.Info().
		Str("root", l.currentOp.Root).
		Dur("elapsed", stats.Elapsed).
		Int("moved", stats.Moved).
		Int("renamed", stats.Renamed).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("run complete")

	l.currentOp = nil
	l.stats = Stats{}
	return stats
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
	name := color.New(color.Bold, color.FgCyan).Sprint("sortrc")
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
