// Package cli implements the megamini command-line interface.
//
// Every command loads the scene file, applies one operation and saves the
// scene again, so rigs survive between invocations. The CLI is built using
// cobra and logs through the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - rig: Create, list, inspect and destroy rigs
//   - place: Add or remove places of a rig
//   - object: Add scene objects
//   - attach: Attach objects to a rig (single or multi)
//   - observer, cursor: Move the observer or the 3D cursor
//   - graph: Draw a rig's evaluation graph
//   - watch: Move the observer interactively
//
// # Configuration
//
// Rig defaults and attach policy come from --config (TOML) and MEGAMINI_*
// environment variables; command flags win over both.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Rig and scene
// events are reported through observability hooks backed by the same logger.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Rendered graph (12ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// logHooks reports rig and scene events to a logger. Failures are logged at
// warn level, everything else at debug level.
type logHooks struct {
	logger *log.Logger
}

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l.WithPrefix("hooks")}
}

func (h *logHooks) event(msg string, err error, kv ...any) {
	if err != nil {
		h.logger.Warn(msg, append(kv, "err", err)...)
		return
	}
	h.logger.Debug(msg, kv...)
}

func (h *logHooks) OnRigCreated(rig string, scale float64, err error) {
	h.event("rig created", err, "rig", rig, "scale", scale)
}

func (h *logHooks) OnRigDestroyed(rig string, err error) {
	h.event("rig destroyed", err, "rig", rig)
}

func (h *logHooks) OnParamsUpdated(rig string, scale float64, err error) {
	h.event("rig parameters updated", err, "rig", rig, "scale", scale)
}

func (h *logHooks) OnPlaceCreated(rig, place string, err error) {
	h.event("place created", err, "rig", rig, "place", place)
}

func (h *logHooks) OnPlaceDestroyed(rig, place string, err error) {
	h.event("place destroyed", err, "rig", rig, "place", place)
}

func (h *logHooks) OnPlaceUpdated(rig, place string, err error) {
	h.event("place updated", err, "rig", rig, "place", place)
}

func (h *logHooks) OnAttach(rig, mode string, attached, skipped int, err error) {
	h.event("attach", err, "rig", rig, "mode", mode, "attached", attached, "skipped", skipped)
}

func (h *logHooks) OnBind(armature, channel, formula string, err error) {
	h.event("driver bound", err, "armature", armature, "channel", channel, "formula", formula)
}

func (h *logHooks) OnEvaluate(nodeCount int, duration time.Duration, err error) {
	h.event("scene evaluated", err, "nodes", nodeCount, "duration", duration)
}
