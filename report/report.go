// Package report carries progress and warning messages out of the
// combiner without tying it to a particular logger.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

type Reporter interface {
	Report(level slog.Level, msg string, args ...any)
}

// Slog adapts a *slog.Logger. A nil logger uses slog.Default().
func Slog(logger *slog.Logger) Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return slogReporter{logger}
}

type slogReporter struct {
	logger *slog.Logger
}

func (r slogReporter) Report(level slog.Level, msg string, args ...any) {
	r.logger.Log(context.Background(), level, msg, args...)
}

// Nop discards everything.
var Nop Reporter = nopReporter{}

type nopReporter struct{}

func (nopReporter) Report(slog.Level, string, ...any) {}

// Entry is a single message captured by a Recorder.
type Entry struct {
	Level   slog.Level
	Message string
	Args    []any
}

// Recorder keeps every reported message in memory. Safe for
// concurrent use.
type Recorder struct {
	mutex   sync.Mutex
	Entries []Entry
}

func (r *Recorder) Report(level slog.Level, msg string, args ...any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.Entries = append(r.Entries, Entry{Level: level, Message: msg, Args: args})
}

// Messages returns the messages reported at level, with args
// rendered as key=value pairs.
func (r *Recorder) Messages(level slog.Level) []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	msgs := []string{}
	for _, e := range r.Entries {
		if e.Level != level {
			continue
		}
		msg := e.Message
		for i := 0; i+1 < len(e.Args); i += 2 {
			msg += fmt.Sprintf(" %v=%v", e.Args[i], e.Args[i+1])
		}
		msgs = append(msgs, msg)
	}
	return msgs
}
