// Package activity writes the human-readable audit trail of user actions
// (logs.txt), one line per event with the acting user, the action name and
// a free-form detail.
package activity

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/eringen/sitebot/site"
)

// Server is the actor recorded for events not caused by a user.
const Server = "server"

// Log is safe for concurrent use.
type Log struct {
	logger zerolog.Logger
	file   *os.File
}

func newWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    true,
		TimeFormat: time.RFC3339,
	}
}

// New writes activity lines to w only.
func New(w io.Writer) *Log {
	return &Log{
		logger: zerolog.New(zerolog.SyncWriter(newWriter(w))).With().Timestamp().Logger(),
	}
}

// Open appends to the file at path, creating it and its directory if needed.
// When mirror is non-nil every line is also written there.
func Open(path string, mirror io.Writer) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Errorf("create activity log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Errorf("open activity log: %w", err)
	}
	var w io.Writer = newWriter(f)
	if mirror != nil {
		w = zerolog.MultiLevelWriter(w, newWriter(mirror))
	}
	return &Log{
		logger: zerolog.New(zerolog.SyncWriter(w)).With().Timestamp().Logger(),
		file:   f,
	}, nil
}

// Discard returns a Log that drops everything.
func Discard() *Log {
	return &Log{logger: zerolog.Nop()}
}

// User formats a user id as an actor.
func User(id site.UserID) string {
	return strconv.FormatInt(int64(id), 10)
}

func (l *Log) record(level zerolog.Level, actor, action, detail string) {
	ev := l.logger.WithLevel(level).Str("actor", actor)
	if detail != "" {
		ev = ev.Str("detail", detail)
	}
	ev.Msg(action)
}

func (l *Log) Info(actor, action, detail string) {
	l.record(zerolog.InfoLevel, actor, action, detail)
}

func (l *Log) Warn(actor, action, detail string) {
	l.record(zerolog.WarnLevel, actor, action, detail)
}

func (l *Log) Error(actor, action, detail string) {
	l.record(zerolog.ErrorLevel, actor, action, detail)
}

// Close closes the underlying file, if any.
func (l *Log) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
