package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/rconsole/internal/core"
	"github.com/roach88/rconsole/internal/journal"
	"github.com/roach88/rconsole/internal/model"
	"github.com/roach88/rconsole/internal/notify"
	"github.com/roach88/rconsole/internal/settings"
	"github.com/roach88/rconsole/internal/transport"
)

// session is one command's view of the backend: resolved settings, a core,
// the optional journal and the notifications collected along the way.
type session struct {
	settings settings.Settings
	core     *core.Core
	journal  *journal.Journal
	notes    *notify.Recorder
	logger   *slog.Logger
	closers  []io.Closer
}

// loadSettings resolves settings and builds the logger.
func loadSettings(cmd *cobra.Command, opts *RootOptions) (settings.Settings, *slog.Logger, io.Closer, error) {
	s, err := settings.Load(settings.Options{ConfigFile: opts.ConfigFile})
	if err != nil {
		return settings.Settings{}, nil, nil, WrapExitError(ExitCommandError, "failed to load settings", err)
	}

	level, err := settings.ParseLevel(s.LogLevel)
	if err != nil {
		return settings.Settings{}, nil, nil, WrapExitError(ExitCommandError, "failed to load settings", err)
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger, closer := settings.NewLogger(level, s.LogFile, cmd.ErrOrStderr())
	return s, logger, closer, nil
}

// openSession builds a core for section. An empty section uses the
// configured default. Extra notifiers receive every notification as well.
func openSession(cmd *cobra.Command, opts *RootOptions, section model.Section, extra ...notify.Notifier) (*session, error) {
	s, logger, logCloser, err := loadSettings(cmd, opts)
	if err != nil {
		return nil, err
	}

	sess := &session{
		settings: s,
		notes:    notify.NewRecorder(),
		logger:   logger,
		closers:  []io.Closer{logCloser},
	}

	coreOpts := []core.Option{
		core.WithAPIURL(s.APIURL),
		core.WithBase(s.Base),
		core.WithOrigin(s.Origin),
		core.WithProduction(s.Production),
		core.WithToken(s.Token),
		core.WithLogger(logger),
	}
	if section == "" {
		section = model.Section(s.Section)
	}
	coreOpts = append(coreOpts, core.WithSection(section))

	if s.JournalPath != "" {
		j, err := journal.Open(s.JournalPath)
		if err != nil {
			sess.Close()
			return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		sess.journal = j
		sess.closers = append(sess.closers, j)

		last, err := j.LastSeq(ctxOf(cmd))
		if err != nil {
			sess.Close()
			return nil, WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		coreOpts = append(coreOpts, core.WithJournal(j), core.WithClock(core.NewClockAt(last)))
	}

	client := transport.New(
		transport.WithTimeout(s.Timeout),
		transport.WithLogger(logger),
	)

	notifiers := notify.Multi{sess.notes, notify.Logger{L: logger}}
	notifiers = append(notifiers, extra...)
	sess.core = core.New(client, notifiers, coreOpts...)
	return sess, nil
}

// Close releases the journal and the log file. Safe to call more than once.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.logger.Warn("close failed", "error", err)
		}
	}
	s.closers = nil
}

// start runs the startup sequence and requires an authorized session.
func (s *session) start(ctx context.Context) error {
	if err := s.core.Start(ctx); err != nil {
		return err
	}
	if !s.core.Authorized() {
		return errors.New("not authorized")
	}
	return nil
}

// message is what the user should read for err: the last notification if
// the core produced one, otherwise the error text.
func (s *session) message(err error) string {
	if msg := s.notes.Last(); msg != "" {
		return msg
	}
	return err.Error()
}

// fail reports err in the configured format and returns the exit error.
func (s *session) fail(f *OutputFormatter, err error) error {
	msg := s.message(err)
	if f.JSON() {
		if encErr := f.Error(ErrorCode(err), msg, err.Error(), s.notes.Messages()...); encErr != nil {
			return encErr
		}
	}
	return WrapExitError(ExitFailure, msg, err)
}

// sectionTitle renders a section name for headings, e.g. "data_sources"
// becomes "Data Sources".
func sectionTitle(section model.Section) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(section), "_", " "))
}

// ctxOf returns the command context, or Background when run without one.
func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
