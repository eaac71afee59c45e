package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the logger shared by all commands. At debug level it
// also reports the caller, which tells the pass logs of the minimizer apart
// from those of the pipeline.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		ReportCaller:    level <= log.DebugLevel,
	})
}

// stage times one step of a command.
type stage struct {
	logger *log.Logger
	name   string
	start  time.Time
}

func startStage(l *log.Logger, name string) *stage {
	return &stage{logger: l, name: name, start: time.Now()}
}

// done logs the stage with its key-value pairs and the time it took.
func (s *stage) done(keyvals ...any) {
	keyvals = append(keyvals, "took", time.Since(s.start).Round(time.Millisecond))
	s.logger.Info(s.name, keyvals...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by the root command, or
// log.Default() outside a command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// fileLogger tags the command logger with the input a job works on.
func fileLogger(ctx context.Context, path string) *log.Logger {
	return loggerFromContext(ctx).With("file", displayName(path))
}
