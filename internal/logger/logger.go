package logger

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexisbeaulieu97/bucketsync/internal/model"
)

// Options describes logger configuration supplied at creation time.
type Options struct {
	Level         string
	HumanReadable bool
	Writer        io.Writer

	// Secrets are replaced by the mask token wherever they appear in output.
	Secrets []string
}

// Logger wraps zerolog to provide a simplified API for the application.
type Logger struct {
	base zerolog.Logger
}

// New creates a configured Logger instance based on Options. Output goes to
// stderr unless a Writer is supplied.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}
	writer = newRedactingWriter(writer, opts.Secrets)

	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	var output io.Writer = writer
	if opts.HumanReadable {
		console := zerolog.NewConsoleWriter()
		console.Out = writer
		console.TimeFormat = time.RFC3339
		output = console
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &Logger{base: logger}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{base: zerolog.Nop()}
}

// WithFields returns a derived logger that always writes the supplied fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	if l == nil {
		return nil
	}

	builder := l.base.With()
	for key, value := range fields {
		builder = builder.Interface(key, value)
	}

	derived := Logger{base: builder.Logger()}
	return &derived
}

// Info writes an informational log entry.
func (l *Logger) Info(msg string) {
	if l == nil {
		return
	}
	l.base.Info().Msg(msg)
}

// Debug writes a debug-level log entry if enabled.
func (l *Logger) Debug(msg string) {
	if l == nil {
		return
	}
	l.base.Debug().Msg(msg)
}

// Warn writes a warning level log entry.
func (l *Logger) Warn(msg string) {
	if l == nil {
		return
	}
	l.base.Warn().Msg(msg)
}

// Error writes an error log entry including the supplied error context.
func (l *Logger) Error(err error, msg string) {
	if l == nil {
		return
	}
	event := l.base.Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(msg)
}

// redactingWriter masks secrets in the raw bytes handed to the sink. Both
// the plain form and the JSON-escaped form of each secret are replaced.
type redactingWriter struct {
	out      io.Writer
	replacer *strings.Replacer
}

func newRedactingWriter(out io.Writer, secrets []string) io.Writer {
	var pairs []string
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		pairs = append(pairs, secret, model.MaskToken)
		if escaped := jsonEscaped(secret); escaped != secret {
			pairs = append(pairs, escaped, model.MaskToken)
		}
	}
	if len(pairs) == 0 {
		return out
	}
	return &redactingWriter{out: out, replacer: strings.NewReplacer(pairs...)}
}

func (w *redactingWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(w.out, w.replacer.Replace(string(p))); err != nil {
		return 0, err
	}
	// Report the original length so callers do not treat masking as a short write.
	return len(p), nil
}

func jsonEscaped(s string) string {
	data, err := json.Marshal(s)
	if err != nil {
		return s
	}
	return string(data[1 : len(data)-1])
}
