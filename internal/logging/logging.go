// Package logging builds the zap loggers used by the subsync commands.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// TimeLayout stamps status and error lines
const TimeLayout = "2006-01-02 15:04:05"

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New creates a sugared logger writing to w in the given format
func New(format string, w zapcore.WriteSyncer, verbose bool) (*zap.SugaredLogger, error) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	var encoder zapcore.Encoder
	switch format {
	case "", FormatConsole:
		encoder = NewLineEncoder()
	case FormatJSON:
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout(TimeLayout)
		encoder = zapcore.NewJSONEncoder(cfg)
	default:
		return nil, fmt.Errorf("unknown log format %q (expected %s or %s)", format, FormatConsole, FormatJSON)
	}

	return zap.New(zapcore.NewCore(encoder, w, level)).Sugar(), nil
}

// lineEncoder prints one plain line per entry. Error entries are prefixed with
// "ERROR: <timestamp>, " and error fields are folded into the message; all
// other fields are dropped.
type lineEncoder struct {
	zapcore.Encoder
}

// NewLineEncoder returns the console encoder used for human-readable output
func NewLineEncoder() zapcore.Encoder {
	return &lineEncoder{zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey: "msg",
		LineEnding: zapcore.DefaultLineEnding,
	})}
}

func (e *lineEncoder) Clone() zapcore.Encoder {
	return &lineEncoder{e.Encoder.Clone()}
}

func (e *lineEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	msg := ent.Message
	for _, f := range fields {
		if f.Type != zapcore.ErrorType {
			continue
		}
		if err, ok := f.Interface.(error); ok && err != nil {
			msg += " Cause: " + err.Error()
		}
	}
	msg = strings.Join(strings.Fields(msg), " ")

	if ent.Level >= zapcore.ErrorLevel {
		msg = "ERROR: " + ent.Time.Format(TimeLayout) + ", " + msg
	}
	ent.Message = msg

	return e.Encoder.EncodeEntry(ent, nil)
}
