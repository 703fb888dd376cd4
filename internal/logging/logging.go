// Package logging builds the zerolog logger used across dashstudio.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const permission = 0664

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type LogBuild struct {
	writer io.Writer
	path   string
	level  string
	format string
}

type LogData struct {
	LogFile *os.File
	Logger  zerolog.Logger
}

func New() *LogBuild {
	return &LogBuild{}
}

// FromPath appends log lines to the file at path instead of the writer.
func (build *LogBuild) FromPath(path string) *LogBuild {
	build.path = path
	return build
}

func (build *LogBuild) FromBuffer(w io.Writer) *LogBuild {
	build.writer = w
	return build
}

// Level sets the minimum level by name (trace, debug, info, warn, error).
func (build *LogBuild) Level(level string) *LogBuild {
	build.level = level
	return build
}

// Format selects console or json output.
func (build *LogBuild) Format(format string) *LogBuild {
	build.format = format
	return build
}

func (build *LogBuild) Make() (logData *LogData, err error) {
	logData = new(LogData)
	var w io.Writer = os.Stderr
	if build.writer != nil {
		w = build.writer
	}
	if build.path != "" {
		logData.LogFile, err = os.OpenFile(build.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		w = zerolog.SyncWriter(logData.LogFile)
	}

	switch strings.ToLower(build.format) {
	case "", FormatJSON:
	case FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: build.path != ""}
	default:
		logData.Close()
		return nil, fmt.Errorf("unknown log format %q", build.format)
	}

	level := zerolog.InfoLevel
	if build.level != "" {
		level, err = zerolog.ParseLevel(strings.ToLower(build.level))
		if err != nil {
			logData.Close()
			return nil, err
		}
	}
	logData.Logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
	return logData, nil
}

// Close closes the log file, if any.
func (logData *LogData) Close() error {
	if logData.LogFile == nil {
		return nil
	}
	return logData.LogFile.Close()
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
