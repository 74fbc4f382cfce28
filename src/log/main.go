// Package log is the logging facade of the agent. Two backends exist:
// structured JSON for the automation platform to ingest, and a plain console
// format for on-site debugging. The backend is selected once at startup.
package log

import (
	"os"
	"strings"
	"time"

	"github.com/op/go-logging"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the logger used throughout the agent.
var Log = Logging{Logger: "json"}

type Logging struct {
	Logger string
}

// Init configures the selected backend. Output "console" gives a human
// readable format, anything else means structured JSON.
func (l *Logging) Init(level string, output string, configDirectory string, timezone *time.Location) {
	if output == "console" {
		l.Logger = "console"
		configureConsole(level, configDirectory)
		return
	}
	l.Logger = "json"
	configureJSON(level, timezone)
}

// Camera binds the camera identity to every message, so log processors can
// filter on camera and host instead of parsing the message text.
func (l *Logging) Camera(name string, host string) *Scope {
	return &Scope{
		console: l.Logger == "console",
		entry:   logrus.WithFields(logrus.Fields{"camera": name, "host": host}),
		prefix:  "[" + name + "@" + host + "] ",
	}
}

// Scope is a logger bound to one camera.
type Scope struct {
	console bool
	entry   *logrus.Entry
	prefix  string
}

func (s *Scope) Info(message string) {
	if s.console {
		console.Info(s.prefix + message)
		return
	}
	s.entry.Info(message)
}

func (s *Scope) Warning(message string) {
	if s.console {
		console.Warning(s.prefix + message)
		return
	}
	s.entry.Warn(message)
}

func (s *Scope) Debug(message string) {
	if s.console {
		console.Debug(s.prefix + message)
		return
	}
	s.entry.Debug(message)
}

func (s *Scope) Error(message string) {
	if s.console {
		console.Error(s.prefix + message)
		return
	}
	s.entry.Error(message)
}

func (l *Logging) Info(message string) {
	if l.Logger == "console" {
		console.Info(message)
		return
	}
	logrus.Info(message)
}

func (l *Logging) Warning(message string) {
	if l.Logger == "console" {
		console.Warning(message)
		return
	}
	logrus.Warn(message)
}

func (l *Logging) Debug(message string) {
	if l.Logger == "console" {
		console.Debug(message)
		return
	}
	logrus.Debug(message)
}

func (l *Logging) Error(message string) {
	if l.Logger == "console" {
		console.Error(message)
		return
	}
	logrus.Error(message)
}

func (l *Logging) Fatal(message string) {
	if l.Logger == "console" {
		console.Fatal(message)
		return
	}
	logrus.Fatal(message)
}

// -----------------
// Console backend
// -> github.com/op/go-logging

var console = logging.MustGetLogger("onvif-agent")

func configureConsole(level string, configDirectory string) {
	stdFormat := logging.MustStringFormatter(
		`%{color}%{time:15:04:05.000} %{level:.4s}%{color:reset} %{message}`,
	)
	fileFormat := logging.MustStringFormatter(
		`%{time:15:04:05.000} %{level:.4s} %{message}`,
	)
	stdBackend := logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), stdFormat)
	fileBackend := logging.NewBackendFormatter(logging.NewLogBackend(&lumberjack.Logger{
		Filename: configDirectory + "/data/log/onvif-agent.txt",
		MaxSize:  2, // megabytes
		Compress: true,
	}, "", 0), fileFormat)
	logging.SetBackend(stdBackend, fileBackend)

	logLevel, err := logging.LogLevel(strings.ToUpper(level))
	if err != nil {
		logLevel = logging.INFO
	}
	logging.SetLevel(logLevel, "")
}

// -----------------
// JSON backend
// -> github.com/sirupsen/logrus

func configureJSON(level string, timezone *time.Location) {
	logrus.SetFormatter(LocalTimeZoneFormatter{
		Timezone:  timezone,
		Formatter: &logrus.JSONFormatter{},
	})
	logrus.SetOutput(os.Stdout)

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
}

// LocalTimeZoneFormatter stamps entries in the configured timezone instead
// of the host timezone.
type LocalTimeZoneFormatter struct {
	Timezone  *time.Location
	Formatter logrus.Formatter
}

func (f LocalTimeZoneFormatter) Format(e *logrus.Entry) ([]byte, error) {
	e.Time = e.Time.In(f.Timezone)
	return f.Formatter.Format(e)
}
