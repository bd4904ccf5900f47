package log

import (
	"io"

	"gopkg.in/Sirupsen/logrus.v0"
)

type Level uint8

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

func (lvl Level) logrus() logrus.Level {
	return logrus.Level(lvl)
}

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	logrus.SetLevel(logrus.DebugLevel)
}

// Disable silences all logging output.
func Disable() {
	logrus.SetOutput(io.Discard)
}

func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// A Context contributes extra fields (typically the current emulation
// cycle or frame) to every structured entry.
type Context interface {
	AddLogContext(e *EntryZ)
}

var contexts []Context

func AddContext(c Context) {
	contexts = append(contexts, c)
}
