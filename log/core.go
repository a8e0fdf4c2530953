// Package log is the minimal logging interface used by this module,
// adapted from the teacher repo's sql/log package: a small method set a
// caller can implement against any backend, a Discard no-op default, and a
// Logrus adapter for the common case.
package log

type (
	// Logger is the logging interface used throughout pope. It is a subset
	// of logrus.FieldLogger, chosen so any reasonably capable structured
	// logger can back it without an adapter doing much more than this file
	// does for logrus itself.
	Logger interface {
		WithField(key string, value any) Logger
		WithFields(fields map[string]any) Logger
		WithError(err error) Logger
		Debug(args ...any)
		Info(args ...any)
		Warn(args ...any)
		Error(args ...any)
	}

	// Discard implements a Logger that does nothing. It is the zero-value
	// default used when Engine is constructed without an explicit logger.
	Discard struct{}
)

var (
	_ Logger = Discard{}
)

func (Discard) WithField(string, any) Logger     { return Discard{} }
func (Discard) WithFields(map[string]any) Logger { return Discard{} }
func (Discard) WithError(error) Logger           { return Discard{} }
func (Discard) Debug(...any)                     {}
func (Discard) Info(...any)                      {}
func (Discard) Warn(...any)                      {}
func (Discard) Error(...any)                     {}
