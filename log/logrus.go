package log

import "github.com/sirupsen/logrus"

// fieldLogger is logrus.FieldLogger, named locally so Logrus can embed it
// without exposing the logrus import to callers of this package.
type fieldLogger = logrus.FieldLogger

type (
	// Logrus adapts any logrus.FieldLogger (a *logrus.Logger or
	// *logrus.Entry) to Logger.
	Logrus struct{ fieldLogger }
)

var (
	_ Logger = Logrus{}
)

func (x Logrus) WithField(key string, value any) Logger {
	return Logrus{fieldLogger: x.fieldLogger.WithField(key, value)}
}

func (x Logrus) WithFields(fields map[string]any) Logger {
	return Logrus{fieldLogger: x.fieldLogger.WithFields(fields)}
}

func (x Logrus) WithError(err error) Logger {
	return Logrus{fieldLogger: x.fieldLogger.WithError(err)}
}
