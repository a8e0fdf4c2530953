package log

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"
)

func ExampleLogrus() {
	logger := func() Logger {
		l := logrus.New()
		l.SetOutput(os.Stdout)
		l.SetFormatter(&logrus.TextFormatter{
			DisableColors:    true,
			DisableTimestamp: true,
		})
		return Logrus{fieldLogger: l}
	}()

	loggerA := logger.WithField(`partition`, 1).
		WithFields(map[string]any{`shard`: 0}).
		WithError(errors.New(`write failed`))

	logger.WithField(`seq`, 7).Info(`released`)
	loggerA.Error(`persist failed`)

	//output:
	//level=info msg=released seq=7
	//level=error msg="persist failed" error="write failed" partition=1 shard=0
}
