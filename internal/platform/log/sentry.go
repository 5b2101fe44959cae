package log

import (
	"time"

	"github.com/getsentry/sentry-go"
	sentrylogrus "github.com/getsentry/sentry-go/logrus"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const sentryFlushTimeout = 2 * time.Second

// SentrySettings represents the configuration required to bootstrap Sentry.
type SentrySettings struct {
	DSN         string
	Environment string
	Release     string
}

// InitSentry wires up Sentry exception reporting and hooks it into the provided logrus logger.
// A nil hub and a no-op flush are returned when no DSN is configured.
func InitSentry(logger *logrus.Logger, settings SentrySettings) (*sentry.Hub, func(), error) {
	if settings.DSN == "" {
		return nil, func() {}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         settings.DSN,
		Environment: settings.Environment,
		Release:     settings.Release,
	})
	if err != nil {
		return nil, nil, eris.Wrap(err, "error initializing sentry client")
	}

	hub := sentry.NewHub(client, sentry.NewScope())
	hub.Scope().SetTag("service", ServiceName)

	if logger != nil {
		hook := sentrylogrus.NewLogHookFromClient([]logrus.Level{
			logrus.ErrorLevel,
			logrus.FatalLevel,
			logrus.PanicLevel,
		}, client)
		logger.AddHook(hook)
	}

	flush := func() {
		hub.Flush(sentryFlushTimeout)
	}

	return hub, flush, nil
}

// CaptureError reports err to the hub when one is configured.
func CaptureError(hub *sentry.Hub, err error) {
	if hub == nil || err == nil {
		return
	}
	hub.CaptureException(err)
}
