package logging

import (
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestGetLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"ERROR":   logrus.ErrorLevel,
		"fatal":   logrus.FatalLevel,
		"Info":    logrus.InfoLevel,
		"trace":   logrus.TraceLevel,
		"warn":    logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"":        logrus.TraceLevel,
		"verbose": logrus.TraceLevel,
	}
	for in, expected := range cases {
		assert.Equal(t, expected, GetLevel(in), in)
	}
}

func TestSentryLevel(t *testing.T) {
	assert.Equal(t, sentry.LevelFatal, sentryLevel(logrus.PanicLevel))
	assert.Equal(t, sentry.LevelFatal, sentryLevel(logrus.FatalLevel))
	assert.Equal(t, sentry.LevelError, sentryLevel(logrus.ErrorLevel))
	assert.Equal(t, sentry.LevelWarning, sentryLevel(logrus.WarnLevel))
	assert.Equal(t, sentry.LevelInfo, sentryLevel(logrus.InfoLevel))
	assert.Equal(t, sentry.LevelDebug, sentryLevel(logrus.TraceLevel))
}

func TestSentryHook(t *testing.T) {
	levels := []logrus.Level{logrus.ErrorLevel}

	hook := NewSentryHook(nil, levels)
	assert.Equal(t, levels, hook.Levels())

	entry := logrus.NewEntry(logrus.New()).WithField("error", errors.New("backend down"))
	entry.Message = "onboarding turn failed"
	// without a hub the hook is inert
	assert.NoError(t, hook.Fire(entry))

	// a hub without a client drops the event silently
	hook = NewSentryHook(sentry.NewHub(nil, sentry.NewScope()), levels)
	assert.NoError(t, hook.Fire(entry))
}
