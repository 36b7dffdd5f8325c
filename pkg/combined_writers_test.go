package pkg

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestCombinedWriter_Write(t *testing.T) {
	stdout := &strings.Builder{}
	stdout.WriteString("boot|")
	logFile := &strings.Builder{}

	cw := NewCombinedWriter(stdout, logFile)
	require.NotNil(t, cw)
	assert.Len(t, cw.Writers, 2)

	lines := []string{"route decided: Paywall\n", "onboarding turn ok\n"}
	for _, line := range lines {
		n, err := cw.Write([]byte(line))
		require.NoError(t, err)
		assert.Equal(t, len(line)*2, n)
	}

	assert.Equal(t, "boot|"+lines[0]+lines[1], stdout.String())
	assert.Equal(t, lines[0]+lines[1], logFile.String())
}

func TestCombinedWriter_Write_WithErrors(t *testing.T) {
	sb := &strings.Builder{}
	cw := NewCombinedWriter(&faultyWriter{msg: "disk full"}, sb, &faultyWriter{msg: "closed"})

	msg := "a message"
	n, err := cw.Write([]byte(msg))
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "closed")

	// only the healthy writer got the bytes
	assert.Equal(t, len(msg), n)
	assert.Equal(t, msg, sb.String())
}

type faultyWriter struct {
	msg string
}

func (fw *faultyWriter) Write([]byte) (int, error) {
	return 0, errors.New(fw.msg)
}
