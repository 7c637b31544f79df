package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for _, level := range []Severity{TraceLevel, DebugLevel, InfoLevel, WarningLevel, ErrorLevel, CriticalLevel} {
		assert.Equal(t, level, ParseLevel(level.Name()))
	}
	assert.Equal(t, Severity(0), ParseLevel("verbose"))
	assert.Equal(t, "none", Severity(42).Name())
}

func TestLogging(t *testing.T) { //nolint:paralleltest // Changes the global writer.
	buf := &bytes.Buffer{}
	Start("warning", buf)
	defer Start("info", nil)

	assert.Equal(t, WarningLevel, GetLogLevel())

	Infof("hidden %s", "line")
	Warningf("visible %s", "line")
	Errorf("failed: %d", 42)

	out := buf.String()
	assert.NotContains(t, out, "hidden line")
	assert.Contains(t, out, "visible line")
	assert.Contains(t, out, "failed: 42")

	SetLogLevel(TraceLevel)
	Tracef("tiny %s", "step")
	assert.Contains(t, buf.String(), "tiny step")
}
