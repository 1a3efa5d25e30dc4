package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLevels(t *testing.T) {
	orig := slog.Default()
	t.Cleanup(func() { slog.SetDefault(orig) })

	var buf bytes.Buffer
	Setup(&buf, false)
	slog.Debug("hidden")
	slog.Warn("shown", slog.String("dir", "/r"))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown dir=/r")

	buf.Reset()
	Setup(&buf, true)
	slog.Debug("git command", slog.String("line", "git fetch --verbose"))
	assert.Contains(t, buf.String(), `level=DEBUG msg="git command" line="git fetch --verbose"`)
}
