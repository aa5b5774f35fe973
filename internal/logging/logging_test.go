package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/bmsort/internal/logging"
)

func TestNew_JSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bmsort.log")
	log, err := logging.New(logging.Options{Level: "info", Env: "prod", Path: path})
	assert.NilError(t, err)

	log.Debug("hidden")
	log.Info("run started")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Assert(t, is.Len(lines, 1))

	var entry map[string]any
	assert.NilError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, entry["message"], "run started")
	assert.Equal(t, entry["level"], "info")
}

func TestNew_DefaultLevelIsWarn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bmsort.log")
	log, err := logging.New(logging.Options{Path: path})
	assert.NilError(t, err)

	log.Info("hidden")
	log.Warn("shown")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Assert(t, !strings.Contains(string(data), "hidden"))
	assert.Assert(t, is.Contains(string(data), "WARN"))
}

func TestNew_BadLevel(t *testing.T) {
	_, err := logging.New(logging.Options{Level: "loud"})
	assert.ErrorContains(t, err, "log level")
}
