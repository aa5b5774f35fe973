package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/nikbrunner/bmsort/internal/ai"
	"github.com/nikbrunner/bmsort/internal/model"
	"github.com/nikbrunner/bmsort/internal/storage"
)

func TestLoadConfig_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bmsort", "config.json")

	config, err := storage.LoadConfig(path)
	assert.NilError(t, err)
	assert.DeepEqual(t, *config, storage.DefaultConfig())

	_, err = os.Stat(path)
	assert.NilError(t, err, "config file written on first load")
}

func TestLoadConfig_BackfillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"model":"deepseek-reasoner","timeoutSeconds":-1,"classification":{"maxCategories":8,"maxLevels":0}}`
	assert.NilError(t, os.WriteFile(path, []byte(data), 0644))

	config, err := storage.LoadConfig(path)
	assert.NilError(t, err)

	assert.Equal(t, config.Model, "deepseek-reasoner")
	assert.Equal(t, config.BaseURL, ai.DefaultBaseURL)
	assert.Equal(t, config.TimeoutSeconds, 30)
	assert.Equal(t, config.TargetFolder, model.BarFolderID)
	assert.Equal(t, config.Classification.MaxCategories, 8)
	assert.Equal(t, config.Classification.MaxLevels, 1)
	assert.Equal(t, config.Classification.Style, model.StyleSmart)
	assert.Assert(t, config.Classification.CheckAccessibility, "absent bool keeps its default")
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	assert.NilError(t, os.WriteFile(path, []byte("["), 0644))

	_, err := storage.LoadConfig(path)
	assert.Assert(t, err != nil)
}

func TestSaveConfig_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	config := storage.DefaultConfig()
	config.Storage = storage.BackendSQLite
	config.Classification.Style = model.StyleCustom
	config.Classification.CustomRequirement = "group by programming language"

	assert.NilError(t, storage.SaveConfig(path, &config))
	loaded, err := storage.LoadConfig(path)
	assert.NilError(t, err)
	assert.DeepEqual(t, *loaded, config)
}
