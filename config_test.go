package modelbind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, Config{
		MaxModelErrors:  DefaultMaxModelErrors,
		MaxBodySize:     2 << 20,
		MultipartMemory: DefaultMultipartMemory,
	}, cfg)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("MODELBIND_PREFIX", "pair")
	t.Setenv("MODELBIND_MAX_MODEL_ERRORS", "5")
	t.Setenv("MODELBIND_MAX_BODY_SIZE", "1024")
	t.Setenv("MODELBIND_SKIP_VALIDATION", "true")
	t.Setenv("MODELBIND_SAFE_MODE", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "pair", cfg.Prefix)
	assert.Equal(t, 5, cfg.MaxModelErrors)
	assert.Equal(t, int64(1024), cfg.MaxBodySize)
	assert.True(t, cfg.SkipValidation)
	assert.True(t, cfg.SafeMode)

	c := newConfig(cfg.Options()...)
	assert.Equal(t, "pair", c.prefix)
	assert.Equal(t, 5, c.maxModelErrors)
	assert.Equal(t, int64(1024), c.maxBodySize)
	assert.True(t, c.skipValidation)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("MODELBIND_MAX_MODEL_ERRORS", "many")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "modelbind: load config")
}

func TestConfig_MultipartLimit(t *testing.T) {
	c := newConfig(Config{MultipartMemory: 1 << 10}.Options()...)

	var form *FormSource
	for _, s := range c.sources {
		if fs, ok := s.(*FormSource); ok {
			form = fs
		}
	}
	require.NotNil(t, form)
	assert.Equal(t, int64(1<<10), form.MaxMemory)
	// 全局默认链不受影响
	assert.Equal(t, int64(DefaultMultipartMemory), Sources[0].(*FormSource).MaxMemory)
}
