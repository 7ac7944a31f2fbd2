package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/appraise/core"
)

func TestNewConfig(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("TEST_APIBASEURL", "https://appraise.example.com/api/")
	t.Setenv("TEST_REQUESTTIMEOUT", "5s")
	t.Setenv("TEST_EXCLUDEDROLE", "VISITOR")

	conf, err := core.NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "TEST", conf.Env)
	assert.True(t, conf.TestMode)
	assert.False(t, conf.Debug)
	assert.Equal(t, "https://appraise.example.com/api", conf.API.BaseURL)
	assert.Equal(t, 5*time.Second, conf.API.RequestTimeout)
	assert.Equal(t, "/stream/users", conf.API.StreamPath)
	assert.Equal(t, "VISITOR", conf.Admins.ExcludedRole)
	assert.NotEmpty(t, conf.Session.File)
}

func TestNewConfig_defaults(t *testing.T) {
	t.Setenv("ENV", "")

	conf, err := core.NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "DEV", conf.Env)
	assert.True(t, conf.Debug)
	assert.Equal(t, "http://localhost:8000", conf.API.BaseURL)
	assert.Equal(t, core.DefaultRequestTimeout, conf.API.RequestTimeout)
	assert.Equal(t, 15*time.Second, conf.API.RequestTimeout)
	assert.Equal(t, "LECTURER", conf.Admins.ExcludedRole)
}
