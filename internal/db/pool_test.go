package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolConfig(t *testing.T) {
	cfg, err := newPoolConfig(NewDBPoolParams{
		DBHost:     "localhost",
		DBPort:     "5432",
		DBName:     "easyathlete",
		DBPassword: "p@ss word",
	})
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.ConnConfig.Host)
	assert.Equal(t, uint16(5432), cfg.ConnConfig.Port)
	assert.Equal(t, "easyathlete", cfg.ConnConfig.Database)
	assert.Equal(t, "postgres", cfg.ConnConfig.User)
	assert.Equal(t, "p@ss word", cfg.ConnConfig.Password)
	assert.Nil(t, cfg.ConnConfig.Tracer)
}

func TestNewPoolConfig_Tracing(t *testing.T) {
	cfg, err := newPoolConfig(NewDBPoolParams{
		DBHost:         "db",
		DBPort:         "5433",
		DBName:         "sessions",
		DBUser:         "flow",
		TracingEnabled: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "flow", cfg.ConnConfig.User)
	assert.Empty(t, cfg.ConnConfig.Password)
	assert.NotNil(t, cfg.ConnConfig.Tracer)
}
